package impl

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	deliverycontext "arcana/internal/delivery/context"
	"arcana/internal/domain/entity"
	domainerrors "arcana/internal/domain/errors"
	"arcana/internal/domain/repository"
	"arcana/internal/domain/service"
	"arcana/internal/errors"
	"arcana/internal/usecase"

	"go.uber.org/fx"
)

const handleRetries = 3

type accountService struct {
	userRepo     repository.UserRepository
	pendingRepo  repository.PendingSignupRepository
	verification usecase.VerificationUsecase
	sessions     usecase.SessionUsecase
	mailer       service.Mailer
	logger       *slog.Logger
}

// AccountServiceParams defines the dependencies of the account orchestrator.
type AccountServiceParams struct {
	fx.In

	UserRepo     repository.UserRepository
	PendingRepo  repository.PendingSignupRepository
	Verification usecase.VerificationUsecase
	Sessions     usecase.SessionUsecase
	Mailer       service.Mailer
	Logger       *slog.Logger
}

// NewAccountService creates the signup/login orchestrator.
func NewAccountService(params AccountServiceParams) usecase.AccountUsecase {
	return &accountService{
		userRepo:     params.UserRepo,
		pendingRepo:  params.PendingRepo,
		verification: params.Verification,
		sessions:     params.Sessions,
		mailer:       params.Mailer,
		logger:       params.Logger,
	}
}

func (s *accountService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, s.logger)
}

func validEmail(email string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return errors.Wrap(domainerrors.ErrValidation, "invalid email address")
	}

	return nil
}

func (s *accountService) InitiateSignup(ctx context.Context, input *usecase.InitiateSignupInput) (*usecase.InitiateOutput, error) {
	email := normalizeEmail(input.Email)
	if err := validEmail(email); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, errors.Wrap(domainerrors.ErrConflict, "an account with this email already exists")
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, errors.Wrap(err, "failed to look up email")
	}

	if err := s.verification.EnforceRateLimit(ctx, email); err != nil {
		return nil, err
	}

	code, expiresAt, err := s.verification.Issue(ctx, email)
	if err != nil {
		return nil, err
	}

	if err := s.pendingRepo.Upsert(ctx, &entity.PendingSignup{
		Email:  email,
		Name:   strings.TrimSpace(input.Name),
		Handle: strings.TrimSpace(input.Handle),
	}); err != nil {
		return nil, errors.Wrap(err, "failed to record pending signup")
	}

	if err := s.mailer.SendVerificationCode(ctx, email, code, expiresAt, service.PurposeSignup); err != nil {
		return nil, errors.Wrap(err, "failed to send verification email")
	}

	s.log(ctx).Info("initiated signup", slog.String("email", email))

	return &usecase.InitiateOutput{
		Message:   "verification code sent",
		ExpiresAt: expiresAt,
	}, nil
}

func (s *accountService) CompleteSignup(ctx context.Context, input *usecase.CompleteSignupInput) (*entity.User, error) {
	email := normalizeEmail(input.Email)

	if err := s.verification.Validate(ctx, email, input.Code); err != nil {
		return nil, err
	}

	var name, handle string
	pending, err := s.pendingRepo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		name, handle = pending.Name, pending.Handle
	case errors.Is(err, repository.ErrPendingSignupNotFound):
		// Signup data is best-effort; the verified email alone is enough.
	default:
		return nil, errors.Wrap(err, "failed to load pending signup")
	}

	user, err := s.createUser(ctx, email, name, handle)
	if err != nil {
		return nil, err
	}

	if err := s.verification.Complete(ctx, email); err != nil {
		return nil, err
	}
	if err := s.pendingRepo.DeleteByEmail(ctx, email); err != nil {
		s.log(ctx).Warn("failed to remove pending signup",
			slog.String("email", email), slog.Any("error", err))
	}

	s.log(ctx).Info("completed signup",
		slog.String("email", email), slog.String("user_id", user.ID.String()))

	return user, nil
}

// createUser persists the account, falling back to generated handles when the
// requested one is taken. A duplicate email always surfaces as a conflict.
func (s *accountService) createUser(ctx context.Context, email, name, handle string) (*entity.User, error) {
	if handle == "" {
		handle = generateHandle(email)
	}

	for attempt := 0; attempt < handleRetries; attempt++ {
		user := entity.NewUser(email, name, handle)
		err := s.userRepo.Create(ctx, user)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, repository.ErrUserExists) {
			return nil, errors.Wrap(err, "failed to create user")
		}

		// The email index fires only if the account appeared mid-flow;
		// otherwise the handle collided, so try another one.
		if _, lookupErr := s.userRepo.FindByEmail(ctx, email); lookupErr == nil {
			return nil, errors.Wrap(domainerrors.ErrConflict, "an account with this email already exists")
		}
		handle = generateHandle(email)
	}

	return nil, errors.Wrap(domainerrors.ErrConflict, "could not allocate a unique handle")
}

// generateHandle derives a handle from the email local part plus a random
// suffix.
func generateHandle(email string) string {
	local := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		local = email[:at]
	}

	var clean strings.Builder
	for _, r := range strings.ToLower(local) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			clean.WriteRune(r)
		}
	}
	if clean.Len() == 0 {
		clean.WriteString("user")
	}

	suffix := make([]byte, 3)
	_, _ = rand.Read(suffix)

	return fmt.Sprintf("%s_%s", clean.String(), hex.EncodeToString(suffix))
}

func (s *accountService) InitiateLogin(ctx context.Context, input *usecase.InitiateLoginInput) (*usecase.InitiateOutput, error) {
	email := normalizeEmail(input.Email)
	if err := validEmail(email); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, errors.Wrap(domainerrors.ErrNotFound, "no account with this email")
		}

		return nil, errors.Wrap(err, "failed to look up email")
	}
	if !user.EmailVerified {
		return nil, errors.Wrap(domainerrors.ErrValidation, "email address is not verified")
	}

	if err := s.verification.EnforceRateLimit(ctx, email); err != nil {
		return nil, err
	}

	code, expiresAt, err := s.verification.Issue(ctx, email)
	if err != nil {
		return nil, err
	}

	if err := s.mailer.SendVerificationCode(ctx, email, code, expiresAt, service.PurposeLogin); err != nil {
		return nil, errors.Wrap(err, "failed to send verification email")
	}

	s.log(ctx).Info("initiated login", slog.String("email", email))

	return &usecase.InitiateOutput{
		Message:   "verification code sent",
		ExpiresAt: expiresAt,
	}, nil
}

func (s *accountService) CompleteLogin(ctx context.Context, input *usecase.CompleteLoginInput) (*usecase.CompleteLoginOutput, error) {
	email := normalizeEmail(input.Email)

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, errors.Wrap(domainerrors.ErrNotFound, "no account with this email")
		}

		return nil, errors.Wrap(err, "failed to look up email")
	}

	if err := s.verification.Validate(ctx, email, input.Code); err != nil {
		return nil, err
	}

	bundle, err := s.sessions.CreateSession(ctx, user.ID, input.KeepMeLoggedIn, input.Device)
	if err != nil {
		return nil, err
	}

	if err := s.verification.Complete(ctx, email); err != nil {
		return nil, err
	}

	s.log(ctx).Info("completed login",
		slog.String("email", email), slog.String("user_id", user.ID.String()))

	return &usecase.CompleteLoginOutput{
		UserID:  user.ID,
		Session: bundle,
	}, nil
}
