package impl

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"arcana/config"
	deliverycontext "arcana/internal/delivery/context"
	"arcana/internal/domain/entity"
	domainerrors "arcana/internal/domain/errors"
	"arcana/internal/domain/repository"
	"arcana/internal/domain/service"
	"arcana/internal/errors"
	"arcana/internal/usecase"

	"go.uber.org/fx"
)

type verificationService struct {
	verificationRepo repository.VerificationRepository
	hasher           service.SecretHasher
	generator        service.CredentialGenerator
	cfg              *config.VerificationConfig
	logger           *slog.Logger
}

// VerificationServiceParams defines the dependencies of the verification service.
type VerificationServiceParams struct {
	fx.In

	VerificationRepo repository.VerificationRepository
	Hasher           service.SecretHasher
	Generator        service.CredentialGenerator
	Config           *config.Config
	Logger           *slog.Logger
}

// NewVerificationService creates the email verification code service.
func NewVerificationService(params VerificationServiceParams) usecase.VerificationUsecase {
	return &verificationService{
		verificationRepo: params.VerificationRepo,
		hasher:           params.Hasher,
		generator:        params.Generator,
		cfg:              params.Config.Verification,
		logger:           params.Logger,
	}
}

func (s *verificationService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, s.logger)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *verificationService) EnforceRateLimit(ctx context.Context, email string) error {
	latest, err := s.verificationRepo.FindLatestByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrVerificationNotFound) {
			return nil
		}

		return errors.Wrap(err, "failed to load latest verification")
	}

	if time.Since(latest.CreatedAt) < s.cfg.ResendWindow {
		return errors.Wrap(domainerrors.ErrTooManyRequests,
			"a verification code was sent recently, please wait before requesting another")
	}

	return nil
}

func (s *verificationService) Issue(ctx context.Context, email string) (string, time.Time, error) {
	email = normalizeEmail(email)

	code, err := s.generator.VerificationCode()
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "failed to generate verification code")
	}

	codeHash, err := s.hasher.Hash(code)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "failed to hash verification code")
	}

	// One outstanding challenge per email: issuing replaces any prior code.
	if err := s.verificationRepo.DeleteByEmail(ctx, email); err != nil {
		return "", time.Time{}, errors.Wrap(err, "failed to clear previous verification")
	}

	expiresAt := time.Now().Add(s.cfg.CodeTTL)
	verification := &entity.EmailVerification{
		Email:     email,
		CodeHash:  codeHash,
		ExpiresAt: expiresAt,
	}
	if err := s.verificationRepo.Create(ctx, verification); err != nil {
		return "", time.Time{}, errors.Wrap(err, "failed to persist verification")
	}

	s.log(ctx).Info("issued verification code", slog.String("email", email))

	return code, expiresAt, nil
}

func (s *verificationService) Validate(ctx context.Context, email, submittedCode string) error {
	email = normalizeEmail(email)

	verification, err := s.verificationRepo.FindUnverifiedByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrVerificationNotFound) {
			return errors.Wrap(domainerrors.ErrNotFound, "verification code not found or expired")
		}

		return errors.Wrap(err, "failed to load verification")
	}

	// A challenge that already burned its attempts is dead: remove it so the
	// caller has to request a fresh code.
	if verification.Attempts >= s.cfg.MaxAttempts {
		if err := s.verificationRepo.DeleteByEmail(ctx, email); err != nil {
			return errors.Wrap(err, "failed to remove exhausted verification")
		}

		return errors.Wrap(domainerrors.ErrTooManyRequests,
			"too many failed attempts, please request a new code")
	}

	if !s.hasher.Check(submittedCode, verification.CodeHash) {
		attempts, err := s.verificationRepo.IncrementAttempts(ctx, verification.ID)
		if err != nil {
			return errors.Wrap(err, "failed to record failed attempt")
		}

		remaining := s.cfg.MaxAttempts - attempts
		if remaining <= 0 {
			return errors.Wrap(domainerrors.ErrValidation,
				"invalid verification code, no attempts remaining")
		}

		return errors.Wrapf(domainerrors.ErrValidation,
			"invalid verification code, %d attempt(s) remaining", remaining)
	}

	return nil
}

func (s *verificationService) Complete(ctx context.Context, email string) error {
	if err := s.verificationRepo.DeleteByEmail(ctx, normalizeEmail(email)); err != nil {
		return errors.Wrap(err, "failed to complete verification")
	}

	return nil
}
