package usecase

import (
	"context"
	"time"

	"arcana/internal/domain/entity"

	"github.com/google/uuid"
)

// InitiateSignupInput starts the email-verified signup flow.
type InitiateSignupInput struct {
	Email  string `json:"email" validate:"required,email"`
	Name   string `json:"name"`
	Handle string `json:"handle"`
}

// InitiateOutput reports that a code was issued and when it expires.
type InitiateOutput struct {
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CompleteSignupInput finishes signup with the emailed code.
type CompleteSignupInput struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

// InitiateLoginInput starts the email-code login flow.
type InitiateLoginInput struct {
	Email string `json:"email" validate:"required,email"`
}

// CompleteLoginInput finishes login with the emailed code. Device context is
// captured by the delivery layer and bound to the created session.
type CompleteLoginInput struct {
	Email          string            `json:"email" validate:"required,email"`
	Code           string            `json:"code" validate:"required,len=6,numeric"`
	KeepMeLoggedIn bool              `json:"keep_me_logged_in"`
	Device         entity.DeviceInfo `json:"-"`
}

// CompleteLoginOutput bundles the created session with the user identity.
type CompleteLoginOutput struct {
	UserID  uuid.UUID
	Session *entity.SessionBundle
}

// AccountUsecase composes the verification code service, session manager and
// user store into the signup and login flows.
type AccountUsecase interface {
	InitiateSignup(ctx context.Context, input *InitiateSignupInput) (*InitiateOutput, error)
	CompleteSignup(ctx context.Context, input *CompleteSignupInput) (*entity.User, error)
	InitiateLogin(ctx context.Context, input *InitiateLoginInput) (*InitiateOutput, error)
	CompleteLogin(ctx context.Context, input *CompleteLoginInput) (*CompleteLoginOutput, error)
}
