package identity

import (
	"context"
	"errors"

	"github.com/BruksfildServices01/haircut-booking/internal/httperr"
)

// ErrUserNotFound is returned by providers for unknown uids.
var ErrUserNotFound = httperr.ErrNotFound("user_not_found")

var (
	ErrMissingToken       = httperr.ErrUnauthorized("missing_token")
	ErrInvalidToken       = httperr.ErrUnauthorized("invalid_token")
	ErrInvalidCredentials = httperr.ErrUnauthorized("invalid_credentials")
	ErrEmailTaken         = httperr.ErrBusiness("email_already_registered")
)

type User struct {
	UID         string
	DisplayName string
	Email       string
	IsAdmin     bool
}

// Caller is the identity established from a verified session token.
type Caller struct {
	UID     string
	IsAdmin bool
}

// CanActFor reports whether the caller may read or change uid's data.
func (c Caller) CanActFor(uid string) bool {
	return c.IsAdmin || (c.UID != "" && c.UID == uid)
}

// UserUpdate carries optional profile changes; nil fields are left as is.
type UserUpdate struct {
	DisplayName *string
	Email       *string
}

type Provider interface {
	GetUser(ctx context.Context, uid string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, uid string, upd UserUpdate) error
	SetAdmin(ctx context.Context, uid string, isAdmin bool) error
	VerifyToken(ctx context.Context, token string) (*Caller, error)
}

// Session is returned by password authentication.
type Session struct {
	User  User
	Token string
}

// PasswordAuthenticator is implemented by providers that own
// credentials themselves rather than delegating sign-in to a client SDK.
type PasswordAuthenticator interface {
	Register(ctx context.Context, name, email, password string) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
}

// IsNotFound reports whether err means the uid is unknown.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}
