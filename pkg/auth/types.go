package auth

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidCredentials signals an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrStoreClosed is returned by Dispatch once the store has been closed.
	ErrStoreClosed = errors.New("auth: store closed")
)

// Credentials is the payload of a login attempt.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session describes an authenticated user.
type Session struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// State is the store snapshot shared with the screen.
type State struct {
	Email    string   `json:"email"`
	Password string   `json:"-"`
	Error    string   `json:"error,omitempty"`
	Loading  bool     `json:"loading"`
	Session  *Session `json:"session,omitempty"`
	// Attempt increments on every Dispatch.
	Attempt uint64 `json:"attempt"`
}

// Authenticator verifies credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, creds Credentials) (Session, error)
}

// AuthenticatorFunc adapts a function to the Authenticator interface.
type AuthenticatorFunc func(ctx context.Context, creds Credentials) (Session, error)

// Authenticate calls f.
func (f AuthenticatorFunc) Authenticate(ctx context.Context, creds Credentials) (Session, error) {
	return f(ctx, creds)
}

// PublicError is implemented by errors carrying text that is safe to show to
// the user verbatim.
type PublicError interface {
	error
	PublicMessage() string
}

// DefaultErrorMessage converts an authentication failure into banner text. A
// cancelled attempt produces no message.
func DefaultErrorMessage(err error) string {
	if err == nil || errors.Is(err, context.Canceled) {
		return ""
	}
	var public PublicError
	if errors.As(err, &public) {
		if msg := public.PublicMessage(); msg != "" {
			return msg
		}
	}
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid email or password."
	case errors.Is(err, context.DeadlineExceeded):
		return "Login timed out. Please try again."
	default:
		return "Authentication failed."
	}
}
