package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User domain errors.
var (
	ErrUserNotFound       = &Error{Code: ENOTFOUND, Message: "User not found"}
	ErrEmailTaken         = &Error{Code: ECONFLICT, Message: "Email already in use"}
	ErrInvalidCredentials = &Error{Code: EUNAUTHORIZED, Message: "Invalid email or password"}
	ErrSessionNotFound    = &Error{Code: EUNAUTHORIZED, Message: "Session expired or not found"}
)

// User roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a registered account. PasswordHash is a bcrypt hash and never
// leaves the server.
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Session is an opaque-token login session with a fixed expiry.
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// UserStore persists users and their sessions.
type UserStore interface {
	// CreateUser inserts a user, filling ID and timestamps. Returns
	// ErrEmailTaken when the email is already registered.
	CreateUser(ctx context.Context, u *User) error

	// GetUserByEmail returns a user or ErrUserNotFound.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// GetUserByID returns a user or ErrUserNotFound.
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)

	// CreateSession inserts a session, filling its ID.
	CreateSession(ctx context.Context, s *Session) error

	// GetUserBySessionToken resolves a non-expired session token to its
	// user, or returns ErrSessionNotFound.
	GetUserBySessionToken(ctx context.Context, token string) (*User, error)

	// DeleteSession removes a session by token. Deleting an unknown
	// token is a no-op.
	DeleteSession(ctx context.Context, token string) error
}

// UserService provides registration, login and session resolution.
type UserService interface {
	Register(ctx context.Context, name, email, password string) (*User, error)
	Login(ctx context.Context, email, password string) (*User, string, error)
	Logout(ctx context.Context, token string) error
	GetUserBySessionToken(ctx context.Context, token string) (*User, error)
}
