package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/rgoyal/smartbasket/internal/domain"
)

// sessionTTL is how long a login session stays valid.
const sessionTTL = 7 * 24 * time.Hour

// minPasswordLength matches the registration contract.
const minPasswordLength = 6

// userService implements domain.UserService with bcrypt password hashing
// and DB-backed opaque session tokens.
type userService struct {
	users domain.UserStore
}

// NewUserService creates a new UserService instance.
func NewUserService(users domain.UserStore) domain.UserService {
	return &userService{users: users}
}

// Register creates a user account with the default role.
func (s *userService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	const op = "user.register"

	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	var verr error
	if name == "" {
		verr = domain.AddFieldError(verr, "name", "name is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		verr = domain.AddFieldError(verr, "email", "a valid email is required")
	}
	if len(password) < minPasswordLength {
		verr = domain.AddFieldError(verr, "password", "password must be at least 6 characters")
	}
	if verr != nil {
		return nil, verr
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to hash password")
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Login verifies credentials and opens a session, returning the user and
// the opaque session token. Unknown email and wrong password produce the
// same error so the endpoint does not leak which emails are registered.
func (s *userService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	const op = "user.login"

	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, "", ErrInvalidCreds
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCreds
	}

	token, err := GenerateSessionToken()
	if err != nil {
		return nil, "", domain.Internal(err, op, "failed to generate session token")
	}

	session := &domain.Session{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: time.Now().Add(sessionTTL),
	}
	if err := s.users.CreateSession(ctx, session); err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// Logout deletes the session for token. Unknown tokens are ignored.
func (s *userService) Logout(ctx context.Context, token string) error {
	return s.users.DeleteSession(ctx, token)
}

// GetUserBySessionToken resolves a session token to its user.
func (s *userService) GetUserBySessionToken(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}
	return s.users.GetUserBySessionToken(ctx, token)
}
