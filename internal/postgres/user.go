package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rgoyal/smartbasket/internal/domain"
)

type userStore struct {
	db *DB
}

// NewUserStore returns a UserStore backed by the users and sessions
// tables.
func NewUserStore(db *DB) domain.UserStore {
	return &userStore{db: db}
}

const userColumns = `id, name, email, password_hash, role, created_at, updated_at`

func scanUser(row pgx.Row, u *domain.User) error {
	return row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
}

func (s *userStore) CreateUser(ctx context.Context, u *domain.User) error {
	const op = "postgres.user.create"

	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	row := s.db.Pool.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		u.Name, u.Email, u.PasswordHash, u.Role)

	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return domain.ErrEmailTaken
		}
		return storeErr(err, op, "failed to create user")
	}
	return nil
}

func (s *userStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	const op = "postgres.user.get_by_email"

	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	row := s.db.Pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1`, email)

	var u domain.User
	if err := scanUser(row, &u); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, storeErr(err, op, "failed to get user by email")
	}
	return &u, nil
}

func (s *userStore) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	const op = "postgres.user.get_by_id"

	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	row := s.db.Pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1`, id)

	var u domain.User
	if err := scanUser(row, &u); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, storeErr(err, op, "failed to get user by id")
	}
	return &u, nil
}

func (s *userStore) CreateSession(ctx context.Context, sess *domain.Session) error {
	const op = "postgres.user.create_session"

	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	row := s.db.Pool.QueryRow(ctx, `
		INSERT INTO sessions (user_id, token, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		sess.UserID, sess.Token, sess.ExpiresAt)

	if err := row.Scan(&sess.ID, &sess.CreatedAt); err != nil {
		return storeErr(err, op, "failed to create session")
	}
	return nil
}

func (s *userStore) GetUserBySessionToken(ctx context.Context, token string) (*domain.User, error) {
	const op = "postgres.user.get_by_session"

	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	row := s.db.Pool.QueryRow(ctx, `
		SELECT u.id, u.name, u.email, u.password_hash, u.role, u.created_at, u.updated_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token = $1 AND s.expires_at > now()`, token)

	var u domain.User
	if err := scanUser(row, &u); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, storeErr(err, op, "failed to resolve session")
	}
	return &u, nil
}

func (s *userStore) DeleteSession(ctx context.Context, token string) error {
	const op = "postgres.user.delete_session"

	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	if _, err := s.db.Pool.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token); err != nil {
		return storeErr(err, op, "failed to delete session")
	}
	return nil
}
