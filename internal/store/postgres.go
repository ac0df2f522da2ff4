package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"jobtrack/api/internal/util"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

const userColumns = `id, email, password_hash, first_name, last_name, user_name, is_guest, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var user User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.UserName,
		&user.IsGuest,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return user, err
}

func (s *PostgresStore) CreateUser(ctx context.Context, user User) (User, error) {
	if user.ID == "" {
		user.ID = util.NewID("")
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO users (id, email, password_hash, first_name, last_name, user_name, is_guest)
		VALUES ($1, LOWER($2), $3, $4, $5, $6, $7)
		RETURNING `+userColumns,
		user.ID,
		strings.TrimSpace(user.Email),
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.UserName,
		user.IsGuest,
	)
	created, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, fmt.Errorf("create user: %w", ErrDuplicate)
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = LOWER($1)`, strings.TrimSpace(email))
	user, err := scanUser(row)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return User{}, fmt.Errorf("lookup user by email: %w", err)
	}
	return user, err
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	if !util.IsUUID(userID) {
		return User{}, ErrNotFound
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
	user, err := scanUser(row)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return User{}, fmt.Errorf("lookup user: %w", err)
	}
	return user, err
}

func (s *PostgresStore) UserNameTaken(ctx context.Context, userName string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(user_name) = LOWER($1))`, strings.TrimSpace(userName)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user name: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_sessions (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO UPDATE SET user_id=EXCLUDED.user_id, expires_at=EXCLUDED.expires_at, revoked_at=NULL
	`, tokenHash, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE refresh_sessions SET revoked_at=NOW() WHERE token_hash=$1`, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) LookupRefreshSession(ctx context.Context, tokenHash string) (User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.email, u.password_hash, u.first_name, u.last_name, u.user_name, u.is_guest, u.created_at, u.updated_at
		FROM refresh_sessions rs
		JOIN users u ON u.id = rs.user_id
		WHERE rs.token_hash = $1
			AND rs.revoked_at IS NULL
			AND rs.expires_at > NOW()
	`, tokenHash)
	user, err := scanUser(row)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return User{}, fmt.Errorf("lookup refresh session: %w", err)
	}
	return user, err
}

func (s *PostgresStore) RevokeAccessToken(ctx context.Context, jti string, exp time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO revoked_access_tokens (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO NOTHING
	`, jti, exp)
	if err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM revoked_access_tokens WHERE jti=$1)`, jti).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return revoked, nil
}

// PruneRevokedTokens drops revocation records whose tokens have expired anyway.
func (s *PostgresStore) PruneRevokedTokens(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM revoked_access_tokens WHERE expires_at < NOW()`)
	if err != nil {
		return 0, fmt.Errorf("prune revoked tokens: %w", err)
	}
	return res.RowsAffected()
}

// Ping verifies the database connection is alive
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
