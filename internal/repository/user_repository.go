package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tokenauth/token-service/internal/domain"
)

const uniqueViolation = "23505"

// UserRepository defines persistence access for user accounts.
// Finders return domain.ErrUserNotFound when no row matches.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User, authorities []domain.Authority) error
	FindByPhone(ctx context.Context, phone string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	Authorities(ctx context.Context, userID string) ([]domain.Authority, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, username, email, phone, name, password_hash, created_at, updated_at`

// Emails are stored lowercased but matched case-insensitively, so a login id
// typed with any casing finds the account.
const findByEmailQuery = `SELECT ` + userColumns + ` FROM users WHERE lower(email)=lower($1)`

func (r *userRepository) Create(ctx context.Context, user *domain.User, authorities []domain.Authority) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insertUser = `
        INSERT INTO users (username, email, phone, name, password_hash)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at`

	if err := tx.QueryRow(ctx, insertUser,
		user.Username,
		user.Email,
		user.Phone,
		user.Name,
		user.PasswordHash,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return mapWriteError(err)
	}

	const insertRole = `INSERT INTO user_roles (user_id, authority) VALUES ($1, $2)`
	for _, authority := range authorities {
		if _, err := tx.Exec(ctx, insertRole, user.ID, authority); err != nil {
			return mapWriteError(err)
		}
	}

	return tx.Commit(ctx)
}

func (r *userRepository) FindByPhone(ctx context.Context, phone string) (*domain.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE phone=$1`, phone)
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, findByEmailQuery, email)
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE username=$1`, username)
}

func (r *userRepository) Authorities(ctx context.Context, userID string) ([]domain.Authority, error) {
	const query = `SELECT authority FROM user_roles WHERE user_id=$1 ORDER BY authority`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[domain.Authority])
}

func (r *userRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	const query = `
        UPDATE users SET password_hash=$1, updated_at=NOW()
        WHERE id=$2`

	cmd, err := r.pool.Exec(ctx, query, passwordHash, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) findOne(ctx context.Context, query, arg string) (*domain.User, error) {
	var user domain.User
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Phone,
		&user.Name,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return &domain.DuplicateFieldError{Field: duplicateField(pgErr.ConstraintName)}
	}
	return err
}

// duplicateField names the account field behind a unique constraint.
func duplicateField(constraint string) string {
	for _, field := range []string{"username", "email", "phone"} {
		if strings.Contains(constraint, field) {
			return field
		}
	}
	return ""
}
