package db

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/smarttracker/backend/internal/model"
)

const userColumns = `id, username, email, password_hash, first_name, last_name,
	enabled, account_non_locked, account_non_expired, credentials_non_expired,
	created_at, last_login`

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Enabled,
		&user.AccountNonLocked,
		&user.AccountNonExpired,
		&user.CredentialsNonExpired,
		&user.CreatedAt,
		&user.LastLogin,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (db *Postgres) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE username = $1
	`
	return scanUser(db.Pool.QueryRow(ctx, query, username))
}

func (db *Postgres) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1
	`
	return scanUser(db.Pool.QueryRow(ctx, query, email))
}

func (db *Postgres) ExistsByUsernameCI(ctx context.Context, username string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(username) = LOWER($1))`
	var exists bool
	err := db.Pool.QueryRow(ctx, query, username).Scan(&exists)
	return exists, err
}

func (db *Postgres) ExistsByEmailCI(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = LOWER($1))`
	var exists bool
	err := db.Pool.QueryRow(ctx, query, email).Scan(&exists)
	return exists, err
}

func (db *Postgres) Save(ctx context.Context, user *model.User) (*model.User, error) {
	query := `
		INSERT INTO users (
			username, email, password_hash, first_name, last_name,
			enabled, account_non_locked, account_non_expired, credentials_non_expired,
			created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING ` + userColumns + `
	`
	saved, err := scanUser(db.Pool.QueryRow(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Enabled,
		user.AccountNonLocked,
		user.AccountNonExpired,
		user.CredentialsNonExpired,
	))
	if err != nil {
		if constraint, ok := isUniqueViolation(err); ok {
			if strings.Contains(constraint, "email") {
				return nil, ErrDuplicateEmail
			}
			return nil, ErrDuplicateUsername
		}
		return nil, err
	}
	return saved, nil
}

func (db *Postgres) UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error {
	query := `
		UPDATE users
		SET last_login = $2
		WHERE id = $1
	`
	_, err := db.Pool.Exec(ctx, query, userID, at)
	return err
}
