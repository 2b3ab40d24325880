package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/AnshRaj112/contacts-backend/internal/database"
	"github.com/AnshRaj112/contacts-backend/internal/models"
)

const (
	ConstraintUsername = "uq_users_username"
	ConstraintEmail    = "uq_users_email"
)

const userColumns = `id, username, email, password, confirmed, avatar, role, created_at`

type UserRepository struct {
	db database.DBTX
}

func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	var avatar sql.NullString
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Confirmed, &avatar, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	if avatar.Valid {
		u.Avatar = &avatar.String
	}
	return u, nil
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// Create inserts u and fills in the generated columns. A unique violation is
// returned as *DuplicateError.
func (r *UserRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (username, email, password, avatar, role)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, confirmed, created_at`

	err := r.db.QueryRowContext(ctx, query, u.Username, u.Email, u.PasswordHash, u.Avatar, u.Role).
		Scan(&u.ID, &u.Confirmed, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", asDuplicate(err))
	}
	return u, nil
}

// SetConfirmed marks the account with the given email confirmed and returns
// its username.
func (r *UserRepository) SetConfirmed(ctx context.Context, email string) (string, error) {
	return r.updateReturningUsername(ctx,
		`UPDATE users SET confirmed = TRUE WHERE email = $1 RETURNING username`, email)
}

func (r *UserRepository) SetPasswordHash(ctx context.Context, username, hash string) error {
	_, err := r.updateReturningUsername(ctx,
		`UPDATE users SET password = $2 WHERE username = $1 RETURNING username`, username, hash)
	return err
}

// SetAvatar stores the avatar url for the account with the given email and
// returns the updated account.
func (r *UserRepository) SetAvatar(ctx context.Context, email, url string) (*models.User, error) {
	query := `UPDATE users SET avatar = $2 WHERE email = $1 RETURNING ` + userColumns
	u, err := scanUser(r.db.QueryRowContext(ctx, query, email, url))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *UserRepository) SetRole(ctx context.Context, username string, role models.Role) (*models.User, error) {
	query := `UPDATE users SET role = $2 WHERE username = $1 RETURNING ` + userColumns
	u, err := scanUser(r.db.QueryRowContext(ctx, query, username, role))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

// Delete removes the account. Its contacts go with it (ON DELETE CASCADE).
func (r *UserRepository) Delete(ctx context.Context, username string) error {
	_, err := r.updateReturningUsername(ctx, `DELETE FROM users WHERE username = $1 RETURNING username`, username)
	return err
}

func (r *UserRepository) List(ctx context.Context, skip, limit int) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id OFFSET $1 LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return users, nil
}

func (r *UserRepository) updateReturningUsername(ctx context.Context, query string, args ...any) (string, error) {
	var username string
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return username, nil
}
