package repo

import (
	"context"

	"github.com/google/uuid"
)

const userColumns = `id, username, display_name, password_hash, role, created_at`

// GetUserByUsername loads an account by its login name.
func (q *Queries) GetUserByUsername(ctx context.Context, username string) (User, error) {
	var u User
	err := q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username).
		Scan(&u.ID, &u.Username, &u.DisplayName, &u.PasswordHash, &u.Role, &u.CreatedAt)
	return u, err
}

// GetUserByID loads an account by id.
func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	var u User
	err := q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Username, &u.DisplayName, &u.PasswordHash, &u.Role, &u.CreatedAt)
	return u, err
}

// CreateUserParams carries fields for account creation.
type CreateUserParams struct {
	Username     string
	DisplayName  string
	PasswordHash string
	Role         string
}

// CreateUser inserts an account and returns the stored row.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	var u User
	err := q.db.QueryRow(ctx, `
		INSERT INTO users (username, display_name, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		arg.Username, arg.DisplayName, arg.PasswordHash, arg.Role).
		Scan(&u.ID, &u.Username, &u.DisplayName, &u.PasswordHash, &u.Role, &u.CreatedAt)
	return u, err
}
