package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"contentboard/internal/models"
)

// UpsertUser creates or updates a user based on their OIDC subject.
func (d *DB) UpsertUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (sub, email, name, picture)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (sub) DO UPDATE SET
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			picture = EXCLUDED.picture,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	return d.Pool.QueryRow(ctx, query,
		user.Sub,
		user.Email,
		user.Name,
		user.Picture,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

// GetUserBySub retrieves a user by their OIDC subject identifier.
func (d *DB) GetUserBySub(ctx context.Context, sub string) (*models.User, error) {
	return d.getUser(ctx, `SELECT id, sub, email, name, picture, created_at, updated_at FROM users WHERE sub = $1`, sub)
}

// GetUserByID retrieves a user by ID.
func (d *DB) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return d.getUser(ctx, `SELECT id, sub, email, name, picture, created_at, updated_at FROM users WHERE id = $1`, id)
}

func (d *DB) getUser(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	err := d.Pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Sub,
		&user.Email,
		&user.Name,
		&user.Picture,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers returns all team members ordered by name.
func (d *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT id, sub, email, name, picture, created_at, updated_at
		FROM users ORDER BY name, email
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Sub, &u.Email, &u.Name, &u.Picture, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
