package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"contentboard/internal/models"
)

const clientColumns = `id, slug, name, contact_email, team_email, created_at, updated_at`

func scanClient(row pgx.Row) (*models.Client, error) {
	var c models.Client
	if err := row.Scan(&c.ID, &c.Slug, &c.Name, &c.ContactEmail, &c.TeamEmail, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetClientByID retrieves a client by ID.
func (d *DB) GetClientByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	c, err := scanClient(d.Pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrClientNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListClients returns all clients ordered by name.
func (d *DB) ListClients(ctx context.Context) ([]models.Client, error) {
	rows, err := d.Pool.Query(ctx, `SELECT `+clientColumns+` FROM clients ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []models.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, *c)
	}
	return clients, rows.Err()
}

// SyncClients upserts the configured client roster by slug. Clients missing
// from the roster are left untouched.
func (d *DB) SyncClients(ctx context.Context, clients []models.Client) error {
	if len(clients) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, c := range clients {
		batch.Queue(`
			INSERT INTO clients (slug, name, contact_email, team_email)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (slug) DO UPDATE SET
				name = EXCLUDED.name,
				contact_email = EXCLUDED.contact_email,
				team_email = EXCLUDED.team_email,
				updated_at = NOW()
		`, c.Slug, c.Name, c.ContactEmail, c.TeamEmail)
	}

	results := d.Pool.SendBatch(ctx, batch)
	defer results.Close()

	for _, c := range clients {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to sync client %s: %w", c.Slug, err)
		}
	}
	return nil
}
