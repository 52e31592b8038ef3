package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"contentboard/internal/models"
	"contentboard/internal/status"
)

const contentColumns = `id, client_id, title, status, assignee_id, scheduled_at, channels, content_type,
	priority, position, source_request_id, COALESCE(approval_comment, ''), created_at, updated_at`

// scanContent reads a content row. Stored status strings go through
// status.Normalize so legacy values never leave the repository unmapped.
func scanContent(row pgx.Row) (*models.Content, error) {
	var c models.Content
	var rawStatus string
	err := row.Scan(
		&c.ID, &c.ClientID, &c.Title, &rawStatus, &c.AssigneeID, &c.ScheduledAt, &c.Channels, &c.ContentType,
		&c.Priority, &c.Order, &c.SourceRequestID, &c.ApprovalComment, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Status = status.Normalize(rawStatus)
	if c.Channels == nil {
		c.Channels = []string{}
	}
	return &c, nil
}

// CreateContent inserts a content at the end of its status column.
func (d *DB) CreateContent(ctx context.Context, c *models.Content) error {
	c.Status = status.Normalize(string(c.Status))
	if c.Priority == "" {
		c.Priority = models.PriorityNormal
	}
	if c.Channels == nil {
		c.Channels = []string{}
	}

	query := `
		INSERT INTO contents (client_id, title, status, assignee_id, scheduled_at, channels, content_type, priority, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, ` + nextPositionSQL("$3") + `)
		RETURNING id, position, created_at, updated_at
	`
	err := d.Pool.QueryRow(ctx, query,
		c.ClientID, c.Title, string(c.Status), c.AssigneeID, c.ScheduledAt, c.Channels, c.ContentType, c.Priority,
	).Scan(&c.ID, &c.Order, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if ref := missingReference(err); ref != nil {
			return ref
		}
		return fmt.Errorf("failed to create content: %w", err)
	}
	return nil
}

// missingReference maps a foreign key violation on contents to the sentinel of
// the missing row, or returns nil.
func missingReference(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != foreignKeyViolation {
		return nil
	}
	switch pgErr.ConstraintName {
	case "contents_assignee_id_fkey":
		return ErrUserNotFound
	case "contents_client_id_fkey":
		return ErrClientNotFound
	}
	return nil
}

// GetContentByID retrieves a content by ID.
func (d *DB) GetContentByID(ctx context.Context, id uuid.UUID) (*models.Content, error) {
	c, err := scanContent(d.Pool.QueryRow(ctx, `SELECT `+contentColumns+` FROM contents WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrContentNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetContentBySourceRequest retrieves the content converted from a request.
func (d *DB) GetContentBySourceRequest(ctx context.Context, requestID uuid.UUID) (*models.Content, error) {
	return getContentBySourceRequest(ctx, d.Pool, requestID)
}

func getContentBySourceRequest(ctx context.Context, q queryRower, requestID uuid.UUID) (*models.Content, error) {
	c, err := scanContent(q.QueryRow(ctx, `SELECT `+contentColumns+` FROM contents WHERE source_request_id = $1`, requestID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrContentNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListContents returns contents matching the filter, ordered by column position.
func (d *DB) ListContents(ctx context.Context, filter models.ContentFilter) ([]models.Content, error) {
	var where []string
	var args []any
	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		where = append(where, fmt.Sprintf("client_id = $%d", len(args)))
	}

	query := `SELECT ` + contentColumns + ` FROM contents`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY position ASC, created_at ASC`

	rows, err := d.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contents := []models.Content{}
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		// Filtered after normalization so legacy rows land in their column.
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		contents = append(contents, *c)
	}
	return contents, rows.Err()
}

// UpdateContent updates the editable fields of a content. Status and position
// have their own operations.
func (d *DB) UpdateContent(ctx context.Context, c *models.Content) error {
	if c.Channels == nil {
		c.Channels = []string{}
	}
	err := d.Pool.QueryRow(ctx, `
		UPDATE contents
		SET title = $2, assignee_id = $3, scheduled_at = $4, channels = $5, content_type = $6, priority = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, c.ID, c.Title, c.AssigneeID, c.ScheduledAt, c.Channels, c.ContentType, c.Priority).Scan(&c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrContentNotFound
	}
	if ref := missingReference(err); ref != nil {
		return ref
	}
	return err
}

// UpdateContentStatus moves a content to the end of another status column and
// records the move. Concurrent moves of the same content are last-write-wins.
func (d *DB) UpdateContentStatus(ctx context.Context, id uuid.UUID, to status.Key, actor string, now time.Time) (*models.Content, error) {
	if !status.Valid(to) {
		return nil, fmt.Errorf("unregistered status %q", to)
	}

	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var from string
	err = tx.QueryRow(ctx, `SELECT status FROM contents WHERE id = $1`, id).Scan(&from)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrContentNotFound
	}
	if err != nil {
		return nil, err
	}

	c, err := scanContent(tx.QueryRow(ctx, `
		UPDATE contents
		SET status = $2, position = `+nextPositionSQL("$2")+`, updated_at = $3
		WHERE id = $1
		RETURNING `+contentColumns, id, string(to), now))
	if err != nil {
		return nil, err
	}

	err = insertAudit(ctx, tx, models.AuditEntry{
		ContentID: id,
		Action:    models.AuditContentMoved,
		Actor:     actor,
		Detail:    map[string]any{"from": string(status.Normalize(from)), "to": string(to)},
	}, now)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateContentPosition sets the intra-column sort order of a content.
func (d *DB) UpdateContentPosition(ctx context.Context, id uuid.UUID, position int) error {
	result, err := d.Pool.Exec(ctx, `UPDATE contents SET position = $2, updated_at = NOW() WHERE id = $1`, id, position)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrContentNotFound
	}
	return nil
}

// DeleteContent deletes a content and, by cascade, its links and history.
func (d *DB) DeleteContent(ctx context.Context, id uuid.UUID) error {
	result, err := d.Pool.Exec(ctx, `DELETE FROM contents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrContentNotFound
	}
	return nil
}

// CountContentsByStatus returns the number of contents per board column.
func (d *DB) CountContentsByStatus(ctx context.Context) (map[status.Key]int64, error) {
	rows, err := d.Pool.Query(ctx, `SELECT status, COUNT(*) FROM contents GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[status.Key]int64)
	for rows.Next() {
		var raw string
		var n int64
		if err := rows.Scan(&raw, &n); err != nil {
			return nil, err
		}
		counts[status.Normalize(raw)] += n
	}
	return counts, rows.Err()
}
