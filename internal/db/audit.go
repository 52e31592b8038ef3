package db

import (
	"context"
	"time"

	"github.com/google/uuid"

	"contentboard/internal/models"
)

func insertAudit(ctx context.Context, q execer, entry models.AuditEntry, at time.Time) error {
	detail := entry.Detail
	if detail == nil {
		detail = map[string]any{}
	}
	_, err := q.Exec(ctx, `
		INSERT INTO audit_entries (content_id, link_id, action, actor, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, entry.ContentID, entry.LinkID, entry.Action, entry.Actor, detail, at)
	return err
}

// ListAuditEntries returns the history of a content, oldest first.
func (d *DB) ListAuditEntries(ctx context.Context, contentID uuid.UUID) ([]models.AuditEntry, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT id, content_id, link_id, action, actor, detail, created_at
		FROM audit_entries
		WHERE content_id = $1
		ORDER BY created_at ASC, id ASC
	`, contentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.ContentID, &e.LinkID, &e.Action, &e.Actor, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
