package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"contentboard/internal/models"
	"contentboard/internal/status"
)

const requestColumns = `id, client_id, title, description, content_type, priority, status, converted_content_id, created_at, updated_at`

// openRequestStatuses is the SQL list of pre-conversion request states.
const openRequestStatuses = `('new', 'under_review', 'approved')`

func scanRequest(row pgx.Row) (*models.Request, error) {
	var r models.Request
	err := row.Scan(&r.ID, &r.ClientID, &r.Title, &r.Description, &r.ContentType, &r.Priority, &r.Status,
		&r.ConvertedContentID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateRequest inserts a new request with status "new".
func (d *DB) CreateRequest(ctx context.Context, r *models.Request) error {
	if r.Priority == "" {
		r.Priority = models.PriorityNormal
	}
	err := d.Pool.QueryRow(ctx, `
		INSERT INTO requests (client_id, title, description, content_type, priority)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, status, created_at, updated_at
	`, r.ClientID, r.Title, r.Description, r.ContentType, r.Priority).Scan(&r.ID, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return ErrClientNotFound
		}
		return fmt.Errorf("failed to create request: %w", err)
	}
	return nil
}

// GetRequestByID retrieves a request by ID.
func (d *DB) GetRequestByID(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	r, err := scanRequest(d.Pool.QueryRow(ctx, `SELECT `+requestColumns+` FROM requests WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ListRequests returns requests newest first. openOnly limits the result to
// the states shown on the board.
func (d *DB) ListRequests(ctx context.Context, clientID *uuid.UUID, openOnly bool) ([]models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE ($1::uuid IS NULL OR client_id = $1)`
	if openOnly {
		query += ` AND status IN ` + openRequestStatuses
	}
	query += ` ORDER BY created_at DESC`

	rows, err := d.Pool.Query(ctx, query, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := []models.Request{}
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *r)
	}
	return requests, rows.Err()
}

// UpdateRequestStatus moves an open request to another open state or to
// rejected. Converted is only reachable through ConvertRequest.
func (d *DB) UpdateRequestStatus(ctx context.Context, id uuid.UUID, newStatus string) error {
	if newStatus == models.RequestConverted || !models.IsValidRequestStatus(newStatus) {
		return fmt.Errorf("invalid request status %q", newStatus)
	}

	result, err := d.Pool.Exec(ctx, `
		UPDATE requests SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status IN `+openRequestStatuses, id, newStatus)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		if _, err := d.GetRequestByID(ctx, id); err != nil {
			return err
		}
		return ErrRequestAlreadyProcessed
	}
	return nil
}

// ConvertRequest turns an open request into a content in one transaction.
//
// The request row is claimed with a conditional update that only succeeds while
// it is still open, so concurrent calls serialize on the row lock and exactly
// one of them inserts the content. Later calls get the already linked content
// back with created == false.
func (d *DB) ConvertRequest(ctx context.Context, id uuid.UUID, initial status.Key, actor string, now time.Time) (content *models.Content, created bool, err error) {
	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback(ctx)

	var req models.Request
	err = tx.QueryRow(ctx, `
		UPDATE requests SET status = $2, updated_at = $3
		WHERE id = $1 AND status IN `+openRequestStatuses+`
		RETURNING client_id, title, content_type, priority
	`, id, models.RequestConverted, now).Scan(&req.ClientID, &req.Title, &req.ContentType, &req.Priority)
	if errors.Is(err, pgx.ErrNoRows) {
		tx.Rollback(ctx)
		content, err := d.existingConversion(ctx, id)
		return content, false, err
	}
	if err != nil {
		return nil, false, err
	}

	content, err = scanContent(tx.QueryRow(ctx, `
		INSERT INTO contents (client_id, title, status, content_type, priority, source_request_id, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, `+nextPositionSQL("$3")+`, $7, $7)
		RETURNING `+contentColumns,
		req.ClientID, req.Title, string(initial), req.ContentType, req.Priority, id, now))
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert converted content: %w", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE requests SET converted_content_id = $2 WHERE id = $1`, id, content.ID); err != nil {
		return nil, false, err
	}

	err = insertAudit(ctx, tx, models.AuditEntry{
		ContentID: content.ID,
		Action:    models.AuditRequestConverted,
		Actor:     actor,
		Detail:    map[string]any{"request_id": id.String(), "status": string(initial)},
	}, now)
	if err != nil {
		return nil, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}
	return content, true, nil
}

// existingConversion explains why a request could not be claimed.
func (d *DB) existingConversion(ctx context.Context, id uuid.UUID) (*models.Content, error) {
	req, err := d.GetRequestByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != models.RequestConverted {
		return nil, ErrRequestAlreadyProcessed
	}
	content, err := d.GetContentBySourceRequest(ctx, id)
	if errors.Is(err, ErrContentNotFound) {
		// Converted, but the content was deleted since.
		return nil, ErrRequestAlreadyProcessed
	}
	return content, err
}
