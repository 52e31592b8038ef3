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

const approvalLinkColumns = `id, content_id, client_id, token, status, issued_at, expires_at, resolved_at,
	COALESCE(client_comment, ''), COALESCE(client_display_name, ''), previous_content_status`

func scanApprovalLink(row pgx.Row) (*models.ApprovalLink, error) {
	var l models.ApprovalLink
	var prev string
	err := row.Scan(&l.ID, &l.ContentID, &l.ClientID, &l.Token, &l.Status, &l.IssuedAt, &l.ExpiresAt, &l.ResolvedAt,
		&l.ClientComment, &l.ClientDisplayName, &prev)
	if err != nil {
		return nil, err
	}
	l.PreviousContentStatus = status.Normalize(prev)
	return &l, nil
}

// CreateApprovalLink stores a pending link and moves its content to awaitingStatus.
// The content's current status is captured into link.PreviousContentStatus.
// Returns ErrDuplicateToken if the token collides, in which case nothing is written.
func (d *DB) CreateApprovalLink(ctx context.Context, link *models.ApprovalLink, awaitingStatus status.Key, actor string) error {
	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var current string
	var clientID uuid.UUID
	err = tx.QueryRow(ctx, `SELECT status, client_id FROM contents WHERE id = $1 FOR UPDATE`, link.ContentID).Scan(&current, &clientID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrContentNotFound
	}
	if err != nil {
		return err
	}
	if clientID != link.ClientID {
		return ErrContentClientMismatch
	}
	link.PreviousContentStatus = status.Normalize(current)
	link.Status = models.LinkPending

	err = tx.QueryRow(ctx, `
		INSERT INTO approval_links (content_id, client_id, token, status, issued_at, expires_at, previous_content_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, link.ContentID, link.ClientID, link.Token, link.Status, link.IssuedAt, link.ExpiresAt, string(link.PreviousContentStatus)).Scan(&link.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateToken
		}
		return fmt.Errorf("failed to insert approval link: %w", err)
	}

	if link.PreviousContentStatus != awaitingStatus {
		_, err = tx.Exec(ctx, `
			UPDATE contents SET status = $2, position = `+nextPositionSQL("$2")+`, updated_at = $3
			WHERE id = $1
		`, link.ContentID, string(awaitingStatus), link.IssuedAt)
		if err != nil {
			return err
		}
	}

	err = insertAudit(ctx, tx, models.AuditEntry{
		ContentID: link.ContentID,
		LinkID:    &link.ID,
		Action:    models.AuditLinkIssued,
		Actor:     actor,
		Detail: map[string]any{
			"previous_status": string(link.PreviousContentStatus),
			"expires_at":      link.ExpiresAt.UTC().Format(time.RFC3339),
		},
	}, link.IssuedAt)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// GetApprovalLinkByToken retrieves a link by its token, whatever its status.
func (d *DB) GetApprovalLinkByToken(ctx context.Context, token string) (*models.ApprovalLink, error) {
	l, err := scanApprovalLink(d.Pool.QueryRow(ctx, `SELECT `+approvalLinkColumns+` FROM approval_links WHERE token = $1`, token))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrApprovalLinkNotFound
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

// ListApprovalLinksByContent returns the links issued for a content, newest first.
func (d *DB) ListApprovalLinksByContent(ctx context.Context, contentID uuid.UUID) ([]models.ApprovalLink, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT `+approvalLinkColumns+` FROM approval_links
		WHERE content_id = $1
		ORDER BY issued_at DESC
	`, contentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := []models.ApprovalLink{}
	for rows.Next() {
		l, err := scanApprovalLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, *l)
	}
	return links, rows.Err()
}

// ResolveParams describes one client decision on an approval link.
type ResolveParams struct {
	Token         string
	Decision      string // models.LinkApproved or models.LinkChangesRequested
	Comment       string
	DisplayName   string
	ContentStatus status.Key // status the content moves to
	Now           time.Time
}

// ResolveApprovalLink applies a client decision as one unit: the link's
// pending→terminal transition, the content status change and the audit entry
// commit together or not at all.
//
// The link transition is a compare-and-swap on (token, status = pending,
// not expired). Only the first caller matches; every later caller gets
// ErrApprovalLinkAlreadyUsed and the stored decision is left untouched.
func (d *DB) ResolveApprovalLink(ctx context.Context, p ResolveParams) (*models.ApprovalLink, *models.Content, error) {
	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	link, err := scanApprovalLink(tx.QueryRow(ctx, `
		UPDATE approval_links
		SET status = $2, client_comment = NULLIF($3::text, ''), client_display_name = NULLIF($4::text, ''), resolved_at = $5
		WHERE token = $1 AND status = 'pending' AND expires_at >= $5
		RETURNING `+approvalLinkColumns,
		p.Token, p.Decision, p.Comment, p.DisplayName, p.Now))
	if errors.Is(err, pgx.ErrNoRows) {
		tx.Rollback(ctx)
		return nil, nil, d.unresolvableReason(ctx, p.Token, p.Now)
	}
	if err != nil {
		return nil, nil, err
	}

	// The comment stays on the card until a later link resolves as approved.
	var cardComment any
	if p.Decision == models.LinkChangesRequested {
		cardComment = p.Comment
	}

	content, err := scanContent(tx.QueryRow(ctx, `
		UPDATE contents
		SET status = $2, approval_comment = $3, position = `+nextPositionSQL("$2")+`, updated_at = $4
		WHERE id = $1
		RETURNING `+contentColumns,
		link.ContentID, string(p.ContentStatus), cardComment, p.Now))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, ErrContentNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	actor := p.DisplayName
	if actor == "" {
		actor = "client"
	}
	err = insertAudit(ctx, tx, models.AuditEntry{
		ContentID: link.ContentID,
		LinkID:    &link.ID,
		Action:    models.AuditLinkResolved,
		Actor:     actor,
		Detail: map[string]any{
			"decision":        p.Decision,
			"comment":         p.Comment,
			"previous_status": string(link.PreviousContentStatus),
			"status":          string(p.ContentStatus),
		},
	}, p.Now)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return link, content, nil
}

// unresolvableReason classifies a failed compare-and-swap. Expiry wins over
// the stored status.
func (d *DB) unresolvableReason(ctx context.Context, token string, now time.Time) error {
	link, err := d.GetApprovalLinkByToken(ctx, token)
	if err != nil {
		return err
	}
	if link.IsExpired(now) {
		return ErrApprovalLinkExpired
	}
	return ErrApprovalLinkAlreadyUsed
}
