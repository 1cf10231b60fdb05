package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/senyabanana/bid-award/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const (
	bidColumns     = `b.id, b.project_id, b.subcontractor_id, b.total_amount::text, b.status, b.created_at, b.updated_at`
	projectColumns = `p.id, p.title, p.status, p.created_by, p.deadline, p.awarded_bid_id, p.created_at, p.updated_at`
)

type postgresAwardTx struct {
	tx pgx.Tx
}

// GetBidWithProject loads a bid together with its project.
func (t *postgresAwardTx) GetBidWithProject(ctx context.Context, bidID string) (*models.Bid, *models.Project, error) {
	query := `SELECT ` + bidColumns + `, ` + projectColumns + `
	          FROM bid b
	          JOIN project p ON p.id = b.project_id
	          WHERE b.id = $1`

	var (
		bid     models.Bid
		project models.Project
		amount  string
	)
	err := t.tx.QueryRow(ctx, query, bidID).Scan(
		&bid.ID,
		&bid.ProjectID,
		&bid.SubcontractorID,
		&amount,
		&bid.Status,
		&bid.CreatedAt,
		&bid.UpdatedAt,
		&project.ID,
		&project.Title,
		&project.Status,
		&project.CreatedBy,
		&project.Deadline,
		&project.AwardedBidID,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		return nil, nil, notFoundOnBadID(err)
	}
	if bid.TotalAmount, err = decimal.NewFromString(amount); err != nil {
		return nil, nil, fmt.Errorf("parse total amount of bid %s: %w", bid.ID, err)
	}
	return &bid, &project, nil
}

// CompareAndSetProjectStatus changes the project status in a single conditional UPDATE.
func (t *postgresAwardTx) CompareAndSetProjectStatus(ctx context.Context, projectID, ownerID string, from, to models.ProjectStatus, awardedBidID string) (*models.Project, error) {
	query := `UPDATE project p
	          SET status = $1, awarded_bid_id = $2, updated_at = now()
	          WHERE p.id = $3 AND p.created_by = $4 AND p.status = $5
	          RETURNING ` + projectColumns

	var project models.Project
	err := t.tx.QueryRow(ctx, query, string(to), awardedBidID, projectID, ownerID, string(from)).Scan(
		&project.ID,
		&project.Title,
		&project.Status,
		&project.CreatedBy,
		&project.Deadline,
		&project.AwardedBidID,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotApplied
		}
		return nil, err
	}
	return &project, nil
}

// SetBidStatus changes the status of one bid if it is still in one of from.
func (t *postgresAwardTx) SetBidStatus(ctx context.Context, bidID, projectID string, from []models.BidStatus, to models.BidStatus) (*models.Bid, error) {
	query := `UPDATE bid b
	          SET status = $1, updated_at = now()
	          WHERE b.id = $2 AND b.project_id = $3 AND b.status = ANY($4)
	          RETURNING ` + bidColumns

	bid, err := scanBid(t.tx.QueryRow(ctx, query, string(to), bidID, projectID, pq.Array(statusStrings(from))))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotApplied
		}
		return nil, err
	}
	return bid, nil
}

// BulkSetBidStatus changes the status of every matching bid of the project in one statement.
func (t *postgresAwardTx) BulkSetBidStatus(ctx context.Context, projectID, exceptBidID string, from []models.BidStatus, to models.BidStatus) ([]models.Bid, error) {
	query := `UPDATE bid b
	          SET status = $1, updated_at = now()
	          WHERE b.project_id = $2 AND b.id <> $3 AND b.status = ANY($4)
	          RETURNING ` + bidColumns

	rows, err := t.tx.Query(ctx, query, string(to), projectID, exceptBidID, pq.Array(statusStrings(from)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bids []models.Bid
	for rows.Next() {
		bid, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		bids = append(bids, *bid)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bids, nil
}

// InsertNotifications inserts every notification with a single INSERT ... SELECT unnest.
func (t *postgresAwardTx) InsertNotifications(ctx context.Context, notifications []models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	n := len(notifications)
	ids := make([]string, 0, n)
	userIDs := make([]string, 0, n)
	types := make([]string, 0, n)
	titles := make([]string, 0, n)
	messages := make([]string, 0, n)
	links := make([]*string, 0, n)
	createdAt := make([]time.Time, 0, n)
	for _, notification := range notifications {
		ids = append(ids, notification.ID)
		userIDs = append(userIDs, notification.UserID)
		types = append(types, string(notification.Type))
		titles = append(titles, notification.Title)
		messages = append(messages, notification.Message)
		links = append(links, notification.Link)
		createdAt = append(createdAt, notification.CreatedAt)
	}

	query := `INSERT INTO notification (id, user_id, type, title, message, link, read, created_at)
	          SELECT u.id::uuid, u.user_id::uuid, u.type, u.title, u.message, u.link, false, u.created_at
	          FROM unnest($1::text[], $2::text[], $3::text[], $4::text[], $5::text[], $6::text[], $7::timestamptz[])
	               AS u(id, user_id, type, title, message, link, created_at)`

	tag, err := t.tx.Exec(ctx, query, ids, userIDs, types, titles, messages, links, createdAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != int64(n) {
		return fmt.Errorf("inserted %d of %d notifications", tag.RowsAffected(), n)
	}
	return nil
}

func scanBid(row pgx.Row) (*models.Bid, error) {
	var (
		bid    models.Bid
		amount string
	)
	if err := row.Scan(
		&bid.ID,
		&bid.ProjectID,
		&bid.SubcontractorID,
		&amount,
		&bid.Status,
		&bid.CreatedAt,
		&bid.UpdatedAt,
	); err != nil {
		return nil, err
	}
	total, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parse total amount of bid %s: %w", bid.ID, err)
	}
	bid.TotalAmount = total
	return &bid, nil
}

func statusStrings(statuses []models.BidStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}
