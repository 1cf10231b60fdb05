package repository

import (
	"context"

	"github.com/senyabanana/bid-award/internal/models"

	"github.com/jackc/pgx/v5"
)

const notificationColumns = `id, user_id, type, title, message, link, read, created_at`

// ListNotifications returns the user's notifications, newest first.
func (s *PostgresStore) ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]models.Notification, error) {
	query := `SELECT ` + notificationColumns + `
	          FROM notification
	          WHERE user_id = $1 AND ($2::boolean = false OR read = false)
	          ORDER BY created_at DESC, id
	          LIMIT $3 OFFSET $4`

	rows, err := s.DB.Query(ctx, query, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, notFoundOnBadID(err)
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		notification, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, *notification)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkNotificationRead sets the read flag on a notification addressed to userID.
func (s *PostgresStore) MarkNotificationRead(ctx context.Context, notificationID, userID string) (*models.Notification, error) {
	query := `UPDATE notification SET read = true
	          WHERE id = $1 AND user_id = $2
	          RETURNING ` + notificationColumns

	notification, err := scanNotification(s.DB.QueryRow(ctx, query, notificationID, userID))
	if err != nil {
		return nil, notFoundOnBadID(err)
	}
	return notification, nil
}

func scanNotification(row pgx.Row) (*models.Notification, error) {
	var notification models.Notification
	if err := row.Scan(
		&notification.ID,
		&notification.UserID,
		&notification.Type,
		&notification.Title,
		&notification.Message,
		&notification.Link,
		&notification.Read,
		&notification.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &notification, nil
}
