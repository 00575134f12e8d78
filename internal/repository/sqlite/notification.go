package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/cookbook/internal/apperror"
	"github.com/sakif/cookbook/internal/model"
	"github.com/sakif/cookbook/internal/repository"
)

var _ repository.NotificationRepository = (*NotificationDB)(nil)

type NotificationDB struct {
	conn *sql.DB
}

// Create stores an unread notification for n.UserID.
func (d *NotificationDB) Create(ctx context.Context, n *model.Notification) error {
	n.ID = xid.New().String()
	n.SentAt = time.Now().UTC()
	n.IsRead = false

	_, err := d.conn.ExecContext(ctx,
		`INSERT INTO notifications (id, user_id, message, is_read, sent_at) VALUES (?, ?, ?, 0, ?)`,
		n.ID, n.UserID, n.Message, n.SentAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating notification: %w", err)
	}
	return nil
}

func (d *NotificationDB) GetByID(ctx context.Context, id string) (*model.Notification, error) {
	n, err := scanNotification(d.conn.QueryRowContext(ctx,
		`SELECT id, user_id, message, is_read, sent_at FROM notifications WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("notification", id)
		}
		return nil, fmt.Errorf("sqlite: getting notification %s: %w", id, err)
	}
	return n, nil
}

// ListByUser returns a user's notifications, newest first.
func (d *NotificationDB) ListByUser(ctx context.Context, userID string) ([]model.Notification, error) {
	rows, err := d.conn.QueryContext(ctx,
		`SELECT id, user_id, message, is_read, sent_at FROM notifications
		 WHERE user_id = ? ORDER BY sent_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing notifications: %w", err)
	}
	defer rows.Close()

	out := []model.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning notification: %w", err)
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

func (d *NotificationDB) CountUnread(ctx context.Context, userID string) (int, error) {
	var n int
	err := d.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = 0`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting unread notifications: %w", err)
	}
	return n, nil
}

func (d *NotificationDB) MarkRead(ctx context.Context, id string) error {
	res, err := d.conn.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: marking notification %s read: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("notification", id)
	}
	return nil
}

// MarkAllRead flags every unread notification of userID and returns how many changed.
func (d *NotificationDB) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res, err := d.conn.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0`, userID)
	if err != nil {
		return 0, fmt.Errorf("sqlite: marking notifications read: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (d *NotificationDB) Delete(ctx context.Context, id string) error {
	res, err := d.conn.ExecContext(ctx, `DELETE FROM notifications WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting notification %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("notification", id)
	}
	return nil
}

func scanNotification(s scanner) (*model.Notification, error) {
	var n model.Notification
	if err := s.Scan(&n.ID, &n.UserID, &n.Message, &n.IsRead, &n.SentAt); err != nil {
		return nil, err
	}
	return &n, nil
}
