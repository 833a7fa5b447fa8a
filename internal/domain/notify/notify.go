package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Mailer delivers a notification email. Implementations must be safe to call
// with email delivery disabled (noop).
type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type Notification struct {
	ID        string    `json:"id"`
	UserEmail string    `json:"userEmail"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

type Service struct {
	DB     *pgxpool.Pool
	Mailer Mailer
	From   string
}

func New(db *pgxpool.Pool, mailer Mailer, from string) *Service {
	return &Service{DB: db, Mailer: mailer, From: from}
}

// Notify stores an in-app notification and sends the email copy best effort.
// Mail failures are logged and never fail the triggering request.
func (s *Service) Notify(ctx context.Context, userEmail, title, body string) error {
	if userEmail == "" {
		return nil
	}
	if _, err := s.DB.Exec(ctx, `
    INSERT INTO notifications (user_email, title, body)
    VALUES ($1, $2, $3)
  `, userEmail, title, body); err != nil {
		return err
	}

	if s.Mailer != nil {
		if err := s.Mailer.Send(ctx, s.From, userEmail, title, body); err != nil {
			slog.Warn("notification email failed", "to", userEmail, "err", err)
		}
	}
	return nil
}

func (s *Service) Count(ctx context.Context, userEmail string, unreadOnly bool) (int, error) {
	query := "SELECT COUNT(1) FROM notifications WHERE user_email = $1"
	if unreadOnly {
		query += " AND is_read = FALSE"
	}
	var total int
	err := s.DB.QueryRow(ctx, query, userEmail).Scan(&total)
	return total, err
}

func (s *Service) List(ctx context.Context, userEmail string, unreadOnly bool, limit, offset int) ([]Notification, error) {
	query := `
    SELECT id, user_email, title, body, is_read, created_at
    FROM notifications
    WHERE user_email = $1`
	if unreadOnly {
		query += " AND is_read = FALSE"
	}
	query += " ORDER BY created_at DESC LIMIT $2 OFFSET $3"
	rows, err := s.DB.Query(ctx, query, userEmail, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserEmail, &n.Title, &n.Body, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func (s *Service) MarkRead(ctx context.Context, id, userEmail string) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE notifications SET is_read = TRUE
    WHERE id = $1 AND user_email = $2
  `, id, userEmail)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
