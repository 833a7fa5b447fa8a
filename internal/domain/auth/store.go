package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("account not found")

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

type LoginUser struct {
	ID              string
	Email           string
	Name            string
	Role            string
	PasswordHash    string
	IsActive        bool
	AllowedActive   bool
	AllowedSections []string
}

type Account struct {
	Email           string     `json:"email"`
	Role            string     `json:"role"`
	AllowedSections []string   `json:"allowedSections"`
	IsActive        bool       `json:"isActive"`
	HasAccount      bool       `json:"hasAccount"`
	CreatedBy       string     `json:"createdBy"`
	CreatedAt       time.Time  `json:"createdAt"`
	LastLoginAt     *time.Time `json:"lastLoginAt,omitempty"`
}

func (s *Store) FindLoginUser(ctx context.Context, email string) (LoginUser, error) {
	var user LoginUser
	err := s.DB.QueryRow(ctx, `
    SELECT u.id, u.email, u.name, u.role, u.password_hash, u.is_active,
           a.is_active, a.allowed_sections
    FROM users u
    JOIN allowed_emails a ON a.email = u.email
    WHERE u.email = $1
  `, email).Scan(&user.ID, &user.Email, &user.Name, &user.Role, &user.PasswordHash,
		&user.IsActive, &user.AllowedActive, &user.AllowedSections)
	if errors.Is(err, pgx.ErrNoRows) {
		return LoginUser{}, ErrNotFound
	}
	if err != nil {
		return LoginUser{}, err
	}
	return user, nil
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET last_login_at = now() WHERE id = $1", userID)
	return err
}

func (s *Store) ListAccounts(ctx context.Context, limit, offset int) ([]Account, int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM allowed_emails").Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.DB.Query(ctx, `
    SELECT a.email, a.role, a.allowed_sections, a.is_active,
           u.id IS NOT NULL, COALESCE(a.created_by, ''), a.created_at, u.last_login_at
    FROM allowed_emails a
    LEFT JOIN users u ON u.email = a.email
    ORDER BY a.created_at DESC
    LIMIT $1 OFFSET $2
  `, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var account Account
		if err := rows.Scan(&account.Email, &account.Role, &account.AllowedSections,
			&account.IsActive, &account.HasAccount, &account.CreatedBy,
			&account.CreatedAt, &account.LastLoginAt); err != nil {
			return nil, 0, err
		}
		accounts = append(accounts, account)
	}
	return accounts, total, nil
}

type AllowedEmail struct {
	Email           string
	Role            string
	AllowedSections []string
	IsActive        bool
}

func (s *Store) FindAllowedEmail(ctx context.Context, email string) (AllowedEmail, error) {
	var allowed AllowedEmail
	err := s.DB.QueryRow(ctx, `
    SELECT email, role, allowed_sections, is_active
    FROM allowed_emails
    WHERE lower(email) = lower($1)
  `, email).Scan(&allowed.Email, &allowed.Role, &allowed.AllowedSections, &allowed.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return AllowedEmail{}, ErrNotFound
	}
	return allowed, err
}

func (s *Store) CreateAllowedEmail(ctx context.Context, email, role string, sections []string, createdBy string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO allowed_emails (email, role, allowed_sections, is_active, created_by)
    VALUES ($1, $2, $3, TRUE, $4)
  `, email, role, sections, createdBy)
	return err
}

// SetAccountActive flips the active flag on allowed_emails and users together.
// Both tables track account state and must never diverge on enable/restrict.
func (s *Store) SetAccountActive(ctx context.Context, email string, active bool) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, "UPDATE allowed_emails SET is_active = $1, updated_at = now() WHERE email = $2", active, email)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec(ctx, "UPDATE users SET is_active = $1, updated_at = now() WHERE email = $2", active, email); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *Store) RegisterUser(ctx context.Context, email, name, passwordHash, role string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO users (email, name, password_hash, role, is_active)
    VALUES ($1, $2, $3, $4, TRUE)
    RETURNING id
  `, email, name, passwordHash, role).Scan(&id)
	return id, err
}

func (s *Store) UserIDByEmail(ctx context.Context, email string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return id, err
}

func (s *Store) CreatePasswordReset(ctx context.Context, userID, tokenHash string, expires time.Time) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO password_resets (user_id, token_hash, expires_at)
    VALUES ($1, $2, $3)
  `, userID, tokenHash, expires)
	return err
}

func (s *Store) PasswordResetUserID(ctx context.Context, tokenHash string) (string, error) {
	var userID string
	err := s.DB.QueryRow(ctx, `
    SELECT user_id FROM password_resets
    WHERE token_hash = $1 AND used_at IS NULL AND expires_at > now()
  `, tokenHash).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return userID, err
}

func (s *Store) UpdateUserPassword(ctx context.Context, userID, hash string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2", hash, userID)
	return err
}

func (s *Store) MarkPasswordResetUsed(ctx context.Context, tokenHash string) error {
	_, err := s.DB.Exec(ctx, "UPDATE password_resets SET used_at = now() WHERE token_hash = $1", tokenHash)
	return err
}
