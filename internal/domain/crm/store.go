package crm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("record not found")

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const quotationSearchCols = "(client_name ILIKE $%d OR subject ILIKE $%d)"

func (s *Store) CountQuotations(ctx context.Context, filter ListFilter) (int, error) {
	query, args := buildFilter("SELECT COUNT(1) FROM quotations WHERE is_deleted = FALSE",
		quotationSearchCols, filter)
	var total int
	err := s.DB.QueryRow(ctx, query, args...).Scan(&total)
	return total, err
}

func (s *Store) ListQuotations(ctx context.Context, filter ListFilter, limit, offset int) ([]Quotation, error) {
	query, args := buildFilter(`
    SELECT id, client_name, contact_email, COALESCE(contact_phone, ''), subject, amount,
           COALESCE(notes, ''), status, created_by, edited_by, created_at, updated_at
    FROM quotations
    WHERE is_deleted = FALSE`, quotationSearchCols, filter)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Quotation
	for rows.Next() {
		var q Quotation
		if err := rows.Scan(&q.ID, &q.ClientName, &q.ContactEmail, &q.ContactPhone, &q.Subject,
			&q.Amount, &q.Notes, &q.Status, &q.CreatedBy, &q.EditedBy, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

func (s *Store) GetQuotation(ctx context.Context, id string) (Quotation, error) {
	var q Quotation
	err := s.DB.QueryRow(ctx, `
    SELECT id, client_name, contact_email, COALESCE(contact_phone, ''), subject, amount,
           COALESCE(notes, ''), status, created_by, edited_by, created_at, updated_at
    FROM quotations
    WHERE id = $1 AND is_deleted = FALSE
  `, id).Scan(&q.ID, &q.ClientName, &q.ContactEmail, &q.ContactPhone, &q.Subject,
		&q.Amount, &q.Notes, &q.Status, &q.CreatedBy, &q.EditedBy, &q.CreatedAt, &q.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Quotation{}, ErrNotFound
	}
	return q, err
}

func (s *Store) CreateQuotation(ctx context.Context, q Quotation) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO quotations (client_name, contact_email, contact_phone, subject, amount, notes, status, created_by, edited_by)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8)
    RETURNING id
  `, q.ClientName, q.ContactEmail, nullIfEmpty(q.ContactPhone), q.Subject, q.Amount,
		nullIfEmpty(q.Notes), QuotationStatusDraft, q.CreatedBy).Scan(&id)
	return id, err
}

func (s *Store) UpdateQuotation(ctx context.Context, id, editedBy string, params UpdateQuotationParams) (Quotation, error) {
	current, err := s.GetQuotation(ctx, id)
	if err != nil {
		return Quotation{}, err
	}
	if params.ClientName != nil {
		current.ClientName = *params.ClientName
	}
	if params.ContactEmail != nil {
		current.ContactEmail = *params.ContactEmail
	}
	if params.ContactPhone != nil {
		current.ContactPhone = *params.ContactPhone
	}
	if params.Subject != nil {
		current.Subject = *params.Subject
	}
	if params.Amount != nil {
		current.Amount = *params.Amount
	}
	if params.Notes != nil {
		current.Notes = *params.Notes
	}

	tag, err := s.DB.Exec(ctx, `
    UPDATE quotations SET
      client_name = $1, contact_email = $2, contact_phone = $3,
      subject = $4, amount = $5, notes = $6,
      edited_by = $7, updated_at = now()
    WHERE id = $8 AND is_deleted = FALSE
  `, current.ClientName, current.ContactEmail, nullIfEmpty(current.ContactPhone),
		current.Subject, current.Amount, nullIfEmpty(current.Notes), editedBy, id)
	if err != nil {
		return Quotation{}, err
	}
	if tag.RowsAffected() == 0 {
		return Quotation{}, ErrNotFound
	}
	current.EditedBy = editedBy
	return current, nil
}

func (s *Store) UpdateQuotationStatus(ctx context.Context, id, status, editedBy string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE quotations SET status = $1, edited_by = $2, updated_at = now()
    WHERE id = $3 AND is_deleted = FALSE
  `, status, editedBy, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SoftDeleteQuotation(ctx context.Context, id, editedBy string) error {
	return s.softDelete(ctx, "quotations", id, editedBy)
}

const enquirySearchCols = "(company_name ILIKE $%d OR contact_name ILIKE $%d OR email ILIKE $%d)"

func (s *Store) CountEnquiries(ctx context.Context, filter ListFilter) (int, error) {
	query, args := buildFilter("SELECT COUNT(1) FROM business_enquiry WHERE is_deleted = FALSE",
		enquirySearchCols, filter)
	var total int
	err := s.DB.QueryRow(ctx, query, args...).Scan(&total)
	return total, err
}

func (s *Store) ListEnquiries(ctx context.Context, filter ListFilter, limit, offset int) ([]Enquiry, error) {
	query, args := buildFilter(`
    SELECT id, company_name, contact_name, email, COALESCE(mobile, ''), message,
           status, COALESCE(edited_by, ''), created_at, updated_at
    FROM business_enquiry
    WHERE is_deleted = FALSE`, enquirySearchCols, filter)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Enquiry
	for rows.Next() {
		var e Enquiry
		if err := rows.Scan(&e.ID, &e.CompanyName, &e.ContactName, &e.Email, &e.Mobile,
			&e.Message, &e.Status, &e.EditedBy, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) GetEnquiry(ctx context.Context, id string) (Enquiry, error) {
	var e Enquiry
	err := s.DB.QueryRow(ctx, `
    SELECT id, company_name, contact_name, email, COALESCE(mobile, ''), message,
           status, COALESCE(edited_by, ''), created_at, updated_at
    FROM business_enquiry
    WHERE id = $1 AND is_deleted = FALSE
  `, id).Scan(&e.ID, &e.CompanyName, &e.ContactName, &e.Email, &e.Mobile,
		&e.Message, &e.Status, &e.EditedBy, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Enquiry{}, ErrNotFound
	}
	return e, err
}

func (s *Store) CreateEnquiry(ctx context.Context, e Enquiry) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO business_enquiry (company_name, contact_name, email, mobile, message, status)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING id
  `, e.CompanyName, e.ContactName, e.Email, nullIfEmpty(e.Mobile), e.Message, EnquiryStatusNew).Scan(&id)
	return id, err
}

func (s *Store) UpdateEnquiryStatus(ctx context.Context, id, status, editedBy string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE business_enquiry SET status = $1, edited_by = $2, updated_at = now()
    WHERE id = $3 AND is_deleted = FALSE
  `, status, editedBy, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SoftDeleteEnquiry(ctx context.Context, id, editedBy string) error {
	return s.softDelete(ctx, "business_enquiry", id, editedBy)
}

const caseSearchCols = "(subject ILIKE $%d OR COALESCE(iqama_number, '') ILIKE $%d)"

func (s *Store) CountCases(ctx context.Context, filter ListFilter) (int, error) {
	query, args := buildFilter("SELECT COUNT(1) FROM employee_request WHERE is_deleted = FALSE",
		caseSearchCols, filter)
	var total int
	err := s.DB.QueryRow(ctx, query, args...).Scan(&total)
	return total, err
}

func (s *Store) ListCases(ctx context.Context, filter ListFilter, limit, offset int) ([]Case, error) {
	query, args := buildFilter(`
    SELECT id, COALESCE(iqama_number, ''), subject, description, priority,
           status, created_by, edited_by, created_at, updated_at
    FROM employee_request
    WHERE is_deleted = FALSE`, caseSearchCols, filter)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Case
	for rows.Next() {
		var c Case
		if err := rows.Scan(&c.ID, &c.IqamaNumber, &c.Subject, &c.Description, &c.Priority,
			&c.Status, &c.CreatedBy, &c.EditedBy, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *Store) GetCase(ctx context.Context, id string) (Case, error) {
	var c Case
	err := s.DB.QueryRow(ctx, `
    SELECT id, COALESCE(iqama_number, ''), subject, description, priority,
           status, created_by, edited_by, created_at, updated_at
    FROM employee_request
    WHERE id = $1 AND is_deleted = FALSE
  `, id).Scan(&c.ID, &c.IqamaNumber, &c.Subject, &c.Description, &c.Priority,
		&c.Status, &c.CreatedBy, &c.EditedBy, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Case{}, ErrNotFound
	}
	return c, err
}

func (s *Store) UpdateCase(ctx context.Context, id, editedBy string, params UpdateCaseParams) (Case, error) {
	current, err := s.GetCase(ctx, id)
	if err != nil {
		return Case{}, err
	}
	if params.Subject != nil {
		current.Subject = *params.Subject
	}
	if params.Description != nil {
		current.Description = *params.Description
	}
	if params.Priority != nil {
		current.Priority = *params.Priority
	}

	tag, err := s.DB.Exec(ctx, `
    UPDATE employee_request SET
      subject = $1, description = $2, priority = $3,
      edited_by = $4, updated_at = now()
    WHERE id = $5 AND is_deleted = FALSE
  `, current.Subject, current.Description, current.Priority, editedBy, id)
	if err != nil {
		return Case{}, err
	}
	if tag.RowsAffected() == 0 {
		return Case{}, ErrNotFound
	}
	current.EditedBy = editedBy
	return current, nil
}

func (s *Store) CreateCase(ctx context.Context, c Case) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO employee_request (iqama_number, subject, description, priority, status, created_by, edited_by)
    VALUES ($1,$2,$3,$4,$5,$6,$6)
    RETURNING id
  `, nullIfEmpty(c.IqamaNumber), c.Subject, c.Description, c.Priority, CaseStatusOpen, c.CreatedBy).Scan(&id)
	return id, err
}

func (s *Store) UpdateCaseStatus(ctx context.Context, id, status, editedBy string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE employee_request SET status = $1, edited_by = $2, updated_at = now()
    WHERE id = $3 AND is_deleted = FALSE
  `, status, editedBy, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SoftDeleteCase(ctx context.Context, id, editedBy string) error {
	return s.softDelete(ctx, "employee_request", id, editedBy)
}

// buildFilter appends search and status predicates to a list or count query.
// searchTemplate holds one $%d placeholder per searched column; all placeholders
// bind the same pattern argument.
func buildFilter(prefix, searchTemplate string, filter ListFilter) (string, []any) {
	query := prefix
	var args []any
	if filter.Search != "" {
		placeholders := make([]any, strings.Count(searchTemplate, "%d"))
		for i := range placeholders {
			placeholders[i] = len(args) + 1
		}
		query += " AND " + fmt.Sprintf(searchTemplate, placeholders...)
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, filter.Status)
	}
	return query, args
}

func (s *Store) softDelete(ctx context.Context, table, id, editedBy string) error {
	tag, err := s.DB.Exec(ctx,
		"UPDATE "+table+" SET is_deleted = TRUE, edited_by = $1, updated_at = now() WHERE id = $2 AND is_deleted = FALSE",
		editedBy, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
