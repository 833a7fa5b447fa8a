package employee

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound       = errors.New("employee not found")
	ErrDuplicateIqama = errors.New("iqama number already registered")
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const employeeColumns = `
    id, iqama_number, name, nationality, COALESCE(passport_number, ''), passport_expiry,
    client_number, client_name, basic_salary,
    housing_type, housing_value, transport_type, transport_value, food_type, food_value,
    other_allowance, total_salary, status, inactive_date, COALESCE(status_remark, ''),
    created_by, edited_by, created_at, updated_at`

func scanEmployee(row pgx.Row) (Employee, error) {
	var emp Employee
	err := row.Scan(&emp.ID, &emp.IqamaNumber, &emp.Name, &emp.Nationality,
		&emp.PassportNumber, &emp.PassportExpiry,
		&emp.ClientNumber, &emp.ClientName, &emp.BasicSalary,
		&emp.Housing.Type, &emp.Housing.Value,
		&emp.Transport.Type, &emp.Transport.Value,
		&emp.Food.Type, &emp.Food.Value,
		&emp.OtherAllowance, &emp.TotalSalary, &emp.Status,
		&emp.InactiveDate, &emp.StatusRemark,
		&emp.CreatedBy, &emp.EditedBy, &emp.CreatedAt, &emp.UpdatedAt)
	return emp, err
}

func (s *Store) Count(ctx context.Context, filter ListFilter) (int, error) {
	query, args := buildFilter("SELECT COUNT(1) FROM employees WHERE is_deleted = FALSE", filter)
	var total int
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) List(ctx context.Context, filter ListFilter, limit, offset int) ([]Employee, error) {
	query, args := buildFilter("SELECT "+employeeColumns+" FROM employees WHERE is_deleted = FALSE", filter)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	return employees, nil
}

func buildFilter(prefix string, filter ListFilter) (string, []any) {
	query := prefix
	var args []any
	if filter.Search != "" {
		query += fmt.Sprintf(" AND (name ILIKE $%d OR iqama_number ILIKE $%d)", len(args)+1, len(args)+1)
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.ClientNumber != "" {
		query += fmt.Sprintf(" AND client_number = $%d", len(args)+1)
		args = append(args, filter.ClientNumber)
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, filter.Status)
	}
	return query, args
}

func (s *Store) Get(ctx context.Context, id string) (Employee, error) {
	emp, err := scanEmployee(s.DB.QueryRow(ctx,
		"SELECT "+employeeColumns+" FROM employees WHERE id = $1 AND is_deleted = FALSE", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrNotFound
	}
	return emp, err
}

func (s *Store) GetByIqama(ctx context.Context, iqama string) (Employee, error) {
	emp, err := scanEmployee(s.DB.QueryRow(ctx,
		"SELECT "+employeeColumns+" FROM employees WHERE iqama_number = $1 AND is_deleted = FALSE", iqama))
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrNotFound
	}
	return emp, err
}

func (s *Store) Create(ctx context.Context, emp Employee) (string, error) {
	emp.TotalSalary = TotalSalary(emp)
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO employees (
      iqama_number, name, nationality, passport_number, passport_expiry,
      client_number, client_name, basic_salary,
      housing_type, housing_value, transport_type, transport_value, food_type, food_value,
      other_allowance, total_salary, status, created_by, edited_by
    ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$18)
    RETURNING id
  `, emp.IqamaNumber, emp.Name, emp.Nationality, nullIfEmpty(emp.PassportNumber), emp.PassportExpiry,
		emp.ClientNumber, emp.ClientName, emp.BasicSalary,
		allowanceType(emp.Housing), emp.Housing.Value,
		allowanceType(emp.Transport), emp.Transport.Value,
		allowanceType(emp.Food), emp.Food.Value,
		emp.OtherAllowance, emp.TotalSalary, StatusActive, emp.CreatedBy).Scan(&id)
	if isUniqueViolation(err) {
		return "", ErrDuplicateIqama
	}
	return id, err
}

// CreateBatch inserts imported employees in one transaction: either the whole
// sheet lands or none of it does.
func (s *Store) CreateBatch(ctx context.Context, employees []Employee) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, emp := range employees {
		emp.TotalSalary = TotalSalary(emp)
		if _, err := tx.Exec(ctx, `
      INSERT INTO employees (
        iqama_number, name, nationality, passport_number, passport_expiry,
        client_number, client_name, basic_salary,
        housing_type, housing_value, transport_type, transport_value, food_type, food_value,
        other_allowance, total_salary, status, created_by, edited_by
      ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$18)
    `, emp.IqamaNumber, emp.Name, emp.Nationality, nullIfEmpty(emp.PassportNumber), emp.PassportExpiry,
			emp.ClientNumber, emp.ClientName, emp.BasicSalary,
			allowanceType(emp.Housing), emp.Housing.Value,
			allowanceType(emp.Transport), emp.Transport.Value,
			allowanceType(emp.Food), emp.Food.Value,
			emp.OtherAllowance, emp.TotalSalary, StatusActive, emp.CreatedBy); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %s", ErrDuplicateIqama, emp.IqamaNumber)
			}
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) Update(ctx context.Context, id, editedBy string, params UpdateParams) (Employee, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return Employee{}, err
	}

	applyUpdate(&current, params)
	current.TotalSalary = TotalSalary(current)

	tag, err := s.DB.Exec(ctx, `
    UPDATE employees SET
      name = $1, nationality = $2, passport_number = $3, passport_expiry = $4,
      client_number = $5, client_name = $6, basic_salary = $7,
      housing_type = $8, housing_value = $9,
      transport_type = $10, transport_value = $11,
      food_type = $12, food_value = $13,
      other_allowance = $14, total_salary = $15,
      edited_by = $16, updated_at = now()
    WHERE id = $17 AND is_deleted = FALSE
  `, current.Name, current.Nationality, nullIfEmpty(current.PassportNumber), current.PassportExpiry,
		current.ClientNumber, current.ClientName, current.BasicSalary,
		allowanceType(current.Housing), current.Housing.Value,
		allowanceType(current.Transport), current.Transport.Value,
		allowanceType(current.Food), current.Food.Value,
		current.OtherAllowance, current.TotalSalary, editedBy, id)
	if err != nil {
		return Employee{}, err
	}
	if tag.RowsAffected() == 0 {
		return Employee{}, ErrNotFound
	}
	return current, nil
}

func applyUpdate(emp *Employee, params UpdateParams) {
	if params.Name != nil {
		emp.Name = *params.Name
	}
	if params.Nationality != nil {
		emp.Nationality = *params.Nationality
	}
	if params.PassportNumber != nil {
		emp.PassportNumber = *params.PassportNumber
	}
	if params.PassportExpiry != nil {
		emp.PassportExpiry = params.PassportExpiry
	}
	if params.ClientNumber != nil {
		emp.ClientNumber = *params.ClientNumber
	}
	if params.ClientName != nil {
		emp.ClientName = *params.ClientName
	}
	if params.BasicSalary != nil {
		emp.BasicSalary = *params.BasicSalary
	}
	if params.Housing != nil {
		emp.Housing = *params.Housing
	}
	if params.Transport != nil {
		emp.Transport = *params.Transport
	}
	if params.Food != nil {
		emp.Food = *params.Food
	}
	if params.OtherAllowance != nil {
		emp.OtherAllowance = *params.OtherAllowance
	}
}

func (s *Store) SetStatus(ctx context.Context, id, status string, inactiveDate *time.Time, remark, editedBy string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE employees SET
      status = $1, inactive_date = $2, status_remark = $3,
      edited_by = $4, updated_at = now()
    WHERE id = $5 AND is_deleted = FALSE
  `, status, inactiveDate, nullIfEmpty(remark), editedBy, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SoftDelete(ctx context.Context, id, editedBy string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE employees SET is_deleted = TRUE, edited_by = $1, updated_at = now()
    WHERE id = $2 AND is_deleted = FALSE
  `, editedBy, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func allowanceType(a Allowance) string {
	if a.Type == AllowancePercentage {
		return AllowancePercentage
	}
	return AllowanceFixed
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
