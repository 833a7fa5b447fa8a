package timesheet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const upsertDetailSQL = `
    INSERT INTO generated_timesheet (
      iqama_number, employee_name, client_number, month,
      basic_salary, total_salary,
      working_days, absent_hours, overtime_hours, incentive, penalty, etmam_cost,
      overtime_pay, deductions, adjusted_salary, total_cost, vat, net_cost,
      generated_by, edited_by
    ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$19)
    ON CONFLICT (iqama_number, client_number, month) DO UPDATE SET
      employee_name = EXCLUDED.employee_name,
      basic_salary = EXCLUDED.basic_salary,
      total_salary = EXCLUDED.total_salary,
      working_days = EXCLUDED.working_days,
      absent_hours = EXCLUDED.absent_hours,
      overtime_hours = EXCLUDED.overtime_hours,
      incentive = EXCLUDED.incentive,
      penalty = EXCLUDED.penalty,
      etmam_cost = EXCLUDED.etmam_cost,
      overtime_pay = EXCLUDED.overtime_pay,
      deductions = EXCLUDED.deductions,
      adjusted_salary = EXCLUDED.adjusted_salary,
      total_cost = EXCLUDED.total_cost,
      vat = EXCLUDED.vat,
      net_cost = EXCLUDED.net_cost,
      edited_by = EXCLUDED.edited_by,
      updated_at = now()`

// aggregateSummarySQL recomputes one (client, month) summary from the current
// detail rows. Insert keeps status draft; conflict updates totals and leaves
// the workflow status untouched.
const aggregateSummarySQL = `
    INSERT INTO generated_timesheet_summary (
      client_number, client_name, month,
      adjusted_salary_sum, etmam_cost_sum, vat_sum, grand_total,
      employee_count, working_days_sum, status, generated_by, edited_by
    )
    SELECT
      d.client_number, $3, d.month,
      COALESCE(SUM(d.adjusted_salary), 0),
      COALESCE(SUM(d.etmam_cost), 0),
      COALESCE(SUM(d.vat), 0),
      ROUND(COALESCE(SUM(d.total_cost), 0) * (1 + $4::numeric), 2),
      COUNT(1),
      COALESCE(SUM(d.working_days), 0),
      '` + StatusDraft + `', $5, $5
    FROM generated_timesheet d
    WHERE d.client_number = $1 AND d.month = $2
    GROUP BY d.client_number, d.month
    ON CONFLICT (client_number, month) DO UPDATE SET
      client_name = EXCLUDED.client_name,
      adjusted_salary_sum = EXCLUDED.adjusted_salary_sum,
      etmam_cost_sum = EXCLUDED.etmam_cost_sum,
      vat_sum = EXCLUDED.vat_sum,
      grand_total = EXCLUDED.grand_total,
      employee_count = EXCLUDED.employee_count,
      working_days_sum = EXCLUDED.working_days_sum,
      edited_by = EXCLUDED.edited_by,
      updated_at = now()`

// SaveGenerated upserts the computed detail rows in fixed-size batches and
// refreshes the monthly summary, all inside one transaction so a failed
// aggregation rolls the detail rows back as well.
func (s *Store) SaveGenerated(ctx context.Context, clientNumber, clientName string, month time.Time, rows []DetailRow, actorEmail string) (Summary, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Summary{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for start := 0; start < len(rows); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(rows) {
			end = len(rows)
		}

		batch := &pgx.Batch{}
		for _, row := range rows[start:end] {
			batch.Queue(upsertDetailSQL,
				row.IqamaNumber, row.EmployeeName, clientNumber, month,
				row.BasicSalary, row.TotalSalary,
				row.WorkingDays, row.AbsentHours, row.OvertimeHours,
				row.Incentive, row.Penalty, row.EtmamCost,
				row.OvertimePay, row.Deductions, row.AdjustedSalary,
				row.TotalCost, row.VAT, row.NetCost,
				actorEmail)
		}
		results := tx.SendBatch(ctx, batch)
		for range rows[start:end] {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return Summary{}, fmt.Errorf("detail upsert failed: %w", err)
			}
		}
		if err := results.Close(); err != nil {
			return Summary{}, err
		}
	}

	if _, err := tx.Exec(ctx, aggregateSummarySQL, clientNumber, month, clientName, VATRate, actorEmail); err != nil {
		return Summary{}, fmt.Errorf("summary aggregation failed: %w", err)
	}

	summary, err := getSummary(ctx, tx, clientNumber, month)
	if err != nil {
		return Summary{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Summary{}, err
	}
	return summary, nil
}

const summaryColumns = `
    id, client_number, client_name, month,
    adjusted_salary_sum, etmam_cost_sum, vat_sum, grand_total,
    employee_count, working_days_sum, status,
    COALESCE(approved_by, ''), approved_at, COALESCE(revision_reason, ''),
    generated_by, edited_by, created_at, updated_at`

func scanSummary(row pgx.Row) (Summary, error) {
	var summary Summary
	err := row.Scan(&summary.ID, &summary.ClientNumber, &summary.ClientName, &summary.Month,
		&summary.AdjustedSalarySum, &summary.EtmamCostSum, &summary.VATSum, &summary.GrandTotal,
		&summary.EmployeeCount, &summary.WorkingDaysSum, &summary.Status,
		&summary.ApprovedBy, &summary.ApprovedAt, &summary.RevisionReason,
		&summary.GeneratedBy, &summary.EditedBy, &summary.CreatedAt, &summary.UpdatedAt)
	return summary, err
}

type queryer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getSummary(ctx context.Context, q queryer, clientNumber string, month time.Time) (Summary, error) {
	summary, err := scanSummary(q.QueryRow(ctx,
		"SELECT "+summaryColumns+" FROM generated_timesheet_summary WHERE client_number = $1 AND month = $2",
		clientNumber, month))
	if errors.Is(err, pgx.ErrNoRows) {
		return Summary{}, ErrSummaryNotFound
	}
	return summary, err
}

func (s *Store) GetSummary(ctx context.Context, clientNumber string, month time.Time) (Summary, error) {
	return getSummary(ctx, s.DB, clientNumber, month)
}

func (s *Store) CountSummaries(ctx context.Context, filter SummaryFilter) (int, error) {
	query, args := buildSummaryFilter("SELECT COUNT(1) FROM generated_timesheet_summary WHERE 1=1", filter)
	var total int
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) ListSummaries(ctx context.Context, filter SummaryFilter, limit, offset int) ([]Summary, error) {
	query, args := buildSummaryFilter("SELECT "+summaryColumns+" FROM generated_timesheet_summary WHERE 1=1", filter)
	query += fmt.Sprintf(" ORDER BY month DESC, client_number LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func buildSummaryFilter(prefix string, filter SummaryFilter) (string, []any) {
	query := prefix
	var args []any
	if filter.ClientNumber != "" {
		query += fmt.Sprintf(" AND client_number = $%d", len(args)+1)
		args = append(args, filter.ClientNumber)
	}
	if filter.Month != nil {
		query += fmt.Sprintf(" AND month = $%d", len(args)+1)
		args = append(args, *filter.Month)
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, filter.Status)
	}
	return query, args
}

const detailColumns = `
    id, iqama_number, employee_name, client_number, month,
    basic_salary, total_salary,
    working_days, absent_hours, overtime_hours, incentive, penalty, etmam_cost,
    overtime_pay, deductions, adjusted_salary, total_cost, vat, net_cost,
    generated_by, edited_by, created_at, updated_at`

func scanDetail(row pgx.Row) (DetailRow, error) {
	var d DetailRow
	err := row.Scan(&d.ID, &d.IqamaNumber, &d.EmployeeName, &d.ClientNumber, &d.Month,
		&d.BasicSalary, &d.TotalSalary,
		&d.WorkingDays, &d.AbsentHours, &d.OvertimeHours, &d.Incentive, &d.Penalty, &d.EtmamCost,
		&d.OvertimePay, &d.Deductions, &d.AdjustedSalary, &d.TotalCost, &d.VAT, &d.NetCost,
		&d.GeneratedBy, &d.EditedBy, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

func (s *Store) CountDetails(ctx context.Context, clientNumber string, month time.Time) (int, error) {
	var total int
	err := s.DB.QueryRow(ctx,
		"SELECT COUNT(1) FROM generated_timesheet WHERE client_number = $1 AND month = $2",
		clientNumber, month).Scan(&total)
	return total, err
}

func (s *Store) ListDetails(ctx context.Context, clientNumber string, month time.Time, limit, offset int) ([]DetailRow, error) {
	rows, err := s.DB.Query(ctx,
		"SELECT "+detailColumns+` FROM generated_timesheet
     WHERE client_number = $1 AND month = $2
     ORDER BY employee_name
     LIMIT $3 OFFSET $4`,
		clientNumber, month, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var details []DetailRow
	for rows.Next() {
		detail, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		details = append(details, detail)
	}
	return details, nil
}

func (s *Store) AllDetails(ctx context.Context, clientNumber string, month time.Time) ([]DetailRow, error) {
	rows, err := s.DB.Query(ctx,
		"SELECT "+detailColumns+` FROM generated_timesheet
     WHERE client_number = $1 AND month = $2
     ORDER BY employee_name`,
		clientNumber, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var details []DetailRow
	for rows.Next() {
		detail, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		details = append(details, detail)
	}
	return details, nil
}

// Transition performs one guarded status change as a single conditional
// update scoped by (client, month, expected prior status). This compare-and-
// swap is the only concurrency control the workflow needs: a concurrent caller
// losing the race sees zero rows affected and gets a state conflict.
func (s *Store) Transition(ctx context.Context, clientNumber string, month time.Time, action, actorEmail, reason string) (Summary, error) {
	from, to, err := TransitionFor(action)
	if err != nil {
		return Summary{}, err
	}

	var tagQuery string
	args := []any{to, actorEmail, clientNumber, month, from}
	switch action {
	case ActionApprove:
		tagQuery = `
      UPDATE generated_timesheet_summary
      SET status = $1, approved_by = $2, approved_at = now(),
          edited_by = $2, updated_at = now()
      WHERE client_number = $3 AND month = $4 AND status = $5`
	case ActionRequestRevision:
		tagQuery = `
      UPDATE generated_timesheet_summary
      SET status = $1, revision_reason = $6,
          approved_by = NULL, approved_at = NULL,
          edited_by = $2, updated_at = now()
      WHERE client_number = $3 AND month = $4 AND status = $5`
		args = append(args, reason)
	case ActionResubmit:
		tagQuery = `
      UPDATE generated_timesheet_summary
      SET status = $1, revision_reason = NULL,
          edited_by = $2, updated_at = now()
      WHERE client_number = $3 AND month = $4 AND status = $5`
	default:
		tagQuery = `
      UPDATE generated_timesheet_summary
      SET status = $1, edited_by = $2, updated_at = now()
      WHERE client_number = $3 AND month = $4 AND status = $5`
	}

	tag, err := s.DB.Exec(ctx, tagQuery, args...)
	if err != nil {
		return Summary{}, err
	}
	if tag.RowsAffected() == 0 {
		// Wrong state and missing row both land here; surface which one so the
		// caller can answer 404 vs 409 consistently across every transition.
		current, err := getSummary(ctx, s.DB, clientNumber, month)
		if err != nil {
			return Summary{}, err
		}
		return Summary{}, fmt.Errorf("%w: status is %s, expected %s", ErrStateConflict, current.Status, from)
	}

	return getSummary(ctx, s.DB, clientNumber, month)
}
