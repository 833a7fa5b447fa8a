package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/xuri/excelize/v2"

	"etmam/internal/platform/config"
	"etmam/internal/platform/db"
)

// newTestPool connects to the database named by TEST_DATABASE_URL, applies the
// migrations and wipes the tables the journey touches. Without the variable
// the test is skipped so the unit suite stays database-free.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.Migrate(ctx, pool, "../../../migrations"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	_, err = pool.Exec(ctx, `
    TRUNCATE employees, generated_timesheet, generated_timesheet_summary,
      allowed_emails, users, password_resets, logs, notifications CASCADE`)
	if err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return pool
}

func testConfig() config.Config {
	return config.Config{
		TokenSecret:        "journey-test-secret",
		TokenTTL:           time.Hour,
		MaxBodyBytes:       1 << 20,
		MaxUploadBytes:     5 << 20,
		RateLimitPerMinute: 1000,
		MetricsEnabled:     true,
		EmailFrom:          "no-reply@etmam.local",
		FinanceInboxEmail:  "finance@etmam.sa",
		OperationsInbox:    "operations@etmam.sa",
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func doJSON(t *testing.T, ts *httptest.Server, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("%s %s: decode response: %v", method, path, err)
	}
	return resp.StatusCode, env
}

func registerAndLogin(t *testing.T, ts *httptest.Server, pool *pgxpool.Pool, email, role string, sections []string) string {
	t.Helper()
	_, err := pool.Exec(context.Background(), `
    INSERT INTO allowed_emails (email, role, allowed_sections, is_active, created_by)
    VALUES ($1, $2, $3, TRUE, 'journey-test')`, email, role, sections)
	if err != nil {
		t.Fatalf("allow %s: %v", email, err)
	}

	status, env := doJSON(t, ts, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":    email,
		"name":     "Journey " + role,
		"password": "journey-password",
	})
	if status != http.StatusCreated {
		t.Fatalf("register %s: status %d, env %+v", email, status, env)
	}

	status, env = doJSON(t, ts, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": "journey-password",
	})
	if status != http.StatusOK {
		t.Fatalf("login %s: status %d, env %+v", email, status, env)
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Token == "" {
		t.Fatalf("login %s: no token in %s", email, env.Data)
	}
	return data.Token
}

func uploadWorkbook(t *testing.T, ts *httptest.Server, token, clientNumber string, rows [][]any) (int, envelope) {
	t.Helper()
	file := excelize.NewFile()
	sheet := file.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := file.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("sheet row: %v", err)
		}
	}
	workbook, err := file.WriteToBuffer()
	if err != nil {
		t.Fatalf("workbook: %v", err)
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	_ = form.WriteField("clientNumber", clientNumber)
	_ = form.WriteField("year", "2025")
	_ = form.WriteField("month", "7")
	part, err := form.CreateFormFile("file", "july.xlsx")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if _, err := io.Copy(part, workbook); err != nil {
		t.Fatalf("copy workbook: %v", err)
	}
	_ = form.Close()

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/v1/timesheets/upload", &body)
	if err != nil {
		t.Fatalf("upload request: %v", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("upload decode: %v", err)
	}
	return resp.StatusCode, env
}

// TestTimesheetJourney walks one client month end to end against a real
// database: register and log in, create an employee, upload the workbook,
// then move the summary draft -> pending -> approved with the role checks on.
func TestTimesheetJourney(t *testing.T) {
	pool := newTestPool(t)
	ts := httptest.NewServer(New(testConfig(), pool))
	defer ts.Close()

	opsToken := registerAndLogin(t, ts, pool, "ops@etmam.sa", "operations", []string{"employees", "timesheets"})
	finToken := registerAndLogin(t, ts, pool, "fin@etmam.sa", "finance", []string{"timesheets"})

	status, env := doJSON(t, ts, http.MethodPost, "/api/v1/employees", opsToken, map[string]any{
		"iqamaNumber":  "2234567890",
		"name":         "Ahmed Ali",
		"nationality":  "Indian",
		"clientNumber": "C-100",
		"clientName":   "Alpha Trading",
		"basicSalary":  3000,
		"housingAllowance":   map[string]any{"type": "fixed", "value": 500},
		"transportAllowance": map[string]any{"type": "fixed", "value": 300},
	})
	if status != http.StatusCreated {
		t.Fatalf("create employee: status %d, env %+v", status, env)
	}

	status, env = uploadWorkbook(t, ts, opsToken, "C-100", [][]any{
		{"Iqama Number", "Working Days", "OT Hours", "Absent Hrs"},
		{"2234567890", 30, 10, 0},
	})
	if status != http.StatusCreated {
		t.Fatalf("upload: status %d, env %+v", status, env)
	}

	monthPath := "/api/v1/timesheets/C-100/2025/7"
	status, env = doJSON(t, ts, http.MethodGet, monthPath, opsToken, nil)
	if status != http.StatusOK {
		t.Fatalf("detail: status %d, env %+v", status, env)
	}
	var detail struct {
		Summary struct {
			Status        string  `json:"status"`
			EmployeeCount int     `json:"employeeCount"`
			GrandTotal    float64 `json:"grandTotal"`
		} `json:"summary"`
		Rows []struct {
			OvertimeHours float64   `json:"overtimeHours"`
			GeneratedBy   string    `json:"generatedBy"`
			EditedBy      string    `json:"editedBy"`
			CreatedAt     time.Time `json:"createdAt"`
			UpdatedAt     time.Time `json:"updatedAt"`
		} `json:"rows"`
		Meta struct {
			Total int `json:"total"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(env.Data, &detail); err != nil {
		t.Fatalf("detail decode: %v", err)
	}
	if detail.Summary.Status != "draft" || detail.Summary.EmployeeCount != 1 {
		t.Fatalf("expected fresh draft with 1 employee, got %+v", detail.Summary)
	}
	if detail.Summary.GrandTotal <= 0 {
		t.Fatalf("expected computed grand total, got %v", detail.Summary.GrandTotal)
	}
	if len(detail.Rows) != 1 || detail.Meta.Total != 1 {
		t.Fatalf("expected exactly one detail row, got %d (total %d)", len(detail.Rows), detail.Meta.Total)
	}
	firstRow := detail.Rows[0]
	if firstRow.GeneratedBy != "ops@etmam.sa" || firstRow.EditedBy != "ops@etmam.sa" {
		t.Fatalf("expected uploader stamped on fresh row, got %+v", firstRow)
	}

	// Re-uploading the same client month by another submitter must not grow the
	// row set: the row keeps its original generator and creation time while the
	// edit attribution moves to the new actor.
	adminToken := registerAndLogin(t, ts, pool, "admin@etmam.sa", "admin", []string{"employees", "timesheets"})
	status, env = uploadWorkbook(t, ts, adminToken, "C-100", [][]any{
		{"Iqama Number", "Working Days", "OT Hours", "Absent Hrs"},
		{"2234567890", 30, 12, 0},
	})
	if status != http.StatusCreated {
		t.Fatalf("re-upload: status %d, env %+v", status, env)
	}

	status, env = doJSON(t, ts, http.MethodGet, monthPath, opsToken, nil)
	if status != http.StatusOK {
		t.Fatalf("detail after re-upload: status %d", status)
	}
	if err := json.Unmarshal(env.Data, &detail); err != nil {
		t.Fatalf("detail decode: %v", err)
	}
	if len(detail.Rows) != 1 || detail.Meta.Total != 1 {
		t.Fatalf("expected re-upload to upsert, got %d rows (total %d)", len(detail.Rows), detail.Meta.Total)
	}
	row := detail.Rows[0]
	if row.OvertimeHours != 12 {
		t.Fatalf("expected re-uploaded adjustments applied, got %+v", row)
	}
	if row.GeneratedBy != "ops@etmam.sa" {
		t.Fatalf("expected original generator preserved, got %q", row.GeneratedBy)
	}
	if row.EditedBy != "admin@etmam.sa" {
		t.Fatalf("expected edit attribution moved to re-uploader, got %q", row.EditedBy)
	}
	if !row.CreatedAt.Equal(firstRow.CreatedAt) {
		t.Fatalf("expected creation time preserved, got %v then %v", firstRow.CreatedAt, row.CreatedAt)
	}
	if row.UpdatedAt.Before(firstRow.UpdatedAt) {
		t.Fatalf("expected update time refreshed, got %v then %v", firstRow.UpdatedAt, row.UpdatedAt)
	}
	if detail.Summary.Status != "draft" {
		t.Fatalf("expected summary still draft after re-upload, got %q", detail.Summary.Status)
	}

	// Finance cannot submit and operations cannot approve.
	if status, _ = doJSON(t, ts, http.MethodPost, monthPath+"/submit", finToken, nil); status != http.StatusForbidden {
		t.Fatalf("finance submit: expected 403, got %d", status)
	}
	if status, env = doJSON(t, ts, http.MethodPost, monthPath+"/submit", opsToken, nil); status != http.StatusOK {
		t.Fatalf("submit: status %d, env %+v", status, env)
	}
	if status, _ = doJSON(t, ts, http.MethodPost, monthPath+"/approve", opsToken, nil); status != http.StatusForbidden {
		t.Fatalf("operations approve: expected 403, got %d", status)
	}
	if status, env = doJSON(t, ts, http.MethodPost, monthPath+"/approve", finToken, nil); status != http.StatusOK {
		t.Fatalf("approve: status %d, env %+v", status, env)
	}

	// Approving an already-approved month is a state conflict.
	if status, _ = doJSON(t, ts, http.MethodPost, monthPath+"/approve", finToken, nil); status != http.StatusConflict {
		t.Fatalf("double approve: expected 409, got %d", status)
	}

	status, env = doJSON(t, ts, http.MethodGet, monthPath, finToken, nil)
	if status != http.StatusOK {
		t.Fatalf("detail after approve: status %d", status)
	}
	if err := json.Unmarshal(env.Data, &detail); err != nil {
		t.Fatalf("detail decode: %v", err)
	}
	if detail.Summary.Status != "approved" {
		t.Fatalf("expected approved summary, got %q", detail.Summary.Status)
	}
}

// TestRevisionRoundTrip covers the rejection leg of the workflow: pending ->
// revision_required with a mandatory reason, then resubmit back to pending.
func TestRevisionRoundTrip(t *testing.T) {
	pool := newTestPool(t)
	ts := httptest.NewServer(New(testConfig(), pool))
	defer ts.Close()

	opsToken := registerAndLogin(t, ts, pool, "ops2@etmam.sa", "operations", []string{"employees", "timesheets"})
	finToken := registerAndLogin(t, ts, pool, "fin2@etmam.sa", "finance", []string{"timesheets"})

	status, env := doJSON(t, ts, http.MethodPost, "/api/v1/employees", opsToken, map[string]any{
		"iqamaNumber":  "2200000123",
		"name":         "Sara Khan",
		"clientNumber": "C-200",
		"clientName":   "Beta Foods",
		"basicSalary":  4500,
	})
	if status != http.StatusCreated {
		t.Fatalf("create employee: status %d, env %+v", status, env)
	}

	if status, env = uploadWorkbook(t, ts, opsToken, "C-200", [][]any{
		{"Iqama Number"},
		{"2200000123"},
	}); status != http.StatusCreated {
		t.Fatalf("upload: status %d, env %+v", status, env)
	}

	monthPath := "/api/v1/timesheets/C-200/2025/7"
	if status, env = doJSON(t, ts, http.MethodPost, monthPath+"/submit", opsToken, nil); status != http.StatusOK {
		t.Fatalf("submit: status %d, env %+v", status, env)
	}

	// Revision without a reason is rejected before touching the row.
	if status, _ = doJSON(t, ts, http.MethodPost, monthPath+"/revision", finToken, map[string]string{"reason": "  "}); status != http.StatusBadRequest {
		t.Fatalf("blank reason: expected 400, got %d", status)
	}
	if status, env = doJSON(t, ts, http.MethodPost, monthPath+"/revision", finToken, map[string]string{"reason": "overtime hours look wrong"}); status != http.StatusOK {
		t.Fatalf("revision: status %d, env %+v", status, env)
	}

	var summary struct {
		Status         string `json:"status"`
		RevisionReason string `json:"revisionReason"`
	}
	if err := json.Unmarshal(env.Data, &summary); err != nil {
		t.Fatalf("revision decode: %v", err)
	}
	if summary.Status != "revision_required" || summary.RevisionReason != "overtime hours look wrong" {
		t.Fatalf("unexpected summary after revision: %+v", summary)
	}

	if status, env = doJSON(t, ts, http.MethodPost, monthPath+"/resubmit", opsToken, nil); status != http.StatusOK {
		t.Fatalf("resubmit: status %d, env %+v", status, env)
	}
	if err := json.Unmarshal(env.Data, &summary); err != nil {
		t.Fatalf("resubmit decode: %v", err)
	}
	if summary.Status != "pending" {
		t.Fatalf("expected pending after resubmit, got %q", summary.Status)
	}
}
