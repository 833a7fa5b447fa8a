package timesheetshandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"etmam/internal/domain/audit"
	"etmam/internal/domain/auth"
	"etmam/internal/domain/employee"
	"etmam/internal/domain/notify"
	"etmam/internal/domain/timesheet"
	"etmam/internal/platform/metrics"
	"etmam/internal/platform/requestctx"
	"etmam/internal/transport/http/api"
	"etmam/internal/transport/http/middleware"
	"etmam/internal/transport/http/shared"
)

type Handler struct {
	Store           *timesheet.Store
	Service         *timesheet.Service
	Audit           *audit.Service
	Notifier        *notify.Service
	Metrics         *metrics.Collector
	FinanceInbox    string
	OperationsInbox string
	MaxUploadBytes  int64
}

func NewHandler(db *pgxpool.Pool, auditSvc *audit.Service, notifier *notify.Service, collector *metrics.Collector, financeInbox, operationsInbox string, maxUploadBytes int64) *Handler {
	store := timesheet.NewStore(db)
	return &Handler{
		Store:           store,
		Service:         timesheet.NewService(store, employee.NewStore(db)),
		Audit:           auditSvc,
		Notifier:        notifier,
		Metrics:         collector,
		FinanceInbox:    financeInbox,
		OperationsInbox: operationsInbox,
		MaxUploadBytes:  maxUploadBytes,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/timesheets", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Use(middleware.RequireSection(auth.SectionTimesheets))

		r.Get("/", h.HandleList)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(auth.TimesheetSubmitRoles...))
			r.Post("/upload", h.HandleUpload)
		})

		r.Route("/{client}/{year}/{month}", func(r chi.Router) {
			r.Get("/", h.HandleDetail)
			r.Get("/export", h.HandleExport)
			r.Get("/export/pdf", h.HandleExportPDF)
			r.Post("/submit", h.transitionHandler(timesheet.ActionSubmit))
			r.Post("/approve", h.transitionHandler(timesheet.ActionApprove))
			r.Post("/revision", h.transitionHandler(timesheet.ActionRequestRevision))
			r.Post("/resubmit", h.transitionHandler(timesheet.ActionResubmit))
		})
	})
}

// HandleUpload runs the whole ingestion pipeline for one client month. The
// request carries the workbook plus clientNumber, year and month form fields.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_upload", "multipart form with a file field is required", requestID)
		return
	}

	clientNumber := strings.TrimSpace(r.FormValue("clientNumber"))
	year, yearErr := strconv.Atoi(r.FormValue("year"))
	month, monthErr := strconv.Atoi(r.FormValue("month"))

	v := shared.NewValidator()
	v.Required("clientNumber", clientNumber, "client number is required")
	if yearErr != nil || year < 2000 || year > 2100 {
		v.Add("year", "must be a four digit year")
	}
	if monthErr != nil || month < 1 || month > 12 {
		v.Add("month", "must be between 1 and 12")
	}
	if v.Reject(w, requestID) {
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_upload", "file field is required", requestID)
		return
	}
	defer func() { _ = file.Close() }()
	if !validWorkbookName(header.Filename) {
		api.Fail(w, http.StatusBadRequest, "invalid_upload", "only .xlsx and .xls files are accepted", requestID)
		return
	}

	result, err := h.Service.Ingest(r.Context(), actor.Email, clientNumber, year, month, file)
	if err != nil {
		var batchErr *timesheet.BatchError
		switch {
		case errors.As(err, &batchErr):
			api.FailWithDetails(w, http.StatusBadRequest, "upload_rejected", "one or more rows failed",
				map[string]any{"rows": batchErr.Rows}, requestID)
		case errors.Is(err, timesheet.ErrMissingIqamaColumn), errors.Is(err, timesheet.ErrEmptySheet):
			api.Fail(w, http.StatusBadRequest, "invalid_workbook", err.Error(), requestID)
		default:
			slog.Error("timesheet ingest failed", "client", clientNumber, "err", err, "requestId", requestID)
			api.Fail(w, http.StatusInternalServerError, "upload_error", "failed to process upload", requestID)
		}
		return
	}

	if h.Metrics != nil {
		h.Metrics.RecordUpload()
	}
	h.recordAudit(r, actor.Email, "timesheet.upload", summaryEntityID(clientNumber, result.Month),
		map[string]any{"rows": result.RowCount})
	api.Created(w, result, requestID)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 25, 100)

	filter := timesheet.SummaryFilter{
		ClientNumber: r.URL.Query().Get("client"),
		Status:       r.URL.Query().Get("status"),
	}
	if r.URL.Query().Get("year") != "" || r.URL.Query().Get("month") != "" {
		year, month, err := shared.ParseYearMonth(r)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_query", err.Error(), requestID)
			return
		}
		monthKey := timesheet.MonthOf(year, month)
		filter.Month = &monthKey
	}

	total, err := h.Store.CountSummaries(r.Context(), filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_error", "failed to list timesheets", requestID)
		return
	}
	summaries, err := h.Store.ListSummaries(r.Context(), filter, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_error", "failed to list timesheets", requestID)
		return
	}
	api.Success(w, shared.ListPayload(summaries, total, page), requestID)
}

func (h *Handler) HandleDetail(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	clientNumber, month, ok := h.pathMonth(w, r, requestID)
	if !ok {
		return
	}

	summary, err := h.Store.GetSummary(r.Context(), clientNumber, month)
	if err != nil {
		h.writeSummaryError(w, err, requestID)
		return
	}

	page := shared.ParsePagination(r, 50, 500)
	total, err := h.Store.CountDetails(r.Context(), clientNumber, month)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "detail_error", "failed to load timesheet rows", requestID)
		return
	}
	details, err := h.Store.ListDetails(r.Context(), clientNumber, month, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "detail_error", "failed to load timesheet rows", requestID)
		return
	}

	api.Success(w, map[string]any{
		"summary": summary,
		"rows":    details,
		"meta":    shared.ListMeta{Total: total, Limit: page.Limit, Offset: page.Offset},
	}, requestID)
}

type transitionRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) transitionHandler(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := requestctx.GetRequestID(r.Context())
		actor, _ := middleware.GetUser(r.Context())

		if !timesheet.RoleAllowed(action, actor.Role) {
			api.Fail(w, http.StatusForbidden, "forbidden", "insufficient role for this action", requestID)
			return
		}

		clientNumber, month, ok := h.pathMonth(w, r, requestID)
		if !ok {
			return
		}

		reason := ""
		if action == timesheet.ActionRequestRevision {
			var payload transitionRequest
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
				return
			}
			reason = strings.TrimSpace(payload.Reason)
			if reason == "" {
				api.Fail(w, http.StatusBadRequest, "invalid_payload", "a revision reason is required", requestID)
				return
			}
		}

		summary, err := h.Store.Transition(r.Context(), clientNumber, month, action, actor.Email, reason)
		if err != nil {
			switch {
			case errors.Is(err, timesheet.ErrSummaryNotFound):
				api.Fail(w, http.StatusNotFound, "not_found", "timesheet not found for this client and month", requestID)
			case errors.Is(err, timesheet.ErrStateConflict):
				api.Fail(w, http.StatusConflict, "state_conflict", err.Error(), requestID)
			case errors.Is(err, timesheet.ErrUnknownAction):
				api.Fail(w, http.StatusBadRequest, "unknown_action", "unknown workflow action", requestID)
			default:
				api.Fail(w, http.StatusInternalServerError, "transition_error", "failed to update timesheet", requestID)
			}
			return
		}

		h.recordAudit(r, actor.Email, "timesheet."+action, summaryEntityID(clientNumber, month),
			map[string]string{"status": summary.Status})
		h.notifyTransition(r, action, clientNumber, month, reason)
		api.Success(w, summary, requestID)
	}
}

// notifyTransition raises the in-app/email notification for the side of the
// workflow that has to act next. Best effort.
func (h *Handler) notifyTransition(r *http.Request, action, clientNumber string, month time.Time, reason string) {
	if h.Notifier == nil {
		return
	}
	period := month.Format("2006-01")
	var to, title, body string
	switch action {
	case timesheet.ActionSubmit, timesheet.ActionResubmit:
		to = h.FinanceInbox
		title = fmt.Sprintf("Timesheet for client %s (%s) awaiting approval", clientNumber, period)
		body = "The timesheet has been submitted for finance review."
	case timesheet.ActionRequestRevision:
		to = h.OperationsInbox
		title = fmt.Sprintf("Timesheet for client %s (%s) needs revision", clientNumber, period)
		body = "Reason: " + reason
	default:
		return
	}
	if err := h.Notifier.Notify(r.Context(), to, title, body); err != nil {
		slog.Warn("workflow notification failed", "action", action, "err", err)
	}
}

func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	clientNumber, month, ok := h.pathMonth(w, r, requestID)
	if !ok {
		return
	}

	summary, err := h.Store.GetSummary(r.Context(), clientNumber, month)
	if err != nil {
		h.writeSummaryError(w, err, requestID)
		return
	}
	details, err := h.Store.AllDetails(r.Context(), clientNumber, month)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "export_error", "failed to load timesheet rows", requestID)
		return
	}

	buf, err := timesheet.BuildWorkbook(summary, details)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "export_error", "failed to build workbook", requestID)
		return
	}

	filename := timesheet.ExportFileName(clientNumber, month.Year(), int(month.Month()))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Warn("export write failed", "err", err)
	}
}

func (h *Handler) HandleExportPDF(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	clientNumber, month, ok := h.pathMonth(w, r, requestID)
	if !ok {
		return
	}

	summary, err := h.Store.GetSummary(r.Context(), clientNumber, month)
	if err != nil {
		h.writeSummaryError(w, err, requestID)
		return
	}

	buf, err := timesheet.BuildSummaryPDF(summary)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "export_error", "failed to build pdf", requestID)
		return
	}

	filename := strings.TrimSuffix(timesheet.ExportFileName(clientNumber, month.Year(), int(month.Month())), ".xlsx") + ".pdf"
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Warn("export write failed", "err", err)
	}
}

func (h *Handler) pathMonth(w http.ResponseWriter, r *http.Request, requestID string) (string, time.Time, bool) {
	clientNumber := chi.URLParam(r, "client")
	year, yearErr := strconv.Atoi(chi.URLParam(r, "year"))
	month, monthErr := strconv.Atoi(chi.URLParam(r, "month"))
	if clientNumber == "" || yearErr != nil || monthErr != nil || month < 1 || month > 12 {
		api.Fail(w, http.StatusBadRequest, "invalid_path", "client, year and month path segments are required", requestID)
		return "", time.Time{}, false
	}
	return clientNumber, timesheet.MonthOf(year, month), true
}

func (h *Handler) writeSummaryError(w http.ResponseWriter, err error, requestID string) {
	if errors.Is(err, timesheet.ErrSummaryNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "timesheet not found for this client and month", requestID)
		return
	}
	api.Fail(w, http.StatusInternalServerError, "detail_error", "failed to load timesheet", requestID)
}

func summaryEntityID(clientNumber string, month time.Time) string {
	return clientNumber + ":" + month.Format("2006-01")
}

func validWorkbookName(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xls")
}

func (h *Handler) recordAudit(r *http.Request, actorEmail, action, entityID string, detail any) {
	err := h.Audit.Record(r.Context(), actorEmail, action, "timesheet", entityID,
		requestctx.GetRequestID(r.Context()), shared.ClientIP(r), detail)
	if err != nil {
		slog.Warn("audit write failed", "action", action, "err", err)
	}
}
