package employeeshandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"etmam/internal/domain/audit"
	"etmam/internal/domain/auth"
	"etmam/internal/domain/employee"
	"etmam/internal/platform/requestctx"
	"etmam/internal/transport/http/api"
	"etmam/internal/transport/http/middleware"
	"etmam/internal/transport/http/shared"
)

const maxImportBytes = 5 << 20

type Handler struct {
	Store *employee.Store
	Audit *audit.Service
}

func NewHandler(db *pgxpool.Pool, auditSvc *audit.Service) *Handler {
	return &Handler{Store: employee.NewStore(db), Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Use(middleware.RequireSection(auth.SectionEmployees))
		r.Get("/", h.HandleList)
		r.Get("/{id}", h.HandleGet)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(auth.EmployeeWriteRoles...))
			r.Post("/", h.HandleCreate)
			r.Post("/import", h.HandleImport)
			r.Patch("/{id}", h.HandleUpdate)
			r.Patch("/{id}/status", h.HandleSetStatus)
			r.Delete("/{id}", h.HandleDelete)
		})
	})
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 25, 100)
	filter := employee.ListFilter{
		Search:       r.URL.Query().Get("search"),
		ClientNumber: r.URL.Query().Get("client"),
		Status:       r.URL.Query().Get("status"),
	}

	total, err := h.Store.Count(r.Context(), filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_error", "failed to list employees", requestID)
		return
	}
	employees, err := h.Store.List(r.Context(), filter, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_error", "failed to list employees", requestID)
		return
	}
	api.Success(w, shared.ListPayload(employees, total, page), requestID)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	emp, err := h.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, employee.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "get_error", "failed to load employee", requestID)
		return
	}
	api.Success(w, emp, requestID)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	var emp employee.Employee
	if err := json.NewDecoder(r.Body).Decode(&emp); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("iqamaNumber", emp.IqamaNumber, "iqama number is required")
	v.Required("name", emp.Name, "name is required")
	v.Required("clientNumber", emp.ClientNumber, "client number is required")
	if emp.BasicSalary <= 0 {
		v.Add("basicSalary", "must be a positive number")
	}
	for field, allowance := range map[string]employee.Allowance{
		"housingAllowance":   emp.Housing,
		"transportAllowance": emp.Transport,
		"foodAllowance":      emp.Food,
	} {
		if allowance.Type != "" && allowance.Type != employee.AllowanceFixed && allowance.Type != employee.AllowancePercentage {
			v.Add(field, "type must be fixed or percentage")
		}
		v.Positive(field, allowance.Value, "value must not be negative")
	}
	if v.Reject(w, requestID) {
		return
	}

	emp.Status = employee.StatusActive
	emp.TotalSalary = employee.TotalSalary(emp)
	emp.CreatedBy = actor.Email
	emp.EditedBy = actor.Email

	id, err := h.Store.Create(r.Context(), emp)
	if err != nil {
		if errors.Is(err, employee.ErrDuplicateIqama) {
			api.Fail(w, http.StatusConflict, "duplicate_iqama", "iqama number already registered", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "create_error", "failed to create employee", requestID)
		return
	}

	h.recordAudit(r, actor.Email, "employee.create", id, map[string]string{"iqama": emp.IqamaNumber})
	created, err := h.Store.Get(r.Context(), id)
	if err != nil {
		api.Created(w, map[string]string{"id": id}, requestID)
		return
	}
	api.Created(w, created, requestID)
}

// HandleImport accepts a bulk workbook and inserts every row in a single
// transaction. Any bad row rejects the whole file with a row-indexed list.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	if err := r.ParseMultipartForm(maxImportBytes); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_upload", "multipart form with a file field is required", requestID)
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

	employees, err := employee.ParseImportSheet(file, actor.Email)
	if err != nil {
		var importErr *employee.ImportError
		switch {
		case errors.As(err, &importErr):
			api.FailWithDetails(w, http.StatusBadRequest, "import_rejected", "one or more rows failed",
				map[string]any{"rows": importErr.Issues}, requestID)
		case errors.Is(err, employee.ErrImportEmptySheet), errors.Is(err, employee.ErrImportMissingColumn):
			api.Fail(w, http.StatusBadRequest, "invalid_workbook", err.Error(), requestID)
		default:
			api.Fail(w, http.StatusBadRequest, "invalid_workbook", "could not read workbook", requestID)
		}
		return
	}

	if err := h.Store.CreateBatch(r.Context(), employees); err != nil {
		if errors.Is(err, employee.ErrDuplicateIqama) {
			api.Fail(w, http.StatusConflict, "duplicate_iqama", err.Error(), requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "import_error", "failed to import employees", requestID)
		return
	}

	h.recordAudit(r, actor.Email, "employee.import", "", map[string]int{"count": len(employees)})
	api.Created(w, map[string]int{"imported": len(employees)}, requestID)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	var params employee.UpdateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	updated, err := h.Store.Update(r.Context(), chi.URLParam(r, "id"), actor.Email, params)
	if err != nil {
		switch {
		case errors.Is(err, employee.ErrNotFound):
			api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
		case errors.Is(err, employee.ErrDuplicateIqama):
			api.Fail(w, http.StatusConflict, "duplicate_iqama", "iqama number already registered", requestID)
		default:
			api.Fail(w, http.StatusInternalServerError, "update_error", "failed to update employee", requestID)
		}
		return
	}

	h.recordAudit(r, actor.Email, "employee.update", updated.ID, nil)
	api.Success(w, updated, requestID)
}

type statusRequest struct {
	Status       string `json:"status"`
	InactiveDate string `json:"inactiveDate"`
	Remark       string `json:"remark"`
}

func (h *Handler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	var payload statusRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	status := strings.ToLower(strings.TrimSpace(payload.Status))
	if status != employee.StatusActive && status != employee.StatusInactive {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "status must be active or inactive", requestID)
		return
	}

	id := chi.URLParam(r, "id")
	if status == employee.StatusInactive {
		date, err := shared.ParseDate(payload.InactiveDate)
		if err != nil || date.IsZero() {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "inactiveDate is required to inactivate", requestID)
			return
		}
		if strings.TrimSpace(payload.Remark) == "" {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "remark is required to inactivate", requestID)
			return
		}
		err = h.Store.SetStatus(r.Context(), id, status, &date, strings.TrimSpace(payload.Remark), actor.Email)
		if h.writeStatusError(w, err, requestID) {
			return
		}
	} else {
		err := h.Store.SetStatus(r.Context(), id, status, nil, "", actor.Email)
		if h.writeStatusError(w, err, requestID) {
			return
		}
	}

	h.recordAudit(r, actor.Email, "employee.status", id, map[string]string{"status": status})
	api.Success(w, map[string]string{"id": id, "status": status}, requestID)
}

func (h *Handler) writeStatusError(w http.ResponseWriter, err error, requestID string) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, employee.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
		return true
	}
	api.Fail(w, http.StatusInternalServerError, "update_error", "failed to update status", requestID)
	return true
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.Store.SoftDelete(r.Context(), id, actor.Email); err != nil {
		if errors.Is(err, employee.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "delete_error", "failed to delete employee", requestID)
		return
	}

	h.recordAudit(r, actor.Email, "employee.delete", id, nil)
	api.Success(w, map[string]string{"id": id, "status": "deleted"}, requestID)
}

func validWorkbookName(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xls")
}

func (h *Handler) recordAudit(r *http.Request, actorEmail, action, entityID string, detail any) {
	err := h.Audit.Record(r.Context(), actorEmail, action, "employee", entityID,
		requestctx.GetRequestID(r.Context()), shared.ClientIP(r), detail)
	if err != nil {
		slog.Warn("audit write failed", "action", action, "err", err)
	}
}
