package recruithandler

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
	"etmam/internal/domain/recruit"
	"etmam/internal/platform/requestctx"
	"etmam/internal/transport/http/api"
	"etmam/internal/transport/http/middleware"
	"etmam/internal/transport/http/shared"
)

type Handler struct {
	Store *recruit.Store
	Audit *audit.Service
}

func NewHandler(db *pgxpool.Pool, auditSvc *audit.Service) *Handler {
	return &Handler{Store: recruit.NewStore(db), Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/jobs", func(r chi.Router) {
		// Public career-site endpoints.
		r.Get("/open", h.HandleOpenJobs)
		r.Post("/{id}/apply", h.HandleApply)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(auth.RecruitRoles...))
			r.Use(middleware.RequireSection(auth.SectionJobs))
			r.Get("/", h.HandleListJobs)
			r.Post("/", h.HandleCreateJob)
			r.Get("/{id}", h.HandleGetJob)
			r.Patch("/{id}/status", h.HandleJobStatus)
			r.Delete("/{id}", h.HandleDeleteJob)
			r.Get("/{id}/applicants", h.HandleListApplicants)
		})
	})

	r.Route("/applicants", func(r chi.Router) {
		r.Use(middleware.RequireRole(auth.RecruitRoles...))
		r.Use(middleware.RequireSection(auth.SectionJobs))
		r.Get("/", h.HandleListAllApplicants)
		r.Patch("/{id}/status", h.HandleApplicantStatus)
	})
}

func (h *Handler) HandleOpenJobs(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 25, 100)

	total, err := h.Store.CountJobs(r.Context(), recruit.JobStatusOpen)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_error", "failed to list jobs", requestID)
		return
	}
	jobs, err := h.Store.ListJobs(r.Context(), recruit.JobStatusOpen, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_error", "failed to list jobs", requestID)
		return
	}
	api.Success(w, shared.ListPayload(jobs, total, page), requestID)
}

type applyRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Mobile    string `json:"mobile"`
	ResumeURL string `json:"resumeUrl"`
}

// HandleApply is unauthenticated: candidates apply from the public site.
// Applications are only accepted against open postings.
func (h *Handler) HandleApply(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	jobID := chi.URLParam(r, "id")

	var payload applyRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	v.Required("email", payload.Email, "email is required")
	v.Email("email", payload.Email)
	if v.Reject(w, requestID) {
		return
	}

	job, err := h.Store.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, recruit.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "job posting not found", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "apply_error", "failed to submit application", requestID)
		return
	}
	if job.Status != recruit.JobStatusOpen {
		api.Fail(w, http.StatusConflict, "job_closed", "this posting is no longer accepting applications", requestID)
		return
	}

	id, err := h.Store.CreateApplicant(r.Context(), recruit.Applicant{
		JobID:     jobID,
		Name:      strings.TrimSpace(payload.Name),
		Email:     strings.ToLower(strings.TrimSpace(payload.Email)),
		Mobile:    strings.TrimSpace(payload.Mobile),
		ResumeURL: strings.TrimSpace(payload.ResumeURL),
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "apply_error", "failed to submit application", requestID)
		return
	}

	api.Created(w, map[string]string{"id": id, "status": recruit.ApplicantStatusReceived}, requestID)
}

func (h *Handler) HandleListJobs(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 25, 100)
	status := r.URL.Query().Get("status")

	total, err := h.Store.CountJobs(r.Context(), status)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_error", "failed to list jobs", requestID)
		return
	}
	jobs, err := h.Store.ListJobs(r.Context(), status, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_error", "failed to list jobs", requestID)
		return
	}
	api.Success(w, shared.ListPayload(jobs, total, page), requestID)
}

func (h *Handler) HandleCreateJob(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	var job recruit.Job
	if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("title", job.Title, "title is required")
	v.Required("description", job.Description, "description is required")
	if v.Reject(w, requestID) {
		return
	}

	job.CreatedBy = actor.Email
	id, err := h.Store.CreateJob(r.Context(), job)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "create_error", "failed to create job posting", requestID)
		return
	}

	h.recordAudit(r, actor.Email, "job.create", "job", id, nil)
	api.Created(w, map[string]string{"id": id, "status": recruit.JobStatusOpen}, requestID)
}

func (h *Handler) HandleGetJob(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	job, err := h.Store.GetJob(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, recruit.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "job posting not found", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "get_error", "failed to load job posting", requestID)
		return
	}
	api.Success(w, job, requestID)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) HandleJobStatus(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	var payload statusRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	status := strings.ToLower(strings.TrimSpace(payload.Status))
	if status != recruit.JobStatusOpen && status != recruit.JobStatusClosed {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "status must be open or closed", requestID)
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.Store.UpdateJobStatus(r.Context(), id, status, actor.Email); err != nil {
		if errors.Is(err, recruit.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "job posting not found", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "update_error", "failed to update job posting", requestID)
		return
	}

	h.recordAudit(r, actor.Email, "job.status", "job", id, map[string]string{"status": status})
	api.Success(w, map[string]string{"id": id, "status": status}, requestID)
}

func (h *Handler) HandleDeleteJob(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.Store.SoftDeleteJob(r.Context(), id, actor.Email); err != nil {
		if errors.Is(err, recruit.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "job posting not found", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "delete_error", "failed to delete job posting", requestID)
		return
	}

	h.recordAudit(r, actor.Email, "job.delete", "job", id, nil)
	api.Success(w, map[string]string{"id": id, "status": "deleted"}, requestID)
}

func (h *Handler) HandleListApplicants(w http.ResponseWriter, r *http.Request) {
	h.listApplicants(w, r, chi.URLParam(r, "id"))
}

func (h *Handler) HandleListAllApplicants(w http.ResponseWriter, r *http.Request) {
	h.listApplicants(w, r, "")
}

func (h *Handler) listApplicants(w http.ResponseWriter, r *http.Request, jobID string) {
	requestID := requestctx.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 25, 100)
	status := r.URL.Query().Get("status")

	total, err := h.Store.CountApplicants(r.Context(), jobID, status)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_error", "failed to list applicants", requestID)
		return
	}
	applicants, err := h.Store.ListApplicants(r.Context(), jobID, status, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_error", "failed to list applicants", requestID)
		return
	}
	api.Success(w, shared.ListPayload(applicants, total, page), requestID)
}

func (h *Handler) HandleApplicantStatus(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	var payload statusRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	status := strings.ToLower(strings.TrimSpace(payload.Status))
	valid := false
	for _, candidate := range recruit.ApplicantStatuses {
		if status == candidate {
			valid = true
			break
		}
	}
	if !valid {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "unknown applicant status: "+payload.Status, requestID)
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.Store.UpdateApplicantStatus(r.Context(), id, status, actor.Email); err != nil {
		if errors.Is(err, recruit.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "applicant not found", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "update_error", "failed to update applicant", requestID)
		return
	}

	h.recordAudit(r, actor.Email, "applicant.status", "applicant", id, map[string]string{"status": status})
	api.Success(w, map[string]string{"id": id, "status": status}, requestID)
}

func (h *Handler) recordAudit(r *http.Request, actorEmail, action, entityType, entityID string, detail any) {
	err := h.Audit.Record(r.Context(), actorEmail, action, entityType, entityID,
		requestctx.GetRequestID(r.Context()), shared.ClientIP(r), detail)
	if err != nil {
		slog.Warn("audit write failed", "action", action, "err", err)
	}
}
