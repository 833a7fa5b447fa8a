package crmhandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"etmam/internal/domain/audit"
	"etmam/internal/domain/auth"
	"etmam/internal/domain/crm"
	"etmam/internal/platform/requestctx"
	"etmam/internal/transport/http/api"
	"etmam/internal/transport/http/middleware"
	"etmam/internal/transport/http/shared"
)

type Handler struct {
	Store *crm.Store
	Audit *audit.Service
}

func NewHandler(db *pgxpool.Pool, auditSvc *audit.Service) *Handler {
	return &Handler{Store: crm.NewStore(db), Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	// Public intake endpoint for the website enquiry form.
	r.Post("/enquiries", h.HandleCreateEnquiry)

	r.Route("/quotations", func(r chi.Router) {
		r.Use(middleware.RequireRole(auth.QuotationRoles...))
		r.Use(middleware.RequireSection(auth.SectionQuotations))
		r.Get("/", h.HandleListQuotations)
		r.Get("/{id}", h.HandleGetQuotation)
		r.Post("/", h.HandleCreateQuotation)
		r.Patch("/{id}", h.HandleUpdateQuotation)
		r.Patch("/{id}/status", h.HandleQuotationStatus)
		r.Delete("/{id}", h.HandleDeleteQuotation)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.With(middleware.RequireSection(auth.SectionEnquiries)).Get("/enquiries", h.HandleListEnquiries)
		r.With(middleware.RequireSection(auth.SectionEnquiries)).Get("/enquiries/{id}", h.HandleGetEnquiry)
		r.With(middleware.RequireSection(auth.SectionEnquiries)).Patch("/enquiries/{id}/status", h.HandleEnquiryStatus)
		r.With(middleware.RequireSection(auth.SectionEnquiries)).Delete("/enquiries/{id}", h.HandleDeleteEnquiry)

		r.Route("/cases", func(r chi.Router) {
			r.Use(middleware.RequireSection(auth.SectionCases))
			r.Get("/", h.HandleListCases)
			r.Get("/{id}", h.HandleGetCase)
			r.Post("/", h.HandleCreateCase)
			r.Patch("/{id}", h.HandleUpdateCase)
			r.Patch("/{id}/status", h.HandleCaseStatus)
			r.Delete("/{id}", h.HandleDeleteCase)
		})
	})
}

func (h *Handler) HandleListQuotations(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 25, 100)
	filter := crm.ListFilter{
		Status: r.URL.Query().Get("status"),
		Search: strings.TrimSpace(r.URL.Query().Get("q")),
	}

	total, err := h.Store.CountQuotations(r.Context(), filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_error", "failed to list quotations", requestID)
		return
	}
	quotations, err := h.Store.ListQuotations(r.Context(), filter, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_error", "failed to list quotations", requestID)
		return
	}
	api.Success(w, shared.ListPayload(quotations, total, page), requestID)
}

func (h *Handler) HandleGetQuotation(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	quotation, err := h.Store.GetQuotation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, crm.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "quotation not found", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "get_error", "failed to load quotation", requestID)
		return
	}
	api.Success(w, quotation, requestID)
}

func (h *Handler) HandleCreateQuotation(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	var quotation crm.Quotation
	if err := json.NewDecoder(r.Body).Decode(&quotation); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("clientName", quotation.ClientName, "client name is required")
	v.Required("subject", quotation.Subject, "subject is required")
	v.Email("contactEmail", quotation.ContactEmail)
	v.Positive("amount", quotation.Amount, "must not be negative")
	if v.Reject(w, requestID) {
		return
	}

	quotation.CreatedBy = actor.Email
	id, err := h.Store.CreateQuotation(r.Context(), quotation)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "create_error", "failed to create quotation", requestID)
		return
	}

	h.recordAudit(r, actor.Email, "quotation.create", "quotation", id, nil)
	api.Created(w, map[string]string{"id": id}, requestID)
}

func (h *Handler) HandleUpdateQuotation(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "id")

	var params crm.UpdateQuotationParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	if params.ClientName != nil {
		v.Required("clientName", *params.ClientName, "client name must not be blank")
	}
	if params.Subject != nil {
		v.Required("subject", *params.Subject, "subject must not be blank")
	}
	if params.ContactEmail != nil {
		v.Email("contactEmail", *params.ContactEmail)
	}
	if params.Amount != nil {
		v.Positive("amount", *params.Amount, "must not be negative")
	}
	if v.Reject(w, requestID) {
		return
	}

	updated, err := h.Store.UpdateQuotation(r.Context(), id, actor.Email, params)
	if err != nil {
		if errors.Is(err, crm.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "quotation not found", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "update_error", "failed to update quotation", requestID)
		return
	}

	h.recordAudit(r, actor.Email, "quotation.update", "quotation", id, nil)
	api.Success(w, updated, requestID)
}

func (h *Handler) HandleQuotationStatus(w http.ResponseWriter, r *http.Request) {
	h.updateStatus(w, r, "quotation", crm.QuotationStatuses, h.Store.UpdateQuotationStatus)
}

func (h *Handler) HandleDeleteQuotation(w http.ResponseWriter, r *http.Request) {
	h.softDelete(w, r, "quotation", h.Store.SoftDeleteQuotation)
}

// HandleCreateEnquiry is unauthenticated: it backs the public contact form.
func (h *Handler) HandleCreateEnquiry(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	var enquiry crm.Enquiry
	if err := json.NewDecoder(r.Body).Decode(&enquiry); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("companyName", enquiry.CompanyName, "company name is required")
	v.Required("contactName", enquiry.ContactName, "contact name is required")
	v.Required("email", enquiry.Email, "email is required")
	v.Email("email", enquiry.Email)
	v.Required("message", enquiry.Message, "message is required")
	if v.Reject(w, requestID) {
		return
	}

	id, err := h.Store.CreateEnquiry(r.Context(), enquiry)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "create_error", "failed to submit enquiry", requestID)
		return
	}
	api.Created(w, map[string]string{"id": id}, requestID)
}

func (h *Handler) HandleListEnquiries(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 25, 100)
	filter := crm.ListFilter{
		Status: r.URL.Query().Get("status"),
		Search: strings.TrimSpace(r.URL.Query().Get("q")),
	}

	total, err := h.Store.CountEnquiries(r.Context(), filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_error", "failed to list enquiries", requestID)
		return
	}
	enquiries, err := h.Store.ListEnquiries(r.Context(), filter, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_error", "failed to list enquiries", requestID)
		return
	}
	api.Success(w, shared.ListPayload(enquiries, total, page), requestID)
}

func (h *Handler) HandleGetEnquiry(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	enquiry, err := h.Store.GetEnquiry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, crm.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "enquiry not found", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "get_error", "failed to load enquiry", requestID)
		return
	}
	api.Success(w, enquiry, requestID)
}

func (h *Handler) HandleEnquiryStatus(w http.ResponseWriter, r *http.Request) {
	h.updateStatus(w, r, "enquiry", crm.EnquiryStatuses, h.Store.UpdateEnquiryStatus)
}

func (h *Handler) HandleDeleteEnquiry(w http.ResponseWriter, r *http.Request) {
	h.softDelete(w, r, "enquiry", h.Store.SoftDeleteEnquiry)
}

func (h *Handler) HandleListCases(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 25, 100)
	filter := crm.ListFilter{
		Status: r.URL.Query().Get("status"),
		Search: strings.TrimSpace(r.URL.Query().Get("q")),
	}

	total, err := h.Store.CountCases(r.Context(), filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_error", "failed to list cases", requestID)
		return
	}
	cases, err := h.Store.ListCases(r.Context(), filter, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_error", "failed to list cases", requestID)
		return
	}
	api.Success(w, shared.ListPayload(cases, total, page), requestID)
}

func (h *Handler) HandleGetCase(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	c, err := h.Store.GetCase(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, crm.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "case not found", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "get_error", "failed to load case", requestID)
		return
	}
	api.Success(w, c, requestID)
}

func (h *Handler) HandleCreateCase(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	var c crm.Case
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("subject", c.Subject, "subject is required")
	v.Required("description", c.Description, "description is required")
	if v.Reject(w, requestID) {
		return
	}

	if strings.TrimSpace(c.Priority) == "" {
		c.Priority = "normal"
	}
	c.CreatedBy = actor.Email
	id, err := h.Store.CreateCase(r.Context(), c)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "create_error", "failed to create case", requestID)
		return
	}

	h.recordAudit(r, actor.Email, "case.create", "case", id, nil)
	api.Created(w, map[string]string{"id": id}, requestID)
}

func (h *Handler) HandleUpdateCase(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "id")

	var params crm.UpdateCaseParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	if params.Subject != nil {
		v.Required("subject", *params.Subject, "subject must not be blank")
	}
	if params.Description != nil {
		v.Required("description", *params.Description, "description must not be blank")
	}
	if v.Reject(w, requestID) {
		return
	}
	if params.Priority != nil && strings.TrimSpace(*params.Priority) == "" {
		normal := "normal"
		params.Priority = &normal
	}

	updated, err := h.Store.UpdateCase(r.Context(), id, actor.Email, params)
	if err != nil {
		if errors.Is(err, crm.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "case not found", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "update_error", "failed to update case", requestID)
		return
	}

	h.recordAudit(r, actor.Email, "case.update", "case", id, nil)
	api.Success(w, updated, requestID)
}

func (h *Handler) HandleCaseStatus(w http.ResponseWriter, r *http.Request) {
	h.updateStatus(w, r, "case", crm.CaseStatuses, h.Store.UpdateCaseStatus)
}

func (h *Handler) HandleDeleteCase(w http.ResponseWriter, r *http.Request) {
	h.softDelete(w, r, "case", h.Store.SoftDeleteCase)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request, entity string, allowed []string, update func(ctx context.Context, id, status, editedBy string) error) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	var payload statusRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	status := strings.ToLower(strings.TrimSpace(payload.Status))
	if !statusIn(status, allowed) {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "unknown status: "+payload.Status, requestID)
		return
	}

	id := chi.URLParam(r, "id")
	if err := update(r.Context(), id, status, actor.Email); err != nil {
		if errors.Is(err, crm.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", entity+" not found", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "update_error", "failed to update "+entity, requestID)
		return
	}

	h.recordAudit(r, actor.Email, entity+".status", entity, id, map[string]string{"status": status})
	api.Success(w, map[string]string{"id": id, "status": status}, requestID)
}

func (h *Handler) softDelete(w http.ResponseWriter, r *http.Request, entity string, remove func(ctx context.Context, id, editedBy string) error) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "id")

	if err := remove(r.Context(), id, actor.Email); err != nil {
		if errors.Is(err, crm.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", entity+" not found", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "delete_error", "failed to delete "+entity, requestID)
		return
	}

	h.recordAudit(r, actor.Email, entity+".delete", entity, id, nil)
	api.Success(w, map[string]string{"id": id, "status": "deleted"}, requestID)
}

func statusIn(status string, allowed []string) bool {
	for _, candidate := range allowed {
		if status == candidate {
			return true
		}
	}
	return false
}

func (h *Handler) recordAudit(r *http.Request, actorEmail, action, entityType, entityID string, detail any) {
	err := h.Audit.Record(r.Context(), actorEmail, action, entityType, entityID,
		requestctx.GetRequestID(r.Context()), shared.ClientIP(r), detail)
	if err != nil {
		slog.Warn("audit write failed", "action", action, "err", err)
	}
}
