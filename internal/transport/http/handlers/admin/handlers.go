package adminhandler

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
	"etmam/internal/platform/metrics"
	"etmam/internal/platform/requestctx"
	"etmam/internal/transport/http/api"
	"etmam/internal/transport/http/middleware"
	"etmam/internal/transport/http/shared"
)

type Handler struct {
	Store          *auth.Store
	Audit          *audit.Service
	Metrics        *metrics.Collector
	ProtectedEmail string
}

func NewHandler(db *pgxpool.Pool, auditSvc *audit.Service, collector *metrics.Collector, protectedEmail string) *Handler {
	return &Handler{
		Store:          auth.NewStore(db),
		Audit:          auditSvc,
		Metrics:        collector,
		ProtectedEmail: strings.ToLower(strings.TrimSpace(protectedEmail)),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireRole(auth.AdminRoles...))
		r.Get("/accounts", h.HandleListAccounts)
		r.Post("/accounts", h.HandleCreateAccount)
		r.Patch("/accounts/restrict", h.HandleRestrict)
		r.Patch("/accounts/enable", h.HandleEnable)
		r.Get("/logs", h.HandleListLogs)
		r.Get("/metrics", h.HandleMetrics)
	})
}

func (h *Handler) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 50, 200)

	accounts, total, err := h.Store.ListAccounts(r.Context(), page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_error", "failed to list accounts", requestID)
		return
	}
	api.Success(w, shared.ListPayload(accounts, total, page), requestID)
}

type createAccountRequest struct {
	Email           string   `json:"email"`
	Role            string   `json:"role"`
	AllowedSections []string `json:"allowedSections"`
}

func (h *Handler) HandleCreateAccount(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	var payload createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("email", payload.Email, "email is required")
	v.Email("email", payload.Email)
	v.Enum("role", payload.Role, auth.AllRoles, "unknown role")
	v.Required("role", payload.Role, "role is required")
	for _, section := range payload.AllowedSections {
		if !auth.RoleIn(section, auth.AllSections) {
			v.Add("allowedSections", "unknown section: "+section)
		}
	}
	if v.Reject(w, requestID) {
		return
	}

	email := strings.ToLower(strings.TrimSpace(payload.Email))
	if err := h.Store.CreateAllowedEmail(r.Context(), email, payload.Role, payload.AllowedSections, actor.Email); err != nil {
		api.Fail(w, http.StatusConflict, "create_error", "email is already allowed", requestID)
		return
	}

	h.recordAudit(r, actor.Email, "account.allow", email, map[string]any{"role": payload.Role})
	api.Created(w, map[string]string{"email": email, "role": payload.Role}, requestID)
}

type accountActionRequest struct {
	Email string `json:"email"`
}

func (h *Handler) HandleRestrict(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *Handler) HandleEnable(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	var payload accountActionRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	email := strings.ToLower(strings.TrimSpace(payload.Email))
	if email == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "email is required", requestID)
		return
	}

	if !active {
		// The protected super-admin can only restrict itself, and nobody may
		// restrict their own account.
		if email == h.ProtectedEmail && !strings.EqualFold(actor.Email, h.ProtectedEmail) {
			api.Fail(w, http.StatusForbidden, "forbidden", "this account cannot be restricted", requestID)
			return
		}
		if strings.EqualFold(email, actor.Email) {
			api.Fail(w, http.StatusForbidden, "forbidden", "you cannot restrict your own account", requestID)
			return
		}
	}

	if err := h.Store.SetAccountActive(r.Context(), email, active); err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "account not found", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "update_error", "failed to update account", requestID)
		return
	}

	action := "account.restrict"
	if active {
		action = "account.enable"
	}
	h.recordAudit(r, actor.Email, action, email, nil)
	api.Success(w, map[string]any{"email": email, "isActive": active}, requestID)
}

func (h *Handler) HandleListLogs(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 50, 200)
	filter := audit.Filter{
		Action:     r.URL.Query().Get("action"),
		EntityType: r.URL.Query().Get("entityType"),
		ActorEmail: r.URL.Query().Get("actor"),
	}

	total, err := h.Audit.Count(r.Context(), filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_error", "failed to list logs", requestID)
		return
	}
	entries, err := h.Audit.List(r.Context(), filter, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_error", "failed to list logs", requestID)
		return
	}
	api.Success(w, shared.ListPayload(entries, total, page), requestID)
}

func (h *Handler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	if h.Metrics == nil {
		api.Fail(w, http.StatusNotFound, "not_found", "metrics collection is disabled", requestID)
		return
	}
	api.Success(w, h.Metrics.Snapshot(), requestID)
}

func (h *Handler) recordAudit(r *http.Request, actorEmail, action, entityID string, detail any) {
	err := h.Audit.Record(r.Context(), actorEmail, action, "account", entityID,
		requestctx.GetRequestID(r.Context()), shared.ClientIP(r), detail)
	if err != nil {
		slog.Warn("audit write failed", "action", action, "err", err)
	}
}
