package notificationshandler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"etmam/internal/domain/notify"
	"etmam/internal/platform/requestctx"
	"etmam/internal/transport/http/api"
	"etmam/internal/transport/http/middleware"
	"etmam/internal/transport/http/shared"
)

type Handler struct {
	Service *notify.Service
}

func NewHandler(service *notify.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", h.HandleList)
		r.Post("/{id}/read", h.HandleMarkRead)
	})
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	page := shared.ParsePagination(r, 25, 100)
	unreadOnly, _ := strconv.ParseBool(r.URL.Query().Get("unread"))

	total, err := h.Service.Count(r.Context(), user.Email, unreadOnly)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_error", "failed to list notifications", requestID)
		return
	}
	notifications, err := h.Service.List(r.Context(), user.Email, unreadOnly, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_error", "failed to list notifications", requestID)
		return
	}
	api.Success(w, shared.ListPayload(notifications, total, page), requestID)
}

func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "id")

	updated, err := h.Service.MarkRead(r.Context(), id, user.Email)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "update_error", "failed to mark notification", requestID)
		return
	}
	if !updated {
		api.Fail(w, http.StatusNotFound, "not_found", "notification not found", requestID)
		return
	}
	api.Success(w, map[string]any{"id": id, "isRead": true}, requestID)
}
