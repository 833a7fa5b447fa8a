package reportshandler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"etmam/internal/domain/reports"
	"etmam/internal/domain/timesheet"
	"etmam/internal/platform/requestctx"
	"etmam/internal/transport/http/api"
	"etmam/internal/transport/http/middleware"
)

type Handler struct {
	Store *reports.Store
}

func NewHandler(db *pgxpool.Pool) *Handler {
	return &Handler{Store: reports.NewStore(db)}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireAuth).Get("/reports/dashboard", h.HandleDashboard)
}

func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	now := time.Now().UTC()
	month := timesheet.MonthOf(now.Year(), int(now.Month()))

	dashboard, err := h.Store.Dashboard(r.Context(), month)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_error", "failed to build dashboard", requestID)
		return
	}
	api.Success(w, dashboard, requestID)
}
