package authhandler

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"etmam/internal/domain/auth"
	"etmam/internal/domain/notify"
	"etmam/internal/platform/requestctx"
	"etmam/internal/transport/http/api"
	"etmam/internal/transport/http/middleware"
	"etmam/internal/transport/http/shared"
)

const tokenCookie = "token"

type Handler struct {
	Store    *auth.Store
	Secret   string
	TokenTTL time.Duration
	Notifier *notify.Service
}

func NewHandler(db *pgxpool.Pool, secret string, ttl time.Duration, notifier *notify.Service) *Handler {
	return &Handler{Store: auth.NewStore(db), Secret: secret, TokenTTL: ttl, Notifier: notifier}
}

// RegisterRoutes mounts the auth endpoints. credentialLimiter is applied to
// the endpoints that accept credentials or mint reset tokens.
func (h *Handler) RegisterRoutes(r chi.Router, credentialLimiter func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		if credentialLimiter != nil {
			r.Use(credentialLimiter)
		}
		r.Post("/auth/login", h.HandleLogin)
		r.Post("/auth/register", h.HandleRegister)
		r.Post("/auth/request-reset", h.HandleRequestReset)
		r.Post("/auth/reset", h.HandleResetPassword)
	})
	r.Post("/auth/logout", h.HandleLogout)
	r.Get("/auth/me", h.HandleMe)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	var payload loginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	email := strings.ToLower(strings.TrimSpace(payload.Email))

	user, err := h.Store.FindLoginUser(r.Context(), email)
	if err != nil {
		// Same response for unknown email and bad password.
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestID)
		return
	}
	if !user.IsActive || !user.AllowedActive {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestID)
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, payload.Password); err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestID)
		return
	}

	token, err := auth.GenerateToken(h.Secret, auth.Claims{
		UserID:          user.ID,
		Email:           user.Email,
		Role:            user.Role,
		IsActive:        true,
		AllowedSections: user.AllowedSections,
	}, h.TokenTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", requestID)
		return
	}

	if err := h.Store.UpdateLastLogin(r.Context(), user.ID); err != nil {
		slog.Warn("update last_login failed", "userId", user.ID, "err", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.TokenTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	api.Success(w, map[string]any{
		"token": token,
		"user": map[string]any{
			"id":              user.ID,
			"email":           user.Email,
			"name":            user.Name,
			"role":            user.Role,
			"allowedSections": user.AllowedSections,
		},
	}, requestID)
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	api.Success(w, map[string]string{"status": "logged_out"}, requestctx.GetRequestID(r.Context()))
}

// HandleRegister creates the users row for an email that an admin has already
// allowed. The role and section grants come from the allowed_emails row.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	var payload registerRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("email", payload.Email, "email is required")
	v.Email("email", payload.Email)
	v.Required("name", payload.Name, "name is required")
	if len(payload.Password) < 8 {
		v.Add("password", "must be at least 8 characters")
	}
	if v.Reject(w, requestID) {
		return
	}

	email := strings.ToLower(strings.TrimSpace(payload.Email))
	allowed, err := h.Store.FindAllowedEmail(r.Context(), email)
	if err != nil || !allowed.IsActive {
		api.Fail(w, http.StatusForbidden, "not_allowed", "email is not allowed to register", requestID)
		return
	}

	if _, err := h.Store.UserIDByEmail(r.Context(), email); err == nil {
		api.Fail(w, http.StatusConflict, "already_registered", "account already exists", requestID)
		return
	}

	hash, err := auth.HashPassword(payload.Password)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "hash_error", "failed to create account", requestID)
		return
	}

	id, err := h.Store.RegisterUser(r.Context(), email, strings.TrimSpace(payload.Name), hash, allowed.Role)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "register_error", "failed to create account", requestID)
		return
	}

	api.Created(w, map[string]string{"id": id, "email": email, "role": allowed.Role}, requestID)
}

// HandleRequestReset always answers 200 so the endpoint does not leak which
// emails have accounts.
func (h *Handler) HandleRequestReset(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	var payload resetRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	email := strings.ToLower(strings.TrimSpace(payload.Email))

	userID, err := h.Store.UserIDByEmail(r.Context(), email)
	if err == nil {
		raw, tokenErr := randomToken()
		if tokenErr == nil {
			expires := time.Now().Add(time.Hour)
			if err := h.Store.CreatePasswordReset(r.Context(), userID, auth.HashToken(raw), expires); err != nil {
				slog.Warn("create password reset failed", "err", err)
			} else if h.Notifier != nil {
				if err := h.Notifier.Notify(r.Context(), email, "Password reset",
					"Use this token to reset your password: "+raw); err != nil {
					slog.Warn("password reset notification failed", "err", err)
				}
			}
		}
	}

	api.Success(w, map[string]string{"status": "reset_requested"}, requestID)
}

func (h *Handler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	var payload resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	if payload.Token == "" || len(payload.NewPassword) < 8 {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "token and a password of at least 8 characters are required", requestID)
		return
	}

	tokenHash := auth.HashToken(payload.Token)
	userID, err := h.Store.PasswordResetUserID(r.Context(), tokenHash)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			api.Fail(w, http.StatusBadRequest, "invalid_token", "reset token is invalid or expired", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "reset_error", "failed to reset password", requestID)
		return
	}

	hash, err := auth.HashPassword(payload.NewPassword)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "hash_error", "failed to reset password", requestID)
		return
	}
	if err := h.Store.UpdateUserPassword(r.Context(), userID, hash); err != nil {
		api.Fail(w, http.StatusInternalServerError, "reset_error", "failed to reset password", requestID)
		return
	}
	if err := h.Store.MarkPasswordResetUsed(r.Context(), tokenHash); err != nil {
		slog.Warn("mark reset used failed", "err", err)
	}

	api.Success(w, map[string]string{"status": "password_reset"}, requestID)
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	api.Success(w, map[string]any{
		"id":              user.UserID,
		"email":           user.Email,
		"role":            user.Role,
		"allowedSections": user.AllowedSections,
	}, requestID)
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
