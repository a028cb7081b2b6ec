package handler

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/capitalize-ai/sales-coach/internal/auth"
	"github.com/capitalize-ai/sales-coach/internal/middleware"
	"github.com/capitalize-ai/sales-coach/internal/model"
	"github.com/capitalize-ai/sales-coach/internal/service"
	"github.com/capitalize-ai/sales-coach/pkg/logger"
)

const (
	stateTTL = 10 * time.Minute

	// AfterLoginPath is where the federated callback sends the browser.
	AfterLoginPath = "/api/v1/me"
)

// IdentityProvider runs a federated login flow.
type IdentityProvider interface {
	AuthCodeURL(state string) string
	Identity(ctx context.Context, code string) (model.ExternalIdentity, error)
}

// AuthHandler handles account and session endpoints.
type AuthHandler struct {
	accounts     *service.AccountService
	sessions     *auth.Sessions
	google       IdentityProvider
	secureCookie bool
	logger       *logger.Logger
}

// NewAuthHandler creates an auth handler. A nil google provider disables
// federated login.
func NewAuthHandler(
	accounts *service.AccountService,
	sessions *auth.Sessions,
	google IdentityProvider,
	secureCookie bool,
	log *logger.Logger,
) *AuthHandler {
	return &AuthHandler{
		accounts:     accounts,
		sessions:     sessions,
		google:       google,
		secureCookie: secureCookie,
		logger:       log,
	}
}

type sessionResponse struct {
	Status string      `json:"status"`
	User   *model.User `json:"user"`
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.accounts.Register(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if err := h.startSession(w, user.ID, false); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{Status: "success", User: user})
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.accounts.Login(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if err := h.startSession(w, user.ID, req.Remember); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{Status: "success", User: user})
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.cookie(auth.SessionCookie, "", "/", -1))
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// GoogleLogin handles GET /auth/google
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		writeError(w, http.StatusNotFound, "Google login is not configured")
		return
	}

	state := uuid.NewString()
	http.SetCookie(w, h.cookie(auth.StateCookie, state, "/auth/google", int(stateTTL.Seconds())))
	http.Redirect(w, r, h.google.AuthCodeURL(state), http.StatusFound)
}

// GoogleCallback handles GET /auth/google/callback
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		writeError(w, http.StatusNotFound, "Google login is not configured")
		return
	}

	state := r.URL.Query().Get("state")
	c, err := r.Cookie(auth.StateCookie)
	if err != nil || state == "" || subtle.ConstantTimeCompare([]byte(c.Value), []byte(state)) != 1 {
		writeError(w, http.StatusBadRequest, "invalid login state")
		return
	}
	http.SetCookie(w, h.cookie(auth.StateCookie, "", "/auth/google", -1))

	identity, err := h.google.Identity(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		requestLogger(r, h.logger).Warn("google login failed", zap.Error(err))
		writeError(w, http.StatusUnauthorized, "Google login failed. Please try again or use email login.")
		return
	}

	user, err := h.accounts.ResolveExternal(r.Context(), identity)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if err := h.startSession(w, user.ID, true); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	http.Redirect(w, r, AfterLoginPath, http.StatusFound)
}

// Me handles GET /api/v1/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.accounts.Dashboard(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dashboard)
}

// startSession sets the session cookie. Without remember the cookie ends
// with the browser session; the token itself expires either way.
func (h *AuthHandler) startSession(w http.ResponseWriter, userID string, remember bool) error {
	token, expires, err := h.sessions.Issue(userID)
	if err != nil {
		return err
	}

	c := h.cookie(auth.SessionCookie, token, "/", 0)
	if remember {
		c.Expires = expires
	}
	http.SetCookie(w, c)
	return nil
}

func (h *AuthHandler) cookie(name, value, path string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}
