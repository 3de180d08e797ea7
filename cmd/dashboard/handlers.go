package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"portfolio-dashboard-go/internal/airtable"
	"portfolio-dashboard-go/internal/auth"
	"portfolio-dashboard-go/internal/portfolio"

	"go.uber.org/zap"
)

// APIHandler holds dependencies for the API endpoints.
type APIHandler struct {
	log  *zap.Logger
	svc  *portfolio.Service
	auth *auth.Authenticator
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(log *zap.Logger, svc *portfolio.Service, authenticator *auth.Authenticator) *APIHandler {
	return &APIHandler{log: log, svc: svc, auth: authenticator}
}

// sessionResponse is the body of login/logout/session responses.
type sessionResponse struct {
	Status   string `json:"status"`
	Username string `json:"username,omitempty"`
}

// cookieValue returns the raw session cookie value, or "" when absent.
func (h *APIHandler) cookieValue(r *http.Request) string {
	cookie, err := r.Cookie(h.auth.CookieName())
	if err != nil {
		return ""
	}
	return cookie.Value
}

// LoginHandler verifies credentials and starts a session.
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	value, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		writeJSON(w, http.StatusUnauthorized, sessionResponse{Status: auth.StatusFailed.String()})
		return
	}
	if err != nil {
		h.log.Error("Login failed", zap.Error(err))
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.auth.CookieName(),
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(h.auth.Expiry()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, sessionResponse{Status: auth.StatusAuthenticated.String(), Username: req.Username})
}

// LogoutHandler ends the current session and clears the cookie.
func (h *APIHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := h.auth.Logout(r.Context(), h.cookieValue(r)); err != nil {
		h.log.Error("Logout failed", zap.Error(err))
		http.Error(w, "logout failed", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.auth.CookieName(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, sessionResponse{Status: auth.StatusPending.String()})
}

// SessionHandler reports the tri-state authentication status for the
// current cookie.
func (h *APIHandler) SessionHandler(w http.ResponseWriter, r *http.Request) {
	status, username := h.auth.Verify(r.Context(), h.cookieValue(r))
	writeJSON(w, http.StatusOK, sessionResponse{Status: status.String(), Username: username})
}

// requireAuth wraps a handler so it only runs for an authenticated session.
func (h *APIHandler) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, _ := h.auth.Verify(r.Context(), h.cookieValue(r))
		if status != auth.StatusAuthenticated {
			writeJSON(w, http.StatusUnauthorized, sessionResponse{Status: status.String()})
			return
		}
		next(w, r)
	}
}

// DashboardHandler recomputes and returns the full dashboard payload.
func (h *APIHandler) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.svc.BuildDashboard(r.Context())
	if err != nil {
		h.writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}

// MarketSummaryHandler returns per-instrument close series for the selected
// period (default YTD).
func (h *APIHandler) MarketSummaryHandler(w http.ResponseWriter, r *http.Request) {
	period := portfolio.Period(r.URL.Query().Get("period"))
	if period == "" {
		period = portfolio.DefaultPeriod
	}
	if _, err := portfolio.PeriodStart(period, time.Now()); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	series, err := h.svc.MarketSummary(r.Context(), period)
	if err != nil {
		h.writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

// TransactionsHandler returns the transaction table enriched with current
// prices.
func (h *APIHandler) TransactionsHandler(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.svc.BuildDashboard(r.Context())
	if err != nil {
		h.writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard.Transactions)
}

// writePipelineError maps pipeline failures to HTTP statuses: upstream
// fetch problems are a bad gateway, malformed records and anything else are
// internal errors.
func (h *APIHandler) writePipelineError(w http.ResponseWriter, err error) {
	h.log.Error("Failed to build dashboard data", zap.Error(err))

	var fetchErr *airtable.FetchError
	if errors.As(err, &fetchErr) {
		http.Error(w, "upstream data source unavailable", http.StatusBadGateway)
		return
	}
	http.Error(w, "failed to build dashboard data", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
