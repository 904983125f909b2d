package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/ovenline/backend-bakery/internal/audit"
	"github.com/ovenline/backend-bakery/internal/common"
)

// Handler exposes login, logout, and identity endpoints.
type Handler struct {
	Svc            *Service
	Validate       *validator.Validate
	CookieName     string
	CookieDomain   string
	CookieSecure   bool
	CookieSameSite http.SameSite
	Audit          *audit.Service
	Log            zerolog.Logger
}

type loginRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=8"`
}

type sessionView struct {
	UserID      string `json:"userId"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
}

func view(s Session) sessionView {
	return sessionView{UserID: s.UserID, Username: s.Username, DisplayName: s.DisplayName, Role: s.Role}
}

// Login verifies credentials and sets the session cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", "malformed request body", nil)
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", "username and password are required", nil)
		return
	}
	sess, token, err := h.Svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			common.JSONError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid username or password", nil)
			return
		}
		h.Log.Error().Err(err).Msg("login failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "login failed", nil)
		return
	}
	h.Audit.Record(r.Context(), audit.Entry{
		ActorID:    sess.UserID,
		Action:     "auth.login",
		EntityType: "user",
		EntityID:   sess.UserID,
		IP:         common.ClientIP(r),
	})
	http.SetCookie(w, h.cookie(token, h.Svc.ttl()))
	common.JSON(w, http.StatusOK, map[string]any{"user": view(sess)})
}

// Logout revokes the current session and clears the cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(h.CookieName); err == nil {
		if err := h.Svc.Logout(r.Context(), c.Value); err != nil {
			h.Log.Warn().Err(err).Msg("session revoke failed")
		}
	}
	http.SetCookie(w, h.cookie("", -time.Hour))
	common.JSON(w, http.StatusOK, map[string]any{"loggedOut": true})
}

// Me reports the authenticated identity. It runs behind RequireAuth, so a
// missing identity here is a wiring bug.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	sess, err := h.Svc.Verify(r.Context(), h.token(r))
	if err != nil {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or expired session", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"user": view(sess)})
}

func (h *Handler) token(r *http.Request) string {
	c, err := r.Cookie(h.CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

func (h *Handler) cookie(token string, maxAge time.Duration) *http.Cookie {
	sameSite := h.CookieSameSite
	if sameSite == http.SameSiteDefaultMode {
		sameSite = http.SameSiteLaxMode
	}
	return &http.Cookie{
		Name:     h.CookieName,
		Value:    token,
		Path:     "/",
		Domain:   h.CookieDomain,
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: sameSite,
	}
}
