package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// LoginFailed is shown for any rejected login.
const LoginFailed = "Wrong email or password."

// LoginAPI is the part of the API client used to sign in and out.
type LoginAPI interface {
	Login(ctx context.Context, email, password string) (string, error)
	Logout(ctx context.Context) error
}

// Session is the operator session as seen by handlers.
type Session interface {
	Authenticated() bool
	Start(token string) error
	Clear() error
}

// AuthHandler handles login, logout and the dashboard.
type AuthHandler struct {
	api     LoginAPI
	session Session
	log     logrus.FieldLogger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(api LoginAPI, session Session, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{api: api, session: session, log: log}
}

// RegisterRoutes registers the public login endpoints.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/login", h.LoginView)
	r.Post("/login", h.Login)
}

// RegisterProtectedRoutes registers endpoints that need a session.
func (h *AuthHandler) RegisterProtectedRoutes(r chi.Router) {
	r.Get("/dashboard", h.Dashboard)
	r.Post("/logout", h.Logout)
}

// --- Request / Response types ---

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type viewResponse struct {
	View  string `json:"view"`
	Links []link `json:"links,omitempty"`
}

type link struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

// --- Handlers ---

// LoginView answers GET /login. An operator who is already signed in goes
// straight to the dashboard.
func (h *AuthHandler) LoginView(w http.ResponseWriter, r *http.Request) {
	if h.session.Authenticated() {
		redirect(w, r, DashboardPath)
		return
	}
	writeJSON(w, http.StatusOK, viewResponse{View: "login"})
}

// Login exchanges credentials for a session. Accepts JSON or a form post.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	} else {
		req.Email, req.Password = r.FormValue("email"), r.FormValue("password")
	}

	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	token, err := h.api.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.log.WithError(err).WithField("email", req.Email).Warn("login rejected")
		writeError(w, http.StatusUnauthorized, LoginFailed)
		return
	}
	if err := h.session.Start(token); err != nil {
		h.log.WithError(err).Error("failed to store session")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.log.WithField("email", req.Email).Info("operator signed in")
	redirect(w, r, DashboardPath)
}

// Logout ends the session both remotely and locally. A failed remote logout
// still clears the local session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.api.Logout(r.Context()); err != nil {
		h.log.WithError(err).Warn("remote logout failed")
	}
	if err := h.session.Clear(); err != nil {
		h.log.WithError(err).Error("failed to clear session")
	}
	h.log.Info("operator signed out")
	redirect(w, r, LoginPath)
}

// Dashboard is the landing view after login.
func (h *AuthHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, viewResponse{
		View: "dashboard",
		Links: []link{
			{Rel: "staff", Href: "/staff"},
			{Rel: "items", Href: "/admin/items"},
			{Rel: "categories", Href: "/admin/categories"},
		},
	})
}
