package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/tableside/console/internal/handler"
	mw "github.com/tableside/console/internal/middleware"
	"github.com/tableside/console/internal/ws"
)

// Deps are the collaborators the routes are built from.
type Deps struct {
	Session  handler.Session
	Login    handler.LoginAPI
	Staff    handler.StaffBoard
	Catalog  handler.Catalog
	Customer handler.CustomerMenu
	WS       *ws.Server
	Origins  []string
	Log      logrus.FieldLogger
}

// New creates a Chi router with all console routes wired up.
// Staff, admin and dashboard routes require a session.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(mw.RequestLogger(d.Log))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.Origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Location"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	authHandler := handler.NewAuthHandler(d.Login, d.Session, d.Log)
	authHandler.RegisterRoutes(r)

	customerHandler := handler.NewCustomerHandler(d.Customer, d.Log)
	customerHandler.RegisterRoutes(r)

	// WebSocket route (checks the session itself so it can answer 401)
	r.Get("/ws/staff", d.WS.Handler(ws.TopicStaff))

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(mw.RequireSession(d.Session))

		authHandler.RegisterProtectedRoutes(r)

		orderHandler := handler.NewOrderHandler(d.Staff, d.Log)
		orderHandler.RegisterRoutes(r)

		itemHandler := handler.NewItemHandler(d.Catalog, d.Log)
		r.Route("/admin/items", itemHandler.RegisterRoutes)

		categoryHandler := handler.NewCategoryHandler(d.Catalog, d.Log)
		r.Route("/admin/categories", categoryHandler.RegisterRoutes)
	})

	// Anything else lands on the login view.
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, handler.LoginPath, http.StatusSeeOther)
	})

	return r
}
