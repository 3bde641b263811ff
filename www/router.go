// Package www serves the JSON API and the live event stream.
package www

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"

	"podfleet/engine"
)

// Connectivity reports whether an outside link, such as the message broker, is up.
type Connectivity interface {
	IsConnected() bool
}

type Handlers struct {
	engine   *engine.Engine
	msg      Connectivity
	sessions *sessions.CookieStore
	eventHub *EventHub
}

// NewRouter builds the HTTP handler. msg may be nil when messaging is disabled.
// The returned func stops the event hub.
func NewRouter(eng *engine.Engine, msg Connectivity) (http.Handler, func()) {
	hub := NewEventHub()
	hub.Start()
	hub.SetupEngineListeners(eng)

	h := &Handlers{
		engine:   eng,
		msg:      msg,
		sessions: newSessionStore(eng.AppConfig().Web.SessionSecret),
		eventHub: hub,
	}
	if eng.DB() != nil {
		h.ensureDefaultAdmin()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Get("/events", hub.SSEHandler)

	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)

	// Read and policy endpoints need no login.
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.apiHealthCheck)
		r.Get("/layout", h.apiLayout)
		r.Get("/robots", h.apiRobots)
		r.Get("/queue", h.apiQueue)
		r.Get("/tasks", h.apiListTasks)
		r.Get("/tasks/counts", h.apiTaskCounts)
		r.Get("/tasks/{id}", h.apiGetTask)
		r.Get("/audit", h.apiAuditLog)
		r.Post("/moves", h.apiComputeMoves)
		r.Post("/pods/pick", h.apiPickPod)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)
			r.Post("/tasks", h.apiCreateTask)
			r.Post("/sim/tick", h.apiSimTick)
			r.Post("/admin/password", h.handleChangePassword)
		})
	})

	return r, hub.Stop
}
