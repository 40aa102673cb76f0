package http

import (
	"log/slog"
	"net/http"
)

// RouterConfig carries the handlers and cross-cutting settings of the API.
type RouterConfig struct {
	Auth          *AuthHandler
	Users         *UserHandler
	Schedules     *ScheduleHandler
	Shifts        *ShiftHandler
	Templates     *TemplateHandler
	Authenticator Authenticator
	// StaticDir is served for every GET that matches no API route.
	StaticDir  string
	CORSOrigin string
	Logger     *slog.Logger
	Middleware []func(http.Handler) http.Handler
}

// NewRouter assembles the API. Outermost to innermost: CORS, request
// logging, panic recovery, then any extra middleware from the config.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	logger := defaultLogger(cfg.Logger)
	authed := func(h http.HandlerFunc) http.Handler {
		return RequireBearer(cfg.Authenticator, logger)(h)
	}

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		newResponder(logger).writeJSON(r.Context(), w, http.StatusOK, map[string]bool{"ok": true})
	})

	if cfg.Auth != nil {
		mux.HandleFunc("POST /api/auth/register", cfg.Auth.Register)
		mux.HandleFunc("POST /api/auth/login", cfg.Auth.Login)
	}

	if cfg.Users != nil {
		mux.Handle("GET /api/me", authed(cfg.Users.Me))
	}

	if cfg.Schedules != nil {
		mux.Handle("GET /api/schedules", authed(cfg.Schedules.List))
		mux.Handle("POST /api/schedules", authed(cfg.Schedules.Create))
		mux.Handle("GET /api/schedules/{schedule_id}", authed(cfg.Schedules.Get))
		mux.Handle("GET /api/schedules/{schedule_id}/members", authed(cfg.Schedules.ListMembers))
		mux.Handle("POST /api/schedules/{schedule_id}/members", authed(cfg.Schedules.AddMember))
		mux.Handle("POST /api/schedules/{schedule_id}/members/{user_id}/role", authed(cfg.Schedules.SetMemberRole))
	}

	if cfg.Shifts != nil {
		mux.Handle("GET /api/schedules/{schedule_id}/shifts", authed(cfg.Shifts.List))
		mux.Handle("POST /api/schedules/{schedule_id}/shifts", authed(cfg.Shifts.Create))
		mux.Handle("POST /api/shifts/{shift_id}/assign", authed(cfg.Shifts.Assign))
		mux.Handle("GET /api/shifts/{shift_id}/comments", authed(cfg.Shifts.ListComments))
		mux.Handle("POST /api/shifts/{shift_id}/comments", authed(cfg.Shifts.AddComment))
	}

	if cfg.Templates != nil {
		mux.Handle("GET /api/schedules/{schedule_id}/templates", authed(cfg.Templates.List))
		mux.Handle("POST /api/schedules/{schedule_id}/templates", authed(cfg.Templates.Create))
		mux.Handle("POST /api/schedules/{schedule_id}/templates/{template_id}/apply", authed(cfg.Templates.Apply))
	}

	if cfg.StaticDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(cfg.StaticDir)))
	}

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}
	handler = Recover(logger)(handler)
	handler = RequestLogger(logger)(handler)
	return CORS(cfg.CORSOrigin)(handler)
}
