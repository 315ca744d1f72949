package http

import (
	"log/slog"
	"net/http"
)

type RouterConfig struct {
	Auth      *AuthHandler
	Users     *UserHandler
	Sessions  *SessionHandler
	Blocklist *BlocklistHandler
	Analytics *AnalyticsHandler
	Health    *HealthHandler
	// Tokens guards every route except signup, signin and the health check.
	// A nil validator leaves the routes unauthenticated.
	Tokens     TokenValidator
	Logger     *slog.Logger
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	protect := func(h http.HandlerFunc) http.Handler {
		if cfg.Tokens == nil {
			return h
		}
		return RequireSession(cfg.Tokens, cfg.Logger)(h)
	}

	if cfg.Health != nil {
		mux.HandleFunc("GET /healthz", cfg.Health.Check)
	}

	if cfg.Auth != nil {
		mux.HandleFunc("POST /auth/signup", cfg.Auth.SignUp)
		mux.HandleFunc("POST /auth/signin", cfg.Auth.SignIn)
		mux.Handle("POST /auth/signout", protect(cfg.Auth.SignOut))
	}

	if cfg.Users != nil {
		mux.Handle("GET /user/profile", protect(cfg.Users.Profile))
		mux.Handle("PUT /user/settings", protect(cfg.Users.UpdateSettings))
	}

	if cfg.Sessions != nil {
		s := cfg.Sessions
		mux.Handle("POST /sessions", protect(s.Create))
		mux.Handle("GET /sessions", protect(s.List))
		mux.Handle("POST /sessions/start", protect(s.Start))
		mux.Handle("GET /sessions/active", protect(s.Active))
		mux.Handle("GET /sessions/status/blocking", protect(s.BlockingStatus))
		mux.Handle("GET /sessions/stats/today", protect(s.TodayStats))
		mux.Handle("GET /sessions/stats/weekly", protect(s.WeeklyStats))
		mux.Handle("GET /sessions/{id}", protect(s.Get))
		mux.Handle("PATCH /sessions/{id}", protect(s.Update))
		mux.Handle("DELETE /sessions/{id}", protect(s.Delete))
		mux.Handle("POST /sessions/{id}/end", protect(s.End))
	}

	if cfg.Blocklist != nil {
		b := cfg.Blocklist
		mux.Handle("POST /blocklist", protect(b.Create))
		mux.Handle("GET /blocklist", protect(b.List))
		mux.Handle("GET /blocklist/active", protect(b.Active))
		mux.Handle("GET /blocklist/check", protect(b.Check))
		mux.Handle("POST /blocklist/activate", protect(b.Activate))
		mux.Handle("POST /blocklist/deactivate", protect(b.Deactivate))
		mux.Handle("GET /blocklist/{id}", protect(b.Get))
		mux.Handle("PATCH /blocklist/{id}", protect(b.Update))
		mux.Handle("DELETE /blocklist/{id}", protect(b.Delete))
		mux.Handle("PATCH /blocklist/{id}/toggle", protect(b.Toggle))
	}

	if cfg.Analytics != nil {
		a := cfg.Analytics
		mux.Handle("GET /analytics/daily", protect(a.Daily))
		mux.Handle("GET /analytics/weekly", protect(a.Weekly))
		mux.Handle("GET /analytics/productivity-hours", protect(a.ProductivityHours))
		mux.Handle("GET /analytics/session-types", protect(a.SessionTypes))
		mux.Handle("GET /analytics/insights", protect(a.Insights))
		mux.Handle("GET /analytics/overview", protect(a.Overview))
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}
