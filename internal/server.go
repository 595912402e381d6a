package internal

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"taskpilot/internal/config"
	"taskpilot/internal/pushnotification"
	"taskpilot/internal/task"
	"taskpilot/internal/ws"
	"taskpilot/pkg/cerr"
	"taskpilot/pkg/clog"
)

type Server struct {
	server     *http.Server
	env        *config.Env
	taskServer *task.Server
	pushServer *pushnotification.Server
	wsHandler  *ws.Handler
}

func NewServer(
	env *config.Env,
	taskServer *task.Server,
	pushServer *pushnotification.Server,
	wsHandler *ws.Handler,
) *Server {
	return &Server{
		env:        env,
		taskServer: taskServer,
		pushServer: pushServer,
		wsHandler:  wsHandler,
	}
}

// ListenAndServe starts the HTTP server. The provided context becomes the
// base context for all incoming requests, so cancelling it on shutdown also
// cancels in-flight chat turns.
func (s *Server) ListenAndServe(ctx context.Context) error {
	api := chi.NewRouter()
	api.Use(
		clog.SlogChiMiddleware(),
		cerr.NewJSONResponseChiMiddleware(),
	)
	api.Route("/api/v1", func(r chi.Router) {
		s.taskServer.RegisterRoutes(r)
		s.pushServer.RegisterRoutes(r)
	})
	api.NotFound(func(w http.ResponseWriter, r *http.Request) {
		cerr.SetNewJSONError(r.Context(), cerr.NotFound, "not found", nil)
	})

	mux := http.NewServeMux()
	mux.Handle("/health", &HealthChecker{})
	mux.Handle("/api/", api)
	mux.Handle("/ws", s.wsHandler)

	addr := net.JoinHostPort(s.env.HTTPHost, s.env.HTTPPort)
	slog.Info("starting server", "addr", addr)

	s.server = &http.Server{
		Addr: addr,
		Handler: h2c.NewHandler(cors.New(cors.Options{
			AllowedOrigins:   s.env.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
		}).Handler(mux), &http2.Server{}),
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}

	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type HealthChecker struct{}

func (hc *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy","timestamp":"` + time.Now().UTC().Format(time.RFC3339) + `"}`))
}
