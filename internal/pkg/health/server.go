package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Vodeneev/lottostats/internal/pkg/health/handlers"
	"github.com/Vodeneev/lottostats/internal/pkg/interfaces"
	"github.com/Vodeneev/lottostats/internal/pkg/performance"
)

// Deps are the collaborators served over HTTP. Collectors may be nil.
type Deps struct {
	Catalog     handlers.Catalog
	Stats       interfaces.StatsReader
	Refresher   interfaces.Refresher
	Tracker     *performance.Tracker
	Collectors  *performance.Collectors
	CORSOrigins []string
	// Concurrency caps how many games one /refresh call runs at once; 0 means no limit.
	Concurrency int
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if d.Collectors != nil {
		r.Use(d.Collectors.InstrumentHandler)
	}

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{handlers.SourceHeader},
		MaxAge:         300,
	}))

	// Health endpoints
	r.Get("/ping", handlers.HandlePing)
	r.Get("/health", handlers.HandleHealth(d.Catalog, d.Stats))

	// Metrics endpoints
	r.Get("/metrics", handlers.HandleMetrics(d.Tracker))
	if d.Collectors != nil {
		r.Method(http.MethodGet, "/metrics/prometheus", d.Collectors.Handler())
	}

	var observe handlers.ReadObserver
	if d.Collectors != nil {
		observe = d.Collectors.ObserveRead
	}
	r.Get("/games", handlers.HandleGames(d.Catalog))
	r.Get("/stats/{game}", handlers.HandleStats(d.Catalog, d.Stats, observe))

	// Manual refresh endpoint
	r.HandleFunc("/refresh", handlers.HandleRefresh(d.Catalog, d.Refresher, d.Concurrency))

	return r
}

// Run binds addr and serves the router until ctx is cancelled. The returned channel is
// closed once the server has shut down.
func Run(ctx context.Context, addr string, service string, d Deps, readHeaderTimeout time.Duration) (<-chan struct{}, error) {
	if readHeaderTimeout <= 0 {
		return nil, errors.New("read_header_timeout must be specified in config")
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           NewRouter(d),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		slog.Info("Health server listening", "service", service, "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("Health server error", "service", service, "error", err)
		}
	}()
	return done, nil
}

func AddrFor(port int) (string, error) {
	if port <= 0 {
		return "", errors.New("port must be greater than 0")
	}
	return fmt.Sprintf(":%d", port), nil
}
