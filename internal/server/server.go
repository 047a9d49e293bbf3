package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/five82/songdeck/internal/catalog"
	"github.com/five82/songdeck/internal/picker"
	"github.com/five82/songdeck/internal/state"
)

const (
	defaultTimeout  = 30 * time.Second
	shutdownTimeout = 5 * time.Second
)

// Options wires the router to the catalog and random picker.
type Options struct {
	State  *state.Store
	Picker *picker.Picker
	Sorter *catalog.Sorter
	Logger *zap.Logger
}

type handlers struct {
	state  *state.Store
	picker *picker.Picker
	sorter *catalog.Sorter
}

// NewRouter builds the JSON API.
func NewRouter(opts Options) chi.Router {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handlers{state: opts.State, picker: opts.Picker, sorter: opts.Sorter}
	if h.state == nil {
		h.state = &state.Store{}
	}
	if h.picker == nil {
		h.picker = picker.New(picker.Options{Logger: logger})
	}
	if h.sorter == nil {
		h.sorter = catalog.NewSorter(catalog.DefaultLanguage)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(defaultTimeout))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, req, "route_not_found", fmt.Sprintf("no route for %s", req.URL.Path), http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, req, "method_not_allowed", fmt.Sprintf("method %s not allowed on %s", req.Method, req.URL.Path), http.StatusMethodNotAllowed)
	})

	r.Get("/healthz", h.healthz)
	r.Route("/api", func(api chi.Router) {
		api.Get("/songs", h.listSongs)
		api.Get("/options", h.options)
		api.Post("/random", h.random)
	})
	return r
}

// Run serves handler on addr until ctx is cancelled, then shuts down
// gracefully.
func Run(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
