package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/five82/songdeck/internal/catalog"
	"github.com/five82/songdeck/internal/server"
	"github.com/five82/songdeck/internal/state"
)

// ServeOptions configure the JSON API.
type ServeOptions struct {
	Addr    string        // empty uses the configured address
	Refresh time.Duration // catalog reload cadence; zero loads once
}

// Serve loads the catalog in the background and serves the JSON API until
// ctx is cancelled.
func Serve(ctx context.Context, opts Options, serveOpts ServeOptions) error {
	e, err := setup(opts, true)
	if err != nil {
		return err
	}
	defer e.close()

	addr := serveOpts.Addr
	if addr == "" {
		addr = e.cfg.Server.Addr
	}

	store := &state.Store{}
	StartPoller(ctx, store, e.loader, serveOpts.Refresh, e.logger.Named("poller"))

	router := server.NewRouter(server.Options{
		State:  store,
		Picker: e.picker,
		Sorter: catalog.NewSorter(catalog.DefaultLanguage),
		Logger: e.logger.Named("http"),
	})
	e.logger.Info("starting server", zap.String("addr", addr))
	return server.Run(ctx, addr, router, e.logger)
}
