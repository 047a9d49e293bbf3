package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-git/go-billy/v5/osfs"
	"go.uber.org/zap"

	"github.com/five82/songdeck/internal/catalog"
	"github.com/five82/songdeck/internal/config"
	"github.com/five82/songdeck/internal/history"
	"github.com/five82/songdeck/internal/logging"
	"github.com/five82/songdeck/internal/offline"
	"github.com/five82/songdeck/internal/picker"
	"github.com/five82/songdeck/internal/source"
)

const cachePrefix = "songdeck"

// Options configure every songdeck command.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/songdeck/prefs.toml
}

// env holds the components shared by browse, serve and pick.
type env struct {
	cfg    config.Config
	logger *zap.Logger
	loader source.Loader
	picker *picker.Picker
	worker *offline.Worker

	closers []func() error
}

// setup loads configuration and wires storage, the offline cache and the
// catalog source. toStdout sends logs to stdout instead of the log file.
func setup(opts Options, toStdout bool) (*env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logPath := cfg.LogFile
	if toStdout {
		logPath = ""
	}
	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Path: logPath})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	e := &env{cfg: cfg, logger: logger}
	e.closers = append(e.closers, func() error {
		_ = logger.Sync()
		return nil
	})

	storage, closeStorage, err := history.Open(cfg.History.Backend, cfg.DataDir)
	if err != nil {
		e.close()
		return nil, fmt.Errorf("open history storage: %w", err)
	}
	e.closers = append(e.closers, closeStorage)
	e.picker = picker.New(picker.Options{
		Storage: storage,
		Key:     cfg.History.Key,
		Logger:  logger.Named("picker"),
	})

	loader, err := e.newLoader()
	if err != nil {
		e.close()
		return nil, err
	}
	e.loader = loader
	return e, nil
}

func (e *env) newLoader() (source.Loader, error) {
	cfg := e.cfg
	if cfg.CatalogURL == "" {
		e.logger.Info("using local catalog", zap.String("path", cfg.CatalogFile))
		return &source.FileLoader{Path: cfg.CatalogFile}, nil
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = cfg.RequestTimeout

	var rt http.RoundTripper = transport
	if cfg.OfflineActive() {
		worker, err := offline.NewWorker(offline.Options{
			Storage:   offline.NewCacheStorage(osfs.New(cfg.CacheDir())),
			CacheName: offline.BucketName(cachePrefix, cfg.Offline.Version, cfg.Offline.Precache),
			BaseURL:   cfg.Offline.BaseURL,
			Manifest:  cfg.Offline.Precache,
			Next:      transport,
			Logger:    e.logger.Named("offline"),
		})
		if err != nil {
			return nil, fmt.Errorf("init offline cache: %w", err)
		}
		e.worker = worker
		rt = worker
	}

	client, err := source.NewClient(cfg.CatalogURL, rt, cfg.RequestTimeout)
	if err != nil {
		return nil, fmt.Errorf("init catalog client: %w", err)
	}
	e.logger.Info("using remote catalog",
		zap.String("url", client.Endpoint()),
		zap.Bool("offline", e.worker != nil),
	)
	if e.worker == nil {
		return client, nil
	}
	return &startingLoader{worker: e.worker, next: client, logger: e.logger}, nil
}

// close waits for background cache refreshes, then releases resources in
// reverse order of acquisition.
func (e *env) close() {
	if e.worker != nil {
		e.worker.Wait()
	}
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		e.logger.Warn("shutdown", zap.Error(err))
	}
}

// startingLoader brings the offline cache up before the first fetch so the
// catalog request can be answered from it. A cache that fails to start is
// logged and the fetch goes to the network.
type startingLoader struct {
	once   sync.Once
	worker *offline.Worker
	next   source.Loader
	logger *zap.Logger
}

func (l *startingLoader) FetchSongs(ctx context.Context) ([]catalog.Song, error) {
	l.once.Do(func() {
		if err := l.worker.Start(ctx); err != nil {
			l.logger.Warn("offline cache unavailable",
				zap.String("cache", l.worker.CacheName()),
				zap.Stringer("state", l.worker.State()),
				zap.Error(err),
			)
			return
		}
		l.logger.Info("offline cache serving", zap.String("cache", l.worker.CacheName()))
	})
	return l.next.FetchSongs(ctx)
}
