package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/five82/songdeck/internal/catalog"
	"github.com/five82/songdeck/internal/prefs"
	"github.com/five82/songdeck/internal/state"
	"github.com/five82/songdeck/internal/ui"
)

// Browse runs the terminal UI until the user quits or ctx is cancelled.
func Browse(ctx context.Context, opts Options) error {
	e, err := setup(opts, false)
	if err != nil {
		return err
	}
	defer e.close()

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		return fmt.Errorf("load prefs: %w", err)
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	e.logger.Info("starting browser", zap.String("theme", userPrefs.Theme))
	return ui.Run(ui.Options{
		Context:   ctx,
		Loader:    e.loader,
		Store:     &state.Store{},
		Picker:    e.picker,
		Sorter:    catalog.NewSorter(catalog.DefaultLanguage),
		ThemeName: userPrefs.Theme,
		Sort:      userPrefs.SortState(),
		PrefsPath: prefsPath,
		Logger:    e.logger.Named("ui"),
	})
}
