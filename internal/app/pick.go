package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/five82/songdeck/internal/catalog"
)

// ErrNoMatch is returned by Pick when the filters leave no songs.
var ErrNoMatch = errors.New("no songs match the current filters")

// PickOptions configure a one-shot random pick.
type PickOptions struct {
	Filter catalog.FilterState
	Reset  bool // clear the random history instead of picking
	Out    io.Writer
}

// Pick draws one song and writes it to Out, recording it in the random
// history shared with the browser.
func Pick(ctx context.Context, opts Options, pickOpts PickOptions) error {
	e, err := setup(opts, false)
	if err != nil {
		return err
	}
	defer e.close()

	return pick(ctx, e, pickOpts)
}

func pick(ctx context.Context, e *env, opts PickOptions) error {
	out := opts.Out
	if out == nil {
		out = io.Discard
	}

	if opts.Reset {
		if err := e.picker.Reset(ctx); err != nil {
			return fmt.Errorf("reset random history: %w", err)
		}
		_, err := fmt.Fprintln(out, "Random history cleared.")
		return err
	}

	songs, err := e.loader.FetchSongs(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	store := catalog.NewStore(songs)
	store.Sort(catalog.NewSorter(catalog.DefaultLanguage), catalog.DefaultSortState())

	song, ok := e.picker.Pick(ctx, store.View(opts.Filter), store.View(catalog.FilterState{}))
	if !ok {
		return ErrNoMatch
	}
	e.logger.Info("picked song", zap.String("url", song.URL))

	if _, err := fmt.Fprintf(out, "%s - %s\n%s\n", song.Band, song.Title, song.URL); err != nil {
		return err
	}
	if song.HasNotes() {
		_, err = fmt.Fprintln(out, song.Notes)
	}
	return err
}
