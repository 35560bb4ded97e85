package main

import (
	"fmt"
	"time"

	"github.com/fwojciec/papershelf"
	"golang.org/x/sync/errgroup"
)

// Run executes the watch command. It re-renders the library view whenever
// the workspace changes or the periodic refresh completes, until interrupted.
func (c *WatchCmd) Run(deps *Dependencies) error {
	if deps.Watcher == nil {
		return papershelf.Errorf(papershelf.EINTERNAL, "workspace watcher not configured")
	}

	changed := make(chan struct{}, 1)
	deps.Dashboard.OnChange = func([]papershelf.LibraryEntry) {
		select {
		case changed <- struct{}{}:
		default:
		}
	}
	openDashboard(deps)

	interval := c.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	g, ctx := errgroup.WithContext(deps.Ctx)
	refresh := func() {
		if err := deps.Dashboard.Refresh(ctx); err != nil && ctx.Err() == nil {
			deps.Logger.Warn("refresh library", "err", err)
		}
	}

	g.Go(func() error {
		return deps.Watcher.Watch(ctx, refresh)
	})
	g.Go(func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				refresh()
			}
		}
	})
	g.Go(func() error {
		if err := c.render(deps); err != nil {
			return err
		}
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-changed:
				if err := c.render(deps); err != nil {
					return err
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", papershelf.ErrorMessage(err))
		return err
	}
	return nil
}

func (c *WatchCmd) render(deps *Dependencies) error {
	fmt.Fprintf(deps.Stdout, "\n%s\n", time.Now().Format(time.TimeOnly))
	return renderEntries(deps.Stdout, deps.Dashboard.Entries())
}
