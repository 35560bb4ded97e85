package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fwojciec/papershelf"
	"golang.org/x/sync/errgroup"
)

// Run executes the upload command.
func (c *UploadCmd) Run(deps *Dependencies) error {
	if len(c.Paths) == 0 {
		fmt.Fprintln(deps.Stderr, "error: at least one PDF path required")
		return papershelf.Errorf(papershelf.EINVALID, "at least one PDF path required")
	}

	if !c.Quiet {
		printer := newProgressPrinter(deps.Stdout)
		deps.Dashboard.OnChange = printer.update
	}
	openDashboard(deps)

	var (
		mu       sync.Mutex
		failures []error
		uploaded int
	)
	g, ctx := errgroup.WithContext(deps.Ctx)
	g.SetLimit(max(c.Concurrency, 1))
	for _, path := range c.Paths {
		g.Go(func() error {
			abs, err := filepath.Abs(path)
			if err != nil {
				abs = path
			}

			doc, err := deps.Dashboard.RequestUpload(ctx, abs)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				fmt.Fprintf(deps.Stderr, "error: %s: %s\n", filepath.Base(path), papershelf.ErrorMessage(err))
				failures = append(failures, err)
				return nil
			}
			uploaded++
			fmt.Fprintf(deps.Stdout, "Uploaded %q (id %s)\n", doc.DisplayTitle(), doc.ID)
			return nil
		})
	}
	_ = g.Wait()

	if len(failures) == 0 {
		return nil
	}
	fmt.Fprintf(deps.Stderr, "%d of %d uploads failed\n", len(failures), len(c.Paths))
	if len(failures) == 1 {
		return failures[0]
	}
	return errors.Join(failures...)
}
