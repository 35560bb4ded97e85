package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fwojciec/papershelf"
)

// Run executes the open command.
func (c *OpenCmd) Run(deps *Dependencies) error {
	openDashboard(deps)

	ref := c.Ref
	if strings.EqualFold(filepath.Ext(ref), ".pdf") {
		if abs, err := filepath.Abs(ref); err == nil {
			ref = abs
		}
	}

	path, err := deps.Dashboard.RequestOpen(deps.Ctx, ref)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", papershelf.ErrorMessage(err))
		return err
	}

	if err := deps.Open(path); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", papershelf.ErrorMessage(err))
		return err
	}

	fmt.Fprintln(deps.Stdout, path)
	return nil
}
