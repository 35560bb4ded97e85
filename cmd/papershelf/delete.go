package main

import (
	"fmt"

	"github.com/fwojciec/papershelf"
)

// Run executes the delete command.
func (c *DeleteCmd) Run(deps *Dependencies) error {
	if !c.Force {
		fmt.Fprintf(deps.Stderr, "error: use --force to confirm deletion\n")
		return papershelf.Errorf(papershelf.EINVALID, "use --force to confirm deletion")
	}

	openDashboard(deps)

	if err := deps.Dashboard.RequestDelete(deps.Ctx, c.ID); err != nil {
		if papershelf.ErrorCode(err) == papershelf.ENOTFOUND {
			fmt.Fprintf(deps.Stderr, "error: document %q not found. Use 'papershelf list' to see available documents.\n", c.ID)
			return err
		}
		fmt.Fprintf(deps.Stderr, "error: %s\n", papershelf.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Deleted document %s\n", c.ID)
	return nil
}

// Run executes the clear command.
func (c *ClearCmd) Run(deps *Dependencies) error {
	if !c.Force {
		fmt.Fprintf(deps.Stderr, "error: use --force to confirm deletion of all documents\n")
		return papershelf.Errorf(papershelf.EINVALID, "use --force to confirm deletion")
	}

	openDashboard(deps)

	result, err := deps.Dashboard.ClearLibrary(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", papershelf.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Deleted %d of %d documents\n", result.DeletedCount, result.TotalCount)
	for _, f := range result.Failed {
		fmt.Fprintf(deps.Stderr, "warning: could not delete %s\n", f)
	}
	return nil
}
