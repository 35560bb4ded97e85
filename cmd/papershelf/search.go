package main

import (
	"fmt"

	"github.com/fwojciec/papershelf"
)

// Run executes the search command.
func (c *SearchCmd) Run(deps *Dependencies) error {
	result, err := deps.Documents.SearchDocuments(deps.Ctx, c.Query, c.TopK)
	if err != nil {
		if papershelf.ErrorCode(err) == papershelf.EUNAUTHORIZED {
			fmt.Fprintln(deps.Stderr, "error: not signed in. Use 'papershelf login' first.")
			return err
		}
		fmt.Fprintf(deps.Stderr, "error: %s\n", papershelf.ErrorMessage(err))
		return err
	}

	if c.JSON {
		return writeJSON(deps.Stdout, result)
	}
	renderSearch(deps.Stdout, result)
	return nil
}
