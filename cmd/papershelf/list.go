package main

import (
	"fmt"
)

// Run executes the list command.
func (c *ListCmd) Run(deps *Dependencies) error {
	openDashboard(deps)

	entries := deps.Dashboard.Entries()
	if c.JSON {
		return writeJSON(deps.Stdout, entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(deps.Stdout, "No documents found. Use 'papershelf upload' to add PDFs.")
		return nil
	}
	return renderEntries(deps.Stdout, entries)
}
