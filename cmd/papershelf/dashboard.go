package main

import (
	"fmt"

	"github.com/fwojciec/papershelf"
)

// openDashboard restores and refreshes the library view. Refresh failures
// are reported as warnings since the restored view is still usable.
func openDashboard(deps *Dependencies) {
	err := deps.Dashboard.Open(deps.Ctx)
	switch {
	case err == nil:
	case papershelf.ErrorCode(err) == papershelf.EUNAUTHORIZED:
		fmt.Fprintln(deps.Stderr, "warning: not signed in. Use 'papershelf login' to see uploaded documents.")
	default:
		fmt.Fprintf(deps.Stderr, "warning: %s\n", papershelf.ErrorMessage(err))
	}
}
