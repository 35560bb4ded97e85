package main

import (
	"fmt"
	"math"
	"time"

	"github.com/fwojciec/papershelf"
	"github.com/fwojciec/papershelf/jwt"
)

// Run executes the status command.
func (c *StatusCmd) Run(deps *Dependencies) error {
	creds, err := deps.Session.StoredCredentials(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", papershelf.ErrorMessage(err))
		return err
	}

	if creds == nil {
		fmt.Fprintln(deps.Stdout, "Not signed in. Use 'papershelf login' to sign in.")
	} else {
		fmt.Fprintf(deps.Stdout, "Signed in as %s\n", creds.Email)
		if exp, ok, err := jwt.ExpiresAt(creds.AccessToken); err == nil && ok {
			fmt.Fprintf(deps.Stdout, "Access token expires %s\n", exp.Local().Format(time.RFC1123))
		}
	}

	openDashboard(deps)

	var uploaded, local int
	for _, e := range deps.Dashboard.Entries() {
		switch e.Kind {
		case papershelf.KindUploaded:
			uploaded++
		case papershelf.KindWorkspace:
			local++
		}
	}
	fmt.Fprintf(deps.Stdout, "%d uploaded, %d not uploaded\n", uploaded, local)

	uploads := deps.Dashboard.Uploads()
	if len(uploads) == 0 {
		return nil
	}
	fmt.Fprintf(deps.Stdout, "%d uploads in flight:\n", len(uploads))
	for _, u := range uploads {
		fmt.Fprintf(deps.Stdout, "  %s  %d%%\n", u.Path, int(math.Floor(u.Progress)))
	}
	return nil
}
