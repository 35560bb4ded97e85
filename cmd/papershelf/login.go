package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/fwojciec/papershelf"
)

// Run executes the login command.
func (c *LoginCmd) Run(deps *Dependencies) error {
	password := c.Password
	if password == "" && deps.Stdin != nil {
		line, err := bufio.NewReader(deps.Stdin).ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(deps.Stderr, "error: password required. Pass it on stdin or set PAPERSHELF_PASSWORD.")
			return papershelf.Errorf(papershelf.EINVALID, "password required")
		}
		password = strings.TrimRight(line, "\r\n")
	}

	creds, err := deps.Session.Login(deps.Ctx, c.Email, password)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", papershelf.ErrorMessage(err))
		return err
	}

	openDashboard(deps)

	fmt.Fprintf(deps.Stdout, "Signed in as %s\n", creds.Email)
	return nil
}

// Run executes the logout command.
func (c *LogoutCmd) Run(deps *Dependencies) error {
	if err := deps.Session.Logout(deps.Ctx); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", papershelf.ErrorMessage(err))
		return err
	}

	// The refresh fails without credentials; only the restored state matters.
	_ = deps.Dashboard.Open(deps.Ctx)
	deps.Dashboard.SetAuthenticated(deps.Ctx, false)

	fmt.Fprintln(deps.Stdout, "Signed out")
	return nil
}
