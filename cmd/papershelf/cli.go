package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/papershelf"
	"github.com/fwojciec/papershelf/library"
)

// Session signs the user in and out of the authentication service.
type Session interface {
	Login(ctx context.Context, email, password string) (*papershelf.Credentials, error)
	Logout(ctx context.Context) error
	StoredCredentials(ctx context.Context) (*papershelf.Credentials, error)
}

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx       context.Context
	Stdin     io.Reader
	Stdout    io.Writer
	Stderr    io.Writer
	Logger    *slog.Logger
	Session   Session
	Documents papershelf.DocumentService
	Dashboard *library.Dashboard
	Watcher   papershelf.WorkspaceWatcher

	// Open hands a local file to the system viewer.
	Open func(path string) error
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config    string `help:"Path to the YAML config file" placeholder:"PATH"`
	DB        string `name:"db" help:"Path to the local state database" placeholder:"PATH"`
	APIURL    string `name:"api-url" help:"Base URL of the document service" placeholder:"URL"`
	AuthURL   string `name:"auth-url" help:"Base URL of the authentication service" placeholder:"URL"`
	Workspace string `short:"w" help:"Workspace directory scanned for PDFs" placeholder:"DIR"`
	Verbose   bool   `short:"v" help:"Log debug output to stderr"`

	Login  LoginCmd  `cmd:"" help:"Sign in to the document service"`
	Logout LogoutCmd `cmd:"" help:"Sign out and forget stored credentials"`
	Status StatusCmd `cmd:"" help:"Show sign-in state and uploads in flight"`
	List   ListCmd   `cmd:"" help:"List the library: uploaded documents and workspace PDFs"`
	Upload UploadCmd `cmd:"" help:"Upload PDF files to the document service"`
	Delete DeleteCmd `cmd:"" help:"Delete a document from the document service"`
	Clear  ClearCmd  `cmd:"" help:"Delete every document from the document service"`
	Search SearchCmd `cmd:"" help:"Search the content of uploaded documents"`
	Open   OpenCmd   `cmd:"" help:"Open the local file of a library entry"`
	Watch  WatchCmd  `cmd:"" help:"Watch the workspace and keep the library view current"`
}

// LoginCmd is the "login" subcommand.
type LoginCmd struct {
	Email    string `arg:"" help:"Account email"`
	Password string `env:"PAPERSHELF_PASSWORD" help:"Account password, read from stdin when empty"`
}

// LogoutCmd is the "logout" subcommand.
type LogoutCmd struct{}

// StatusCmd is the "status" subcommand.
type StatusCmd struct{}

// ListCmd is the "list" subcommand.
type ListCmd struct {
	JSON bool `help:"Print entries as JSON"`
}

// UploadCmd is the "upload" subcommand.
type UploadCmd struct {
	Paths       []string `arg:"" help:"PDF files to upload" type:"path"`
	Concurrency int      `short:"c" default:"3" help:"Concurrent upload limit"`
	Quiet       bool     `short:"q" help:"Do not print upload progress"`
}

// DeleteCmd is the "delete" subcommand.
type DeleteCmd struct {
	ID    string `arg:"" help:"Document ID"`
	Force bool   `help:"Confirm deletion"`
}

// ClearCmd is the "clear" subcommand.
type ClearCmd struct {
	Force bool `help:"Confirm deletion of all documents"`
}

// SearchCmd is the "search" subcommand.
type SearchCmd struct {
	Query string `arg:"" help:"Question or search terms"`
	TopK  int    `name:"top-k" short:"k" default:"10" help:"Number of passages to retrieve"`
	JSON  bool   `help:"Print the result as JSON"`
}

// OpenCmd is the "open" subcommand.
type OpenCmd struct {
	Ref string `arg:"" help:"Library entry ID or file path"`
}

// WatchCmd is the "watch" subcommand.
type WatchCmd struct {
	Interval time.Duration `default:"30s" help:"Interval between backend refreshes"`
}
