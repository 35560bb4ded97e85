package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/papershelf"
	"github.com/fwojciec/papershelf/auth"
	"github.com/fwojciec/papershelf/fs"
	pshttp "github.com/fwojciec/papershelf/http"
	"github.com/fwojciec/papershelf/library"
	"github.com/fwojciec/papershelf/pdf"
	pslog "github.com/fwojciec/papershelf/slog"
	"github.com/fwojciec/papershelf/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Home directory holding the default config and database.
	Home string

	// Path of the .env file merged under the process environment.
	EnvFile string

	// Environment lookup. Defaults to os.Getenv.
	Getenv func(string) string

	Stdin io.Reader

	// Config resolved by the last call to Run.
	Config Config

	// SQLite database used for local state.
	DB *sqlite.DB

	// Services for end-to-end testing.
	AuthService     papershelf.AuthService
	DocumentService papershelf.DocumentService
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Main{
		Home:    home,
		EnvFile: ".env",
		Getenv:  os.Getenv,
		Stdin:   os.Stdin,
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdin:  m.Stdin,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("papershelf"),
		kong.Description("Manage a personal PDF library backed by a semantic search service."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'papershelf --help' to see available commands")
	}

	switch args[0] {
	case "help", "--help", "-h":
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cfg, err := m.loadConfig(cli)
	if err != nil {
		return err
	}
	m.Config = cfg

	level := slog.LevelWarn
	if cli.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	deps.Logger = logger

	m.DB = sqlite.NewDB(cfg.DBPath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set %s to use a different database path\n", EnvDB)
		return fmt.Errorf("failed to open database at %q: %w", cfg.DBPath, err)
	}
	defer m.Close()
	store := sqlite.NewStateStore(m.DB)

	clientOpts := []pshttp.Option{
		pshttp.WithTimeout(cfg.Timeout),
		pshttp.WithRateLimit(cfg.RateLimit),
	}

	authService := m.AuthService
	if authService == nil {
		authService = pshttp.NewAuthService(pshttp.NewClient(cfg.AuthURL, clientOpts...))
	}
	provider := auth.NewProvider(store, pslog.NewLoggingAuthService(authService, logger))
	provider.Logger = logger
	deps.Session = provider

	documents := m.DocumentService
	if documents == nil {
		documents = pshttp.NewDocumentService(pshttp.NewClient(cfg.APIURL, clientOpts...), provider)
	}
	deps.Documents = pslog.NewLoggingDocumentService(documents, logger)

	scanner, err := fs.NewScanner(cfg.Workspace, cfg.Excludes)
	if err == nil {
		if info, statErr := os.Stat(scanner.Root()); statErr != nil {
			err = statErr
		} else if !info.IsDir() {
			err = papershelf.Errorf(papershelf.EINVALID, "not a directory")
		}
	}
	if err != nil {
		fmt.Fprintf(stderr, "Hint: Set %s or --workspace to a readable directory\n", EnvWorkspace)
		return fmt.Errorf("invalid workspace %q: %w", cfg.Workspace, err)
	}
	if cfg.PageCounts {
		scanner.Pages = pdf.NewPageCounter()
	}

	dashboard := library.NewDashboard(deps.Documents, pslog.NewLoggingWorkspaceScanner(scanner, logger), store)
	dashboard.Logger = logger
	defer func() {
		if err := dashboard.Close(); err != nil {
			logger.Warn("save dashboard", "err", err)
		}
	}()
	deps.Dashboard = dashboard

	if commandName(kongCtx) == "watch" {
		watcher, err := fs.NewWatcher(scanner.Root(), cfg.Excludes)
		if err != nil {
			return fmt.Errorf("failed to watch workspace: %w", err)
		}
		defer watcher.Close()
		deps.Watcher = watcher
	}

	deps.Open = commandOpener(cfg.Opener)

	return kongCtx.Run(deps)
}

// loadConfig layers the config file, .env file, environment and flags
// over the defaults.
func (m *Main) loadConfig(cli *CLI) (Config, error) {
	cfg := DefaultConfig(m.Home)

	path := cli.Config
	if path == "" {
		path = DefaultConfigPath(m.Home)
	}
	if err := cfg.LoadFile(path); err != nil {
		return Config{}, err
	}

	getenv, err := EnvWithDotEnv(m.Getenv, m.EnvFile)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.ApplyEnv(getenv); err != nil {
		return Config{}, err
	}

	for dst, v := range map[*string]string{
		&cfg.DBPath:    cli.DB,
		&cfg.APIURL:    cli.APIURL,
		&cfg.AuthURL:   cli.AuthURL,
		&cfg.Workspace: cli.Workspace,
	} {
		if v != "" {
			*dst = v
		}
	}
	return cfg, nil
}

func commandName(ctx *kong.Context) string {
	name, _, _ := strings.Cut(ctx.Command(), " ")
	return name
}

// commandOpener returns a function opening files with the named program.
func commandOpener(name string) func(string) error {
	return func(path string) error {
		if err := exec.Command(name, path).Run(); err != nil {
			return papershelf.Errorf(papershelf.EINTERNAL, "open %s with %s: %v", path, name, err)
		}
		return nil
	}
}
