package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	papershelffs "github.com/fwojciec/papershelf/fs"
	papershelfhttp "github.com/fwojciec/papershelf/http"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the settings of a papershelf invocation.
//
// Values are layered: defaults, then the YAML config file, then the .env
// file, then the process environment, then command-line flags.
type Config struct {
	DBPath     string        `yaml:"db"`
	APIURL     string        `yaml:"api_url"`
	AuthURL    string        `yaml:"auth_url"`
	Workspace  string        `yaml:"workspace"`
	Excludes   []string      `yaml:"exclude"`
	RateLimit  float64       `yaml:"rate_limit"`
	Timeout    time.Duration `yaml:"timeout"`
	Opener     string        `yaml:"opener"`
	PageCounts bool          `yaml:"page_counts"`
}

// DefaultConfig returns the built-in settings. State lives under home.
func DefaultConfig(home string) Config {
	return Config{
		DBPath:     filepath.Join(home, ".papershelf", "papershelf.db"),
		APIURL:     "http://localhost:8000",
		AuthURL:    "http://localhost:8001",
		Workspace:  ".",
		Excludes:   slices.Clone(papershelffs.DefaultExcludes),
		RateLimit:  papershelfhttp.DefaultRateLimit,
		Timeout:    papershelfhttp.DefaultTimeout,
		Opener:     defaultOpener(),
		PageCounts: true,
	}
}

// DefaultConfigPath returns the location of the YAML config file under home.
func DefaultConfigPath(home string) string {
	return filepath.Join(home, ".papershelf", "config.yaml")
}

// LoadFile overlays settings from the YAML file at path.
// A missing file is not an error.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	} else if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Environment variables recognized by papershelf.
const (
	EnvDB        = "PAPERSHELF_DB"
	EnvAPIURL    = "PAPERSHELF_API_URL"
	EnvAuthURL   = "PAPERSHELF_AUTH_URL"
	EnvWorkspace = "PAPERSHELF_WORKSPACE"
	EnvOpener    = "PAPERSHELF_OPENER"
	EnvExclude   = "PAPERSHELF_EXCLUDE"
	EnvRateLimit = "PAPERSHELF_RATE_LIMIT"
	EnvTimeout   = "PAPERSHELF_TIMEOUT"
)

// ApplyEnv overlays settings from environment variables looked up with getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	setString := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	setString(&c.DBPath, EnvDB)
	setString(&c.APIURL, EnvAPIURL)
	setString(&c.AuthURL, EnvAuthURL)
	setString(&c.Workspace, EnvWorkspace)
	setString(&c.Opener, EnvOpener)

	if v := getenv(EnvExclude); v != "" {
		c.Excludes = nil
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				c.Excludes = append(c.Excludes, p)
			}
		}
	}
	if v := getenv(EnvRateLimit); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRateLimit, err)
		}
		c.RateLimit = rps
	}
	if v := getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		c.Timeout = d
	}
	return nil
}

// EnvWithDotEnv returns a lookup that prefers the process environment and
// falls back to the variables defined in the .env file at path.
// A missing .env file is not an error.
func EnvWithDotEnv(getenv func(string) string, path string) (func(string) string, error) {
	vars, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return getenv, nil
	} else if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return func(key string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return vars[key]
	}, nil
}

func defaultOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "windows":
		return "explorer"
	default:
		return "xdg-open"
	}
}
