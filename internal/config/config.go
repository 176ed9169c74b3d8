package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/idilsaglam/shoplist/internal/model"
)

// Storage backends selectable with Backend.
const (
	BackendSQLite = "sqlite"
	BackendJSON   = "json"
)

// Config holds the settings shared by the CLI and the TUI.
type Config struct {
	DBPath   string
	Backend  string
	Theme    string
	Sort     string
	Order    string
	LogLevel string
	LogFile  string
}

// Default returns the built-in settings: a SQLite file in the working
// directory, newest items first.
func Default() Config {
	return Config{
		DBPath:   "shopping.db",
		Backend:  BackendSQLite,
		Theme:    "classic",
		Sort:     "added",
		Order:    "desc",
		LogLevel: "warn",
	}
}

// FromEnv starts from Default and applies any SHOPLIST_* variables.
func FromEnv() Config {
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) Config {
	c := Default()
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(&c.DBPath, "SHOPLIST_DB")
	set(&c.Backend, "SHOPLIST_BACKEND")
	set(&c.Theme, "SHOPLIST_THEME")
	set(&c.Sort, "SHOPLIST_SORT")
	set(&c.Order, "SHOPLIST_ORDER")
	set(&c.LogLevel, "SHOPLIST_LOG_LEVEL")
	set(&c.LogFile, "SHOPLIST_LOG_FILE")
	return c
}

// Validate rejects values the rest of the program cannot act on.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("database path is empty")
	}
	switch c.Backend {
	case BackendSQLite, BackendJSON:
	default:
		return fmt.Errorf("unknown backend %q (want sqlite|json)", c.Backend)
	}
	switch strings.ToLower(c.Theme) {
	case "classic", "neon", "mono":
	default:
		return fmt.Errorf("unknown theme %q (want classic|neon|mono)", c.Theme)
	}
	if _, err := model.ParseSortField(c.Sort); err != nil {
		return err
	}
	if _, err := model.ParseSortDirection(c.Order); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// View returns the configured default ordering. Call Validate first.
func (c Config) View() (model.SortField, model.SortDirection) {
	f, _ := model.ParseSortField(c.Sort)
	d, _ := model.ParseSortDirection(c.Order)
	return f, d
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", c.LogLevel)
	}
	return lvl, nil
}
