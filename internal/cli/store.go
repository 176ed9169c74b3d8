package cli

import (
	"fmt"
	"log/slog"

	"github.com/idilsaglam/shoplist/internal/config"
	"github.com/idilsaglam/shoplist/internal/store"
	"github.com/idilsaglam/shoplist/internal/store/jsonstore"
	"github.com/idilsaglam/shoplist/internal/store/sqlitestore"
)

// OpenStore opens the backend named by cfg.Backend on cfg.DBPath.
func OpenStore(cfg config.Config, log *slog.Logger) (store.Store, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		return sqlitestore.Open(cfg.DBPath, sqlitestore.WithLogger(log))
	case config.BackendJSON:
		return jsonstore.Open(cfg.DBPath, log)
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}
