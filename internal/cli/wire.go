package cli

import (
	"context"
	"fmt"

	"github.com/jportela/comanda/internal/config"
	"github.com/jportela/comanda/internal/core/ports"
	"github.com/jportela/comanda/internal/orders/memory"
	"github.com/jportela/comanda/internal/orders/postgres"
	"github.com/jportela/comanda/internal/orders/sqlite"
	"github.com/jportela/comanda/internal/state"
)

// openOrderStore builds the durable order store selected by the config.
// The returned closer is a no-op for the memory driver.
func openOrderStore(ctx context.Context, cfg *config.Config) (ports.OrderStore, func() error, error) {
	switch cfg.Orders.Driver {
	case "sqlite":
		store, err := sqlite.Open(cfg.Orders.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case "postgres":
		store, err := postgres.Open(ctx, cfg.Orders.DSN)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case "memory":
		return memory.New(), func() error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("unknown orders driver %q", cfg.Orders.Driver)
}

// openStateStore builds the lightweight session state store.
func openStateStore(cfg *config.Config) (ports.StateStore, error) {
	switch cfg.State.Driver {
	case "file":
		return state.NewFileStore(cfg.State.Dir)
	case "redis":
		return state.NewRedisStore(cfg.State.Redis.Addr, cfg.State.Redis.Device), nil
	}
	return nil, fmt.Errorf("unknown state driver %q", cfg.State.Driver)
}
