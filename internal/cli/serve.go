package cli

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jportela/comanda/internal/cart"
	"github.com/jportela/comanda/internal/config"
	"github.com/jportela/comanda/internal/httpx"
	"github.com/jportela/comanda/internal/orders"
	"github.com/jportela/comanda/internal/pkg/telemetry"
	"github.com/jportela/comanda/internal/session"
)

// NewServeCommand starts the order API for this till.
func NewServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the order-taking API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	telemetry.InitLogger()

	shutdown, err := telemetry.SetupTracer(ctx, "comanda")
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Error("tracer shutdown failed", "error", err)
		}
	}()

	store, closeStore, err := openOrderStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	stateStore, err := openStateStore(cfg)
	if err != nil {
		return err
	}

	// Restore whatever the attendant had in flight before the restart.
	c := cart.Load(ctx, stateStore)
	sm := session.Load(ctx, stateStore)

	svc := orders.NewService(store)
	if err := svc.Reload(ctx); err != nil {
		// Start anyway; the pending view stays empty until the store
		// answers and every mutation retriggers a reload.
		slog.Error("initial reload failed", "error", err)
	}

	router := httpx.NewRouter(httpx.NewHandler(c, sm, svc))

	slog.Info("comanda serving", "addr", cfg.HTTP.Addr, "orders_driver", cfg.Orders.Driver)
	if err := http.ListenAndServe(cfg.HTTP.Addr, router); err != nil {
		return err
	}
	return nil
}
