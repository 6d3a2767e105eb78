// Package servecmd implements the `billbuzz serve` command.
package servecmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/billbuzz/billbuzz/cmd/billbuzz/shared"
	"github.com/billbuzz/billbuzz/internal/app"
	"github.com/billbuzz/billbuzz/internal/buildinfo"
)

const shutdownTimeout = 10 * time.Second

// Command implements `billbuzz serve`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	port string
}

// New creates the serve command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the reminder scheduler",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
	c.cmd.Flags().StringVar(&c.port, "port", "", "Listen port (overrides config)")
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := c.ctx.Config()
	if err != nil {
		return err
	}
	if c.port != "" {
		cfg.Server.Port = c.port
	}

	if !c.ctx.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Warn("Shutdown cleanup failed", "error", err)
		}
	}()

	a.Start(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("BillBuzz starting", "port", cfg.Server.Port, "storage", cfg.Storage.Driver, "version", buildinfo.Version)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
