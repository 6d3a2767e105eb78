// Package remindcmd implements the `billbuzz remind` command.
package remindcmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/billbuzz/billbuzz/cmd/billbuzz/shared"
	"github.com/billbuzz/billbuzz/internal/app"
	"github.com/billbuzz/billbuzz/internal/notify"
)

// Command implements `billbuzz remind`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	date string
}

// New creates the remind command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "remind",
		Short: "Print the reminders a scheduler tick would produce now",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
	c.cmd.Flags().StringVar(&c.date, "date", "", "Evaluate as of this date (YYYY-MM-DD) instead of today")
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	cfg, err := c.ctx.Config()
	if err != nil {
		return err
	}
	cfg.Events.Enabled = false

	a, err := app.New(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	now := time.Now()
	if c.date != "" {
		day, err := time.ParseInLocation("2006-01-02", c.date, loc)
		if err != nil {
			return fmt.Errorf("--date: %w", err)
		}
		now = day
	}
	queries := a.PaymentQueries.WithClock(func() time.Time { return now })

	reminders := notify.Reminders(queries.Views(), queries.Today(), now)
	out := cmd.OutOrStdout()
	if len(reminders) == 0 {
		fmt.Fprintln(out, "No unpaid payments.")
		return nil
	}
	for _, n := range reminders {
		fmt.Fprintf(out, "[%s] %s: %s\n", n.Type, n.Title, n.Message)
	}
	return nil
}
