// Package relaycmd implements the `billbuzz relay` command.
package relaycmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/billbuzz/billbuzz/cmd/billbuzz/shared"
	"github.com/billbuzz/billbuzz/shared/events"
	sharedredis "github.com/billbuzz/billbuzz/shared/redis"
)

// Command implements `billbuzz relay`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	group    string
	consumer string
	replay   bool
}

// New creates the relay command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "relay",
		Short: "Print native notifications published by a running server",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}

	f := c.cmd.Flags()
	f.StringVar(&c.group, "group", "billbuzz-relay", "Consumer group name")
	f.StringVar(&c.consumer, "consumer", "", "Consumer name (default: hostname)")
	f.BoolVar(&c.replay, "replay", false, "Start a new group from the beginning of the stream")

	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	cfg, err := c.ctx.Config()
	if err != nil {
		return err
	}

	consumer := c.consumer
	if consumer == "" {
		if consumer, err = os.Hostname(); err != nil {
			consumer = "relay"
		}
	}

	r := cfg.Storage.Redis
	client, err := sharedredis.NewClient(cmd.Context(), sharedredis.Options{Addr: r.Addr, Password: r.Password, DB: r.DB})
	if err != nil {
		return err
	}
	defer client.Close()

	subCfg := events.SubscriberConfig{
		Group:    c.group,
		Consumer: consumer,
		Stream:   events.NotificationEventsStream,
		Handler:  Printer(cmd.OutOrStdout()),
	}
	if c.replay {
		subCfg.StartID = "0"
	}
	err = events.NewSubscriber(client.Client, subCfg).Start(cmd.Context())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Printer renders shown notifications as one line each and ignores closes.
func Printer(w io.Writer) events.Handler {
	return func(_ context.Context, event events.Event) error {
		if event.Type != events.NotificationShown {
			return nil
		}
		var n events.NativeNotificationEvent
		if err := events.DecodeData(event, &n); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "%s  %s: %s [%s]\n", event.Timestamp.Local().Format("15:04"), n.Title, n.Body, n.Tag)
		return err
	}
}
