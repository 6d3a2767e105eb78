// Package versioncmd implements the `billbuzz version` command.
package versioncmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/billbuzz/billbuzz/cmd/billbuzz/shared"
	"github.com/billbuzz/billbuzz/internal/buildinfo"
)

// Command implements `billbuzz version`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the version command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "billbuzz %s (commit %s, built %s)\n",
		buildinfo.Version, buildinfo.GitCommit, buildinfo.BuildDate)
	return err
}
