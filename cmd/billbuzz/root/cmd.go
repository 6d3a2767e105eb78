// Package rootcmd wires the root cobra.Command for the billbuzz binary.
package rootcmd

import (
	"github.com/spf13/cobra"

	relaycmd "github.com/billbuzz/billbuzz/cmd/billbuzz/relay"
	remindcmd "github.com/billbuzz/billbuzz/cmd/billbuzz/remind"
	servecmd "github.com/billbuzz/billbuzz/cmd/billbuzz/serve"
	"github.com/billbuzz/billbuzz/cmd/billbuzz/shared"
	versioncmd "github.com/billbuzz/billbuzz/cmd/billbuzz/version"
)

// New creates and returns the root cobra.Command.
func New() *cobra.Command {
	ctx := &shared.Context{}

	root := &cobra.Command{
		Use:           "billbuzz",
		Short:         "BillBuzz - bill and payment reminders",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			ctx.SetupLogging()
		},
		RunE: func(cmd *cobra.Command, _ []string) error { return cmd.Help() },
	}

	root.PersistentFlags().StringVar(&ctx.ConfigPath, "config", "billbuzz.yaml", "Path to the YAML config file (missing file means defaults)")
	root.PersistentFlags().BoolVarP(&ctx.Verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		servecmd.New(ctx).Cmd(),
		remindcmd.New(ctx).Cmd(),
		relaycmd.New(ctx).Cmd(),
		versioncmd.New(ctx).Cmd(),
	)

	return root
}
