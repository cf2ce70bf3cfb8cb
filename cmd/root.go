// Package cmd implements spbctl, a command-line driver for running an edge
// node or a host application against a real broker, built on top of the
// node/host/config packages the same way a real integration would be.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/joyautomation/synapse-go/internal/build"
	"github.com/joyautomation/synapse-go/internal/cleanup"
)

// RootCommand is the root command of spbctl.
var RootCommand = &cobra.Command{
	Use:     "spbctl",
	Short:   "Run a Sparkplug B edge node or host application.",
	Long:    `spbctl drives the edge-node and host-application state machines against a real MQTT broker.`,
	Version: build.Version(),
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		cleanup.Cleanup()
	},
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	SilenceErrors:     true,
	SilenceUsage:      true,
}

func init() {
	cobra.EnableCommandSorting = false
	RootCommand.SetVersionTemplate(BannerTemplate())
	RootCommand.SetHelpTemplate(RootCommand.HelpTemplate() + "\n" + fullDocsFooter + "\n")
	RootCommand.AddGroup(&cobra.Group{ID: "commands", Title: "Commands:"})
	RootCommand.AddCommand(NewCmdNode(), NewCmdHost())
}

// AddCleanup registers f to run once, in order, as part of RootCommand's
// PersistentPostRun, backed by the process-wide internal/cleanup registry
// rather than a package-local slice.
func AddCleanup(f ...func()) {
	for _, fn := range f {
		cleanup.Register(fn)
	}
}

// Execute runs RootCommand.
func Execute() error {
	_, err := RootCommand.ExecuteC()
	return err
}
