package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joyautomation/synapse-go/config"
	"github.com/joyautomation/synapse-go/log"
	"github.com/joyautomation/synapse-go/node"
)

var (
	nodeGroupID    string
	nodeEdgeNodeID string
)

// NewCmdNode returns the "node" command group.
func NewCmdNode() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "node",
		Short:   "Run an edge node",
		GroupID: "commands",
	}

	cmd.AddCommand(NewCmdNodeRun())

	return cmd
}

// NewCmdNodeRun returns the "node run" command: it connects an edge node to
// the configured broker, publishing NBIRTH and every configured device's
// DBIRTH, then blocks until SIGINT/SIGTERM, at which point NDEATH is
// published and the session is closed.
func NewCmdNodeRun() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		Aliases: []string{"start"},
		Short:   "Connect an edge node and run until a signal is received",
		PreRunE: func(cmd *cobra.Command, args []string) (err error) {
			if err = PrintBanner(cmd); err != nil {
				return err
			}

			if cfg, err = config.Load(findConfig()); err != nil {
				return err
			}

			if err = applyTransportFlags(&cfg.Node.Transport); err != nil {
				return err
			}
			if err = flagsToLogLevel(&cfg.Node.Log.Level); err != nil {
				return err
			}

			if nodeGroupID != "" {
				cfg.Node.GroupID = nodeGroupID
			}
			if nodeEdgeNodeID != "" {
				cfg.Node.EdgeNodeID = nodeEdgeNodeID
			}

			setLogHandler(&cfg.Node.Log, log.LevelInfo)

			return nil
		},
		RunE: runNode,
	}

	addTransportFlags(cmd)
	cmd.Flags().StringVar(&nodeGroupID, "group-id", "", "Sparkplug group id")
	cmd.Flags().StringVar(&nodeEdgeNodeID, "edge-node-id", "", "Sparkplug edge node id")

	return cmd
}

func runNode(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	n, err := node.NewFromConfig(cfg.Node)
	if err != nil {
		return &ExitError{err, 1}
	}

	n.Events().On(string(node.EventError), func(e node.Event) {
		log.WarnError("node transport error", e.Err)
	})
	n.Events().On(string(node.EventNCmd), func(e node.Event) {
		log.Debug("node received NCMD", "topic", e.Topic)
	})

	if Watch {
		if path := findConfig(); path != "" {
			go func() {
				err := config.Watch(ctx, path, func(fresh *config.Config) {
					log.Info("config changed, reconnect to apply", "path", path)
				})
				if err != nil {
					log.WarnError("config watch stopped", err)
				}
			}()
		}
	}

	if err := n.Connect(ctx); err != nil {
		return &ExitError{err, 1}
	}

	log.Info("edge node connected", "group_id", cfg.Node.GroupID, "edge_node_id", cfg.Node.EdgeNodeID)

	<-ctx.Done()

	log.Info("shutting down edge node")

	return n.Disconnect(context.Background())
}
