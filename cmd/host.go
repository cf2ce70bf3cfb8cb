package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joyautomation/synapse-go/config"
	"github.com/joyautomation/synapse-go/host"
	"github.com/joyautomation/synapse-go/log"
)

var (
	hostPrimaryHostID string
	hostSharedGroup   string
)

// NewCmdHost returns the "host" command group.
func NewCmdHost() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "host",
		Short:   "Run a primary host application",
		GroupID: "commands",
	}

	cmd.AddCommand(NewCmdHostRun())

	return cmd
}

// NewCmdHostRun returns the "host run" command: it connects a primary host
// application, publishes the retained ONLINE STATE message, subscribes the
// full Sparkplug namespace, and mirrors every node/device it observes until
// a signal is received, at which point OFFLINE is published and the
// session is closed.
func NewCmdHostRun() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		Aliases: []string{"start"},
		Short:   "Connect a host application and run until a signal is received",
		PreRunE: func(cmd *cobra.Command, args []string) (err error) {
			if err = PrintBanner(cmd); err != nil {
				return err
			}

			if cfg, err = config.Load(findConfig()); err != nil {
				return err
			}

			if err = applyTransportFlags(&cfg.Host.Transport); err != nil {
				return err
			}
			if err = flagsToLogLevel(&cfg.Host.Log.Level); err != nil {
				return err
			}

			if hostPrimaryHostID != "" {
				cfg.Host.PrimaryHostID = hostPrimaryHostID
			}
			if hostSharedGroup != "" {
				cfg.Host.SharedSubscriptionGroup = hostSharedGroup
			}

			setLogHandler(&cfg.Host.Log, log.LevelInfo)

			return nil
		},
		RunE: runHost,
	}

	addTransportFlags(cmd)
	cmd.Flags().StringVar(&hostPrimaryHostID, "primary-host-id", "", "Primary host id used in STATE/<id>")
	cmd.Flags().StringVar(&hostSharedGroup, "shared-group", "", "Shared subscription group for NDATA/DDATA")

	return cmd
}

// topologyLogInterval is how often a running "host run" logs a summary of
// the nodes/devices it currently mirrors.
const topologyLogInterval = 30 * time.Second

func runHost(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	h, err := host.NewFromConfig(cfg.Host)
	if err != nil {
		return &ExitError{err, 1}
	}

	h.Events().On(string(host.EventError), func(e host.Event) {
		log.WarnError("host transport error", e.Err)
	})
	h.Events().On(string(host.EventNBirth), func(e host.Event) {
		log.Info("node born", "group", e.Group, "node", e.Node)
	})
	h.Events().On(string(host.EventNDeath), func(e host.Event) {
		log.Info("node died", "group", e.Group, "node", e.Node)
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

	if err := h.Connect(ctx); err != nil {
		return &ExitError{err, 1}
	}

	log.Info("host connected", "primary_host_id", cfg.Host.PrimaryHostID)

	ticker := time.NewTicker(topologyLogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down host")
			return h.Disconnect(context.Background())
		case <-ticker.C:
			logTopology(h)
		}
	}
}

func logTopology(h *host.Host) {
	groups := h.Topology().Flatten()

	nodes, devices := 0, 0
	for _, g := range groups {
		nodes += len(g.Nodes)
		for _, n := range g.Nodes {
			devices += len(n.Devices)
		}
	}

	log.Info("topology snapshot", "groups", len(groups), "nodes", nodes, "devices", devices)
}
