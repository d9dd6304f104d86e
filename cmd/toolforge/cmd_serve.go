package main

import (
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"toolforge/internal/builtin"
	"toolforge/internal/logging"
	"toolforge/internal/sandbox"
	"toolforge/internal/server"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the tool catalog over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := openApp(ctx, cfg, prometheus.DefaultRegisterer)
		if err != nil {
			return err
		}
		defer a.Close()

		listen := cfg.Server.Listen
		if serveListen != "" {
			listen = serveListen
		}
		logging.Boot("toolforge serving %d tools on %s", a.svc.Registry().Len(), listen)

		srv := server.New(a.svc, server.Options{
			Listen:   listen,
			Mode:     cfg.Server.Mode,
			Gatherer: prometheus.DefaultGatherer,
		})
		return srv.Run(ctx)
	},
}

// workerCmd is started by the sandbox for every built-in invocation. It
// reads one request from stdin and writes one result line to stdout.
var workerCmd = &cobra.Command{
	Use:    "worker",
	Short:  "Run one built-in tool invocation (internal)",
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return sandbox.Serve(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), builtin.Default(), cfg.Execution.StackFrames)
	},
}
