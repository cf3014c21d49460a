// flowgrid-server serves the flow editor over plain HTTP for browser
// frontends and scripting, as an alternative to the desktop shell.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/chamlis/flowgrid/pkg/api"
)

var (
	addr     string
	logLevel string

	rootCmd = &cobra.Command{
		Use:   "flowgrid-server",
		Short: "Serve a FlowGrid flow graph over HTTP",
		RunE:  runServe,
	}
)

func init() {
	rootCmd.Flags().StringVar(&addr, "addr", ":3000", "listen address")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
}

func runServe(cmd *cobra.Command, args []string) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	srv := api.NewServer(logger)
	logger.Info("listening", "addr", addr)
	return srv.App().Listen(addr)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
