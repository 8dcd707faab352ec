package cli

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/specimen/internal/adapters/driving/api"
	"github.com/custodia-labs/specimen/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Starts the JSON HTTP API for storing, fetching, searching and tagging
samples and running command chains.

Host and port default to api.host and api.port from the configuration.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("host", "", "bind host (overrides api.host)")
	serveCmd.Flags().IntP("port", "p", 0, "bind port (overrides api.port)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	host, err := cmd.Flags().GetString("host")
	if err != nil {
		return fmt.Errorf("getting host flag: %w", err)
	}
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	settings := appSettings.API
	if host != "" {
		settings.Host = host
	}
	if port > 0 {
		settings.Port = port
	}

	server, err := api.NewServer(api.Ports{
		Samples:    sampleService,
		Projects:   projectService,
		Dispatcher: dispatcher,
	}, api.ConfigFromSettings(settings))
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(settings.Host, strconv.Itoa(settings.Port))
	fmt.Fprintf(cmd.OutOrStdout(), "API listening on http://%s\n", addr)
	logger.Info("rate limit %.1f req/s, burst %d", settings.RateLimit, settings.Burst)
	return server.Run(cmd.Context())
}
