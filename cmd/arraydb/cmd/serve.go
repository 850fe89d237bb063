/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ssargent/arraydb/pkg/api"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start the ArrayDB REST API server over the configured store.

Records are served under /api/v1/records, Prometheus metrics under
/metrics and the API description under /swagger/index.html. When server.api_key is configured every /api/v1 request needs a
matching X-API-Key header.

Examples:
  arraydb serve
  arraydb serve --port 9200 --bind 0.0.0.0`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		container, err := containerFrom(cmd)
		if err != nil {
			return err
		}
		records, err := storeFrom(cmd)
		if err != nil {
			return err
		}

		cfg := container.Config()
		serverConfig := api.ServerConfig{
			Port:     cfg.Server.Port,
			Bind:     cfg.Server.Bind,
			APIKey:   cfg.Server.APIKey,
			Gatherer: container.Registry(),
		}
		if cmd.Flags().Changed("port") {
			serverConfig.Port, _ = cmd.Flags().GetInt("port")
		}
		if cmd.Flags().Changed("bind") {
			serverConfig.Bind, _ = cmd.Flags().GetString("bind")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		logger := container.Logger()
		server := api.NewServer[int64](records, serverConfig, api.NewMetrics(container.Registry()), logger)
		if err := server.ListenAndServe(ctx); err != nil {
			logger.Error("server stopped", zap.Error(err))
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on (overrides config)")
	serveCmd.Flags().String("bind", "127.0.0.1", "Address to bind (overrides config)")
}
