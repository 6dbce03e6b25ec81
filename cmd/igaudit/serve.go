package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"igaudit/pkg/cache"
	"igaudit/pkg/logger"
	"igaudit/pkg/server"
)

var (
	serveListen   string
	serveProvider string
	serveFixtures string
	serveCache    string
	serveAccount  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the classification HTTP API",
	Long: `Start an HTTP server exposing:

  GET  /api/v1/classify?username=NAME
  POST /api/v1/classify   {"username": "NAME"}
  GET  /healthz

The server stops gracefully on SIGINT or SIGTERM.`,
	Example: `  igaudit serve --listen :9000 --cache redis`,
	Args:    cobra.NoArgs,
	RunE:    runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (default from config, :8080)")
	serveCmd.Flags().StringVar(&serveProvider, "provider", "", "profile source (mock, instagram)")
	serveCmd.Flags().StringVar(&serveFixtures, "fixtures", "", "YAML fixture file for the mock provider")
	serveCmd.Flags().StringVar(&serveCache, "cache", "", "cache backend (none, memory, redis, memcached)")
	serveCmd.Flags().StringVar(&serveAccount, "account", "", "stored session to use with the instagram provider")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(map[string]interface{}{
		"listen":        serveListen,
		"provider":      serveProvider,
		"fixtures":      serveFixtures,
		"cache-backend": serveCache,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg, serveAccount)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := server.New(cfg, a.detector, logger.GetLogger())
	if p, ok := a.cache.(cache.Pinger); ok {
		srv.AddHealthCheck("cache", p)
	}

	logger.WithFields(map[string]interface{}{
		"address":  cfg.Server.Address,
		"provider": a.provider.Name(),
		"cache":    cfg.Cache.Backend,
	}).Info("igaudit API listening")

	return srv.Run(ctx)
}
