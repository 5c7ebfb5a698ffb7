package cmd

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/okarpov/jobforge/internal/logger"
	"github.com/okarpov/jobforge/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const defaultAddress = ":8080"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the jobforge HTTP API",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("address", "a", "", "listen address, overrides server.address")
	viper.BindPFlag("server.address", serveCmd.Flags().Lookup("address"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zlog, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		zlog.Fatal("getting a config", zap.Error(err))
	}

	zlog.Info("starting jobforge", zap.String("version", version))

	svc, err := buildServices(ctx, config, zlog)
	if err != nil {
		zlog.Fatal("initializing AI services", zap.Error(err))
	}

	address := defaultAddress
	if config.Server != nil && config.Server.Address != "" {
		address = config.Server.Address
	}

	api := server.New(address, svc.matcher, svc.postings, svc.health, zlog)

	if err := api.ListenAndServe(ctx); err != nil {
		zlog.Fatal("http api failed", zap.Error(err))
	}

	zlog.Info("shutdown complete")
}
