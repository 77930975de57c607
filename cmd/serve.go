package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/hh-assessor/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the assessment API over HTTP",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("address", "a", "", "listen address (default is :8080)")

	viper.BindPFlag("server.address", serveCmd.Flags().Lookup("address"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config, logger := setup()
	defer logger.Sync()

	logger.Info("starting the hh-assessor", zap.String("version", version))

	st, err := newStore(ctx, config.Store, logger)
	if err != nil {
		logger.Fatal("creating a store", zap.Error(err))
	}
	defer st.Close()

	p := newPipeline(config, logger)

	opts := server.Options{}
	address := server.DefaultAddress
	if config.Server != nil {
		address = config.Server.Address
		if config.Server.RateLimit != nil {
			opts.RateLimitRequests = config.Server.RateLimit.Requests
			opts.RateLimitPer = config.Server.RateLimit.Per
		}
	}

	srv := server.New(server.Deps{
		Extractor: p.extractor,
		Generator: p.questions,
		Scorer:    p.scorer,
		Assistant: p.assistant,
		Quota:     p.generator,
		Store:     st,
	}, opts, logger.Named("http"))

	if err := srv.Run(ctx, address); err != nil {
		logger.Fatal("http server failed", zap.Error(err))
	}

	logger.Info("exiting", zap.String("reason", "shutdown requested"))
}
