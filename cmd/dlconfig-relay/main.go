package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/godtiergamers/dlconfig/internal/config"
	"github.com/godtiergamers/dlconfig/internal/metrics"
	"github.com/godtiergamers/dlconfig/internal/relay"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var version = "dev"

func setupLogger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return log
}

func run(log *logrus.Logger, cmd *cobra.Command) error {
	relayCfg, err := config.NewRelayConfigFromEnv()
	if err != nil {
		return err
	}
	relayCfg.Version = version
	if cmd.Flags().Changed("port") {
		relayCfg.Port, _ = cmd.Flags().GetString("port")
	}
	if len(relayCfg.AllowedOrigins) == 0 {
		log.Warn("ALLOWED_ORIGINS is empty, every relay request will be rejected")
	}

	if !relayCfg.DisableMetrics {
		log.Println("setting up metrics exporter...")
		exporter, err := metrics.NewExporter(relayCfg)
		if err != nil {
			return err
		}
		defer exporter.Flush()
		defer exporter.StopMetricsExporter()
	}

	log.Println("starting server...")
	srv := &http.Server{
		Addr:              relayCfg.GetServerAddr(),
		Handler:           relay.New(log, relayCfg),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("listening on %s (stage=%s, version=%s)", srv.Addr, relayCfg.Stage, relayCfg.Version)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Error(err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	log.Println("stopping server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); errors.Is(err, context.DeadlineExceeded) {
		log.Println("closing server...")
		if closeErr := srv.Close(); closeErr != nil {
			return closeErr
		}
	} else if err != nil {
		return err
	}
	log.Println("server stopped!")
	return nil
}

func main() {
	log := setupLogger()
	cmd := &cobra.Command{
		Use:     "dlconfig-relay",
		Short:   "Relay DiscordLogger webhook tests to Discord",
		Version: version,
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			if err := run(log, cmd); err != nil {
				log.Fatal(err)
			}
		},
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	cmd.Flags().String("port", "", "listen port (overrides PORT)")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
