package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/twdrugfinder/drugfinder/internal/api"
	"github.com/twdrugfinder/drugfinder/internal/app"
	"github.com/twdrugfinder/drugfinder/internal/buildinfo"
	"github.com/twdrugfinder/drugfinder/internal/conf"
	"github.com/twdrugfinder/drugfinder/internal/logger"
	"github.com/twdrugfinder/drugfinder/internal/telemetry"
)

// Command creates the command that runs the HTTP API.
func Command(settings *conf.Settings, build *buildinfo.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the directory HTTP API",
		Long:  "Start the HTTP API for searching supply, wishing for drugs and submitting clinic reports.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, settings, build)
		},
	}

	if err := setupFlags(cmd); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

func setupFlags(cmd *cobra.Command) error {
	cmd.Flags().String("host", "", "Address to listen on")
	cmd.Flags().String("port", "", "Port to listen on")
	cmd.Flags().Bool("metrics", false, "Expose Prometheus metrics on /metrics")

	for key, flag := range map[string]string{
		"server.host":    "host",
		"server.port":    "port",
		"server.metrics": "metrics",
	} {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", flag, err)
		}
	}
	return nil
}

func run(ctx context.Context, settings *conf.Settings, build *buildinfo.Context) error {
	log := logger.Global().Module("serve")
	defer telemetry.Flush()

	a, err := app.New(ctx, settings)
	if err != nil {
		return err
	}
	defer a.Close()

	server, err := api.New(settings, a.Directory, a.ServerOptions(build)...)
	if err != nil {
		return err
	}

	// prime the cache in the background
	go func() {
		if err := a.Directory.RefreshAll(ctx); err != nil {
			log.Warn("initial cache refresh failed", logger.Error(err))
		}
	}()

	log.Info("drugfinder starting",
		logger.String("version", build.GetVersion()),
		logger.String("address", server.Config().Address()),
		logger.Bool("verification", a.Verifier != nil),
		logger.Bool("journal", a.Journal != nil),
		logger.Bool("reviewer_alerts", a.Notifier.Enabled()))

	return server.Run(ctx)
}
