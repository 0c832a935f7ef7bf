package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/twdrugfinder/drugfinder/cmd/config"
	"github.com/twdrugfinder/drugfinder/cmd/find"
	"github.com/twdrugfinder/drugfinder/cmd/journal"
	"github.com/twdrugfinder/drugfinder/cmd/mailtest"
	"github.com/twdrugfinder/drugfinder/cmd/ranking"
	"github.com/twdrugfinder/drugfinder/cmd/serve"
	"github.com/twdrugfinder/drugfinder/cmd/version"
	"github.com/twdrugfinder/drugfinder/cmd/wish"
	"github.com/twdrugfinder/drugfinder/internal/buildinfo"
	"github.com/twdrugfinder/drugfinder/internal/conf"
	"github.com/twdrugfinder/drugfinder/internal/logger"
	"github.com/twdrugfinder/drugfinder/internal/telemetry"
)

// RootCommand creates and returns the root command. settings is filled in before any
// subcommand runs, so subcommands may hold on to the pointer.
func RootCommand(settings *conf.Settings, build *buildinfo.Context) *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "drugfinder",
		Short:         "Taiwan drug-shortage directory",
		Long:          "drugfinder serves and queries the community directory of drugs in short supply across Taiwanese clinics.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config.yaml (default: search the standard locations)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug output")
	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		panic(fmt.Sprintf("error binding debug flag: %v", err))
	}

	configCmd := config.Command(settings)
	versionCmd := version.Command(build)

	subcommands := []*cobra.Command{
		serve.Command(settings, build),
		find.Command(settings),
		ranking.Command(settings),
		wish.Command(settings),
		mailtest.Command(settings),
		journal.Command(settings),
		configCmd,
		versionCmd,
	}
	rootCmd.AddCommand(subcommands...)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if configPath != "" {
			conf.SetConfigFile(configPath)
		}

		// version, help, config init and config path must work before a valid config exists
		if cmd == versionCmd || cmd.Name() == "help" || (cmd.Parent() == configCmd && cmd.Name() != "show") {
			return nil
		}
		return initialize(settings, build)
	}

	return rootCmd
}

// initialize loads the settings, then sets up logging and telemetry.
func initialize(settings *conf.Settings, build *buildinfo.Context) error {
	loaded, err := conf.Load()
	if err != nil {
		return err
	}
	*settings = *loaded

	cfg := settings.Logging
	if settings.Debug {
		cfg.DefaultLevel = "debug"
		if cfg.Console != nil {
			console := *cfg.Console
			console.Level = "debug"
			cfg.Console = &console
		}
	}
	central, err := logger.NewCentralLogger(&cfg)
	if err != nil {
		return fmt.Errorf("error initializing logger: %w", err)
	}
	logger.SetGlobal(central)

	return telemetry.InitSentry(settings, build.GetVersion())
}
