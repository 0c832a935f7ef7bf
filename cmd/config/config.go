package config

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/twdrugfinder/drugfinder/internal/conf"
)

// Command creates the config command group.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create and inspect the configuration",
	}
	cmd.AddCommand(initCommand(), showCommand(settings), pathCommand())
	return cmd
}

func initCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default config.yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := conf.DefaultConfigFile()
			if len(args) == 1 {
				path = args[0]
			}
			if err := conf.WriteDefaultConfig(path); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\nSet DRUGFINDER_CODA_APIKEY, DRUGFINDER_CODA_DOCID, DRUGFINDER_MAIL_ACCOUNT and DRUGFINDER_MAIL_PASSWORD before serving.\n", path)
			return err
		},
	}
}

func showCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			redacted := settings.Redacted()
			out, err := yaml.Marshal(&redacted)
			if err != nil {
				return fmt.Errorf("error marshaling settings: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

func pathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "List where config.yaml is searched for",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if used := viper.ConfigFileUsed(); used != "" {
				fmt.Fprintf(w, "in use: %s\n", used)
			}
			for _, p := range conf.GetDefaultConfigPaths() {
				fmt.Fprintln(w, p)
			}
			_, err := fmt.Fprintf(w, "default for config init: %s\n", conf.DefaultConfigFile())
			return err
		},
	}
}
