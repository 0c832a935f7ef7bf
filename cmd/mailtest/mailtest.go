package mailtest

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/twdrugfinder/drugfinder/internal/conf"
	"github.com/twdrugfinder/drugfinder/internal/logger"
	"github.com/twdrugfinder/drugfinder/internal/verification"
)

// Command creates the command that sends a throwaway verification code.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "mailtest <address>",
		Short: "Send a test verification email",
		Long:  "Send a verification code to an address to check the SMTP settings. The code is not usable.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mailer, err := verification.NewSMTPMailer(settings.Mail)
			if err != nil {
				return err
			}
			service := verification.NewService(mailer)
			if err := service.SendCode(cmd.Context(), verification.NewGate(), args[0]); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Test code sent to %s via %s\n",
				logger.MaskEmail(args[0]), settings.Mail.Host)
			return err
		},
	}
}
