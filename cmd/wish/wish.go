package wish

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/twdrugfinder/drugfinder/internal/app"
	"github.com/twdrugfinder/drugfinder/internal/conf"
	"github.com/twdrugfinder/drugfinder/internal/records"
)

// Command creates the command that records a wish from the terminal.
func Command(settings *conf.Settings) *cobra.Command {
	var w records.WishRequest

	cmd := &cobra.Command{
		Use:   "wish <drug>",
		Short: "Wish for a drug in a city",
		Long: `Append a wish to the requests table. Every call counts as one more vote.

Example:
  drugfinder wish Ritalin --city 臺中市 --email me@example.com`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(cmd.Context(), settings)
			if err != nil {
				return err
			}
			defer a.Close()

			w.Drug = args[0]
			if err := a.Directory.SubmitWish(cmd.Context(), w); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "已收到您對 %s 的許願。\n", records.CleanText(w.Drug))
			return err
		},
	}

	cmd.Flags().StringVar(&w.City, "city", "", "City where the drug is needed")
	cmd.Flags().StringVar(&w.Email, "email", "", "Optional contact address")
	_ = cmd.MarkFlagRequired("city")

	return cmd
}
