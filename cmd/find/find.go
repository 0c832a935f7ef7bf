package find

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/twdrugfinder/drugfinder/internal/app"
	"github.com/twdrugfinder/drugfinder/internal/conf"
	"github.com/twdrugfinder/drugfinder/internal/directory"
	"github.com/twdrugfinder/drugfinder/internal/records"
)

// Command creates the command that searches clinic supply for a drug.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		city    string
		payment []string
	)

	cmd := &cobra.Command{
		Use:   "find <drug>",
		Short: "Find clinics reporting a drug in stock",
		Long: `Search the inventory for clinics that currently list a drug as in stock.

Examples:
  drugfinder find Ritalin
  drugfinder find Ritalin --city 臺北市 --payment 健保給付,自費`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(cmd.Context(), settings, app.WithoutJournal())
			if err != nil {
				return err
			}
			defer a.Close()

			q := directory.SupplyQuery{Drug: args[0], City: city}
			for _, tag := range records.NewPaymentConditions(payment...).Strings() {
				q.Payment = append(q.Payment, records.PaymentCondition(tag))
			}

			rows, _ := a.Directory.FindSupply(cmd.Context(), q)
			return Print(cmd.OutOrStdout(), rows)
		},
	}

	cmd.Flags().StringVar(&city, "city", "", "Only clinics in this city (default: all of Taiwan)")
	cmd.Flags().StringSliceVar(&payment, "payment", nil, "Accepted payment conditions, any of which must match")

	return cmd
}

// Print writes rows as an aligned table.
func Print(w io.Writer, rows []records.InventoryRow) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "目前沒有診所回報此藥品有貨。")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CLINIC\tCODE\tCITY\tSTOCK\tPAYMENT\tNOTE")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Clinic, r.InstitutionCode, r.City, r.Stock.Label(),
			strings.Join(r.Payment.Strings(), ","), r.Note)
	}
	return tw.Flush()
}
