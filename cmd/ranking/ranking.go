package ranking

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/twdrugfinder/drugfinder/internal/app"
	"github.com/twdrugfinder/drugfinder/internal/conf"
	"github.com/twdrugfinder/drugfinder/internal/directory"
)

// Command creates the command that prints the wish leaderboard.
func Command(settings *conf.Settings) *cobra.Command {
	var opts directory.RankingOptions

	cmd := &cobra.Command{
		Use:   "ranking",
		Short: "Show the most wished-for drugs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(cmd.Context(), settings, app.WithoutJournal())
			if err != nil {
				return err
			}
			defer a.Close()

			entries, _ := a.Directory.Ranking(cmd.Context(), opts)
			return Print(cmd.OutOrStdout(), entries, opts.ByCity)
		},
	}

	cmd.Flags().BoolVar(&opts.ByCity, "by-city", false, "Rank drug and city pairs instead of drugs")
	cmd.Flags().StringVar(&opts.City, "city", "", "Only count wishes from this city")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", directory.DefaultRankingLimit, "Number of entries, negative for all")

	return cmd
}

// Print writes a numbered leaderboard.
func Print(w io.Writer, entries []directory.RankEntry, byCity bool) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "目前還沒有人許願。")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if byCity {
		fmt.Fprintln(tw, "#\tDRUG\tCITY\tWISHES")
	} else {
		fmt.Fprintln(tw, "#\tDRUG\tWISHES")
	}
	for i, e := range entries {
		if byCity {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", i+1, e.Drug, e.City, e.Count)
		} else {
			fmt.Fprintf(tw, "%d\t%s\t%d\n", i+1, e.Drug, e.Count)
		}
	}
	return tw.Flush()
}
