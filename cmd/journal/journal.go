package journal

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/twdrugfinder/drugfinder/internal/conf"
	"github.com/twdrugfinder/drugfinder/internal/datastore"
	"github.com/twdrugfinder/drugfinder/internal/errors"
)

// Command creates the journal command group.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect the local journal of submission attempts",
	}
	cmd.AddCommand(listCommand(settings), pruneCommand(settings))
	return cmd
}

func listCommand(settings *conf.Settings) *cobra.Command {
	var (
		filter datastore.Filter
		since  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List journaled submissions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open(settings)
			if err != nil {
				return err
			}
			defer store.Close()

			filter.NewestFirst = true
			if since > 0 {
				filter.Since = time.Now().Add(-since)
			}
			entries, err := store.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return Print(cmd.OutOrStdout(), entries)
		},
	}

	cmd.Flags().StringVar(&filter.Kind, "kind", "", "Only this kind: wish, proposal, supply or feedback")
	cmd.Flags().BoolVar(&filter.FailedOnly, "failed", false, "Only failed attempts")
	cmd.Flags().DurationVar(&since, "since", 0, "Only attempts within this window, e.g. 24h")
	cmd.Flags().IntVarP(&filter.Limit, "limit", "n", 50, "Maximum entries, 0 for all")

	return cmd
}

func pruneCommand(settings *conf.Settings) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete journal entries older than a window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				olderThan = settings.Journal.Retention
			}
			if olderThan <= 0 {
				return errors.Newf("--older-than is required when journal.retention is not set").
					Category(errors.CategoryValidation).
					Component("journal").
					Build()
			}

			store, err := open(settings)
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.Prune(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d journal entries older than %s\n", n, olderThan)
			return err
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Age cutoff (default: journal.retention)")

	return cmd
}

func open(settings *conf.Settings) (datastore.Interface, error) {
	if !settings.Journal.Enabled {
		return nil, errors.Newf("the submission journal is disabled; set journal.enabled").
			Category(errors.CategoryConfiguration).
			Component("journal").
			Build()
	}
	store, err := datastore.New(&settings.Journal)
	if err != nil {
		return nil, err
	}
	if err := store.Open(); err != nil {
		return nil, err
	}
	return store, nil
}

// Print writes entries as an aligned table.
func Print(w io.Writer, entries []datastore.Submission) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No journal entries.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tKIND\tTABLE\tRESULT\tMS\tDETAIL")
	for _, e := range entries {
		result, detail := "ok", e.RequestID
		if !e.Success {
			result, detail = "failed", e.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			e.CreatedAt.Local().Format(time.DateTime), e.Kind, e.Table, result, e.DurationMs, detail)
	}
	return tw.Flush()
}
