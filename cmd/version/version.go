package version

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/twdrugfinder/drugfinder/internal/buildinfo"
)

// Command creates the command that prints build information.
func Command(build *buildinfo.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "drugfinder %s (built %s, %s %s/%s)\n",
				build.GetVersion(), build.GetBuildDate(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
			return err
		},
	}
}
