package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ekaya-inc/menu-etl/pkg/collector"
)

func newCollectCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "collect",
		Short: "Fetch the menu page and save its visible text.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := collector.New(a.cfg.Collector, a.cfg.RawTextPath(), a.logger)

			text, err := c.Collect(cmd.Context())
			if err != nil {
				// Already logged by the collector; a failed scrape is not fatal.
				return nil
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Scraped %d characters from %s\n", len([]rune(text)), c.URL())
			fmt.Fprintf(out, "Saved text to %s\n", c.OutputPath())
			fmt.Fprintln(out, "Menu data extracted successfully!")
			return nil
		},
	}
}
