package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ekaya-inc/menu-etl/pkg/loader"
	"github.com/ekaya-inc/menu-etl/pkg/models"
	"github.com/ekaya-inc/menu-etl/pkg/store"
)

var (
	okMark   = color.New(color.FgGreen).SprintFunc()
	failMark = color.New(color.FgRed).SprintFunc()
)

func newLoadCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Upsert the structured menu items into the menu table.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Loading data to %s...\n", store.DisplayName(a.cfg.Store.Driver))

			s, err := store.New(cmd.Context(), a.cfg.Store, a.logger)
			if err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				return err
			}
			defer s.Close()

			result, err := loader.New(s, a.cfg.MenuDataPath(), a.logger).Run(cmd.Context(), func(item models.MenuItem, err error) {
				if err != nil {
					fmt.Fprintf(out, "%s %s: %v\n", failMark("✗"), item.DisplayName(), err)
					return
				}
				fmt.Fprintf(out, "%s %s\n", okMark("✓"), item.DisplayName())
			})
			if err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				return err
			}

			fmt.Fprintf(out, "\nSuccessfully loaded %d/%d items!\n", result.Successful, result.Total)
			return nil
		},
	}
}
