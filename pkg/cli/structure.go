package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ekaya-inc/menu-etl/pkg/apperrors"
	"github.com/ekaya-inc/menu-etl/pkg/llm"
	"github.com/ekaya-inc/menu-etl/pkg/structurer"
)

func newStructureCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "structure",
		Short: "Turn the collected text into structured menu items with an LLM.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			completer, err := llm.NewCompleter(a.cfg.LLM, a.logger)
			if err != nil {
				return err
			}

			s := structurer.New(completer, structurer.Options{
				InputPath:     a.cfg.RawTextPath(),
				OutputPath:    a.cfg.MenuDataPath(),
				SourceURL:     a.cfg.Collector.URL,
				MaxInputChars: a.cfg.LLM.MaxInputChars,
			}, a.logger)

			out := cmd.OutOrStdout()
			n, err := s.Run(cmd.Context())
			switch {
			case errors.Is(err, apperrors.ErrNotCollected):
				fmt.Fprintln(out, "Run collector first!")
				return nil
			case errors.Is(err, apperrors.ErrNoItems):
				fmt.Fprintln(out, "No data extracted")
				return nil
			case err != nil:
				return err
			}

			fmt.Fprintf(out, "Saved %d items to %s\n", n, a.cfg.MenuDataPath())
			fmt.Fprintln(out, "Success! Menu data structured.")
			return nil
		},
	}
}
