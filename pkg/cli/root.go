// Package cli wires the pipeline stages into the menu-etl command tree.
package cli

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ekaya-inc/menu-etl/pkg/config"
	"github.com/ekaya-inc/menu-etl/pkg/logging"
)

// app is the state shared by every sub-command once configuration is loaded.
type app struct {
	version    string
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
}

// NewRootCommand builds the menu-etl command tree.
func NewRootCommand(version string) *cobra.Command {
	a := &app{version: version}

	root := &cobra.Command{
		Use:           "menu-etl",
		Short:         "Collect, structure, load and explore a restaurant menu.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", config.DefaultPath, "Path to the YAML configuration file.")

	root.AddCommand(
		newCollectCommand(a),
		newStructureCommand(a),
		newLoadCommand(a),
		newDashboardCommand(a),
		newMigrateCommand(a),
		newConfigCommand(a),
	)
	return root
}

// ExecuteContext runs the command tree with args taken from the process.
func ExecuteContext(ctx context.Context, version string) error {
	return NewRootCommand(version).ExecuteContext(ctx)
}

func (a *app) init() error {
	cfg, err := config.Load(a.version, a.configPath)
	if err != nil {
		return err
	}
	logger, err := logging.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}
