package main

import (
	"github.com/spf13/cobra"

	"github.com/danicaoo/musicShop/internal/config"
	"github.com/danicaoo/musicShop/internal/logging"
)

// app holds state shared by every subcommand once the root command has
// loaded the configuration.
type app struct {
	configFile string
	dbPath     string
	logLevel   string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "musicshop",
		Short:         "Music shop catalog, inventory and sales service.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return logging.Close()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.configFile, "config", "c", "", "YAML config file (default: "+config.DefaultConfigFile+" if present)")
	flags.StringVarP(&a.dbPath, "db", "d", "", "SQLite database path")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")

	cmd.AddCommand(
		newServeCmd(a),
		newInitCmd(a),
		newSeedCmd(a),
		newRolloverCmd(a),
	)
	return cmd
}

// setup loads the configuration, letting explicitly set flags win, and
// configures logging.
func (a *app) setup(cmd *cobra.Command) error {
	overrides := map[string]any{}
	flagKeys := map[string]string{
		"db":        "database.path",
		"log-level": "log.level",
		"addr":      "server.addr",
		"user":      "auth.admin_user",
	}
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f != nil && f.Changed {
			overrides[key] = f.Value.String()
		}
	}

	cfg, err := config.Load(config.Options{File: a.configFile, Overrides: overrides})
	if err != nil {
		return err
	}
	a.cfg = cfg

	return logging.Init(logging.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
}
