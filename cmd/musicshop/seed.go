package main

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/danicaoo/musicShop/internal/db"
	"github.com/danicaoo/musicShop/internal/seed"
)

func newSeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the demo catalog into an empty database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := a.openExisting()
			if err != nil {
				return err
			}
			defer database.Close()

			summary, err := seed.Load(cmd.Context(), database)
			if err != nil {
				return fmt.Errorf("seeding database: %w", err)
			}

			out := cmd.OutOrStdout()
			if summary.Skipped {
				fmt.Fprintln(out, "Catalog already has albums, nothing loaded.")
				return nil
			}
			fmt.Fprintf(out, "Loaded %d musicians, %d ensembles, %d compositions, %d recordings and %d albums.\n",
				summary.Musicians, summary.Ensembles, summary.Compositions, summary.Recordings, summary.Albums)
			fmt.Fprintf(out, "Recorded %d sales (%d units).\n", summary.Sales, summary.UnitsSold)
			return nil
		},
	}
}

// openExisting opens and migrates the configured database. Unlike serve it
// never creates one.
func (a *app) openExisting() (*sql.DB, error) {
	path := a.cfg.Database.Path
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("database %s does not exist, run init first", path)
		}
		return nil, fmt.Errorf("checking database: %w", err)
	}

	database, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return database, nil
}
