package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math/big"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/danicaoo/musicShop/internal/db"
	"github.com/danicaoo/musicShop/internal/logging"
	"github.com/danicaoo/musicShop/internal/model"
	"github.com/danicaoo/musicShop/internal/store"
)

const adminPasswordLength = 16

func newInitCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a new database with an administrator account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.Database.Path
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("database %s already exists", path)
			} else if !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("checking database: %w", err)
			}

			database, password, err := initDatabase(cmd.Context(), path, a.cfg.Auth.AdminUser)
			if err != nil {
				return err
			}
			defer database.Close()

			printInitResult(cmd.OutOrStdout(), path, a.cfg.Auth.AdminUser, password)
			return nil
		},
	}
	cmd.Flags().StringP("user", "u", "", "administrator username (default: Admin)")
	return cmd
}

// initDatabase creates a new database, migrates it and creates the
// administrator. The file is removed again when any step fails.
func initDatabase(ctx context.Context, path, adminUsername string) (*sql.DB, string, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening database: %w", err)
	}

	fail := func(err error) (*sql.DB, string, error) {
		database.Close()
		os.Remove(path)
		return nil, "", err
	}

	if err := db.Migrate(database); err != nil {
		return fail(fmt.Errorf("migrating schema: %w", err))
	}

	password, err := generatePassword(adminPasswordLength)
	if err != nil {
		return fail(fmt.Errorf("generating password: %w", err))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fail(fmt.Errorf("hashing password: %w", err))
	}

	if _, err := store.CreateUser(ctx, database, adminUsername, string(hash), model.RoleAdmin); err != nil {
		return fail(fmt.Errorf("creating admin user: %w", err))
	}

	logging.Info().Str("path", path).Str("admin", adminUsername).Msg("database initialized")
	return database, password, nil
}

// printInitResult prints the database initialization result.
func printInitResult(w io.Writer, dbPath, username, password string) {
	fmt.Fprintf(w, "Database created: %s\n", dbPath)
	fmt.Fprintln(w, "Schema initialized.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Admin account created:")
	fmt.Fprintf(w, "  Username: %s\n", username)
	fmt.Fprintf(w, "  Password: %s\n", password)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Save this password, it cannot be recovered.")
	fmt.Fprintln(w, "The admin can change it after logging in.")
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
