package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"certifyeasy/internal/config"
	"certifyeasy/internal/database"
)

var rootCmd = &cobra.Command{
	Use:           "admin",
	Short:         "CertifyEasy administration tool",
	Long:          "Maintain question bank files and back up or restore the CertifyEasy database.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(qbankCmd)
	rootCmd.AddCommand(backupCmd)
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

// openDatabase connects with the server's environment configuration and
// brings the schema up to date.
func openDatabase(cmd *cobra.Command, cfg *config.Config) (*database.DB, error) {
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(cmd.Context()); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
