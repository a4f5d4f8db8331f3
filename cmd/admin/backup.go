package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"certifyeasy/internal/config"
	"certifyeasy/internal/service"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export or import users, progress and missed questions as JSON",
	Long: `Export or import users, progress and missed questions as JSON.

The database is selected with DATABASE_TYPE (sqlite, postgres or mysql),
DB_PATH for SQLite and DATABASE_URL for PostgreSQL or MySQL.`,
}

var backupExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the database to a JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			output = fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
		}
		if dir := filepath.Dir(output); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		db, err := openDatabase(cmd, config.Load())
		if err != nil {
			return err
		}
		defer db.Close()

		if err := service.NewBackupService(db, newLogger()).Export(cmd.Context(), output); err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		if info, err := os.Stat(output); err == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "exported to %s (%.2f MB)\n", output, float64(info.Size())/1024/1024)
		}
		return nil
	},
}

var backupImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a JSON backup, keeping existing rows unless --clear is given",
	RunE: func(cmd *cobra.Command, args []string) error {
		input, _ := cmd.Flags().GetString("input")
		clearData, _ := cmd.Flags().GetBool("clear")
		yes, _ := cmd.Flags().GetBool("yes")

		if _, err := os.Stat(input); err != nil {
			return fmt.Errorf("input file: %w", err)
		}

		db, err := openDatabase(cmd, config.Load())
		if err != nil {
			return err
		}
		defer db.Close()

		backups := service.NewBackupService(db, newLogger())
		if clearData {
			if !yes && !confirm(cmd, "WARNING: This will delete all existing data. Type 'yes' to confirm: ") {
				fmt.Fprintln(cmd.OutOrStdout(), "import cancelled")
				return nil
			}
			if err := backups.ClearData(cmd.Context()); err != nil {
				return fmt.Errorf("failed to clear database: %w", err)
			}
		}

		if err := backups.Import(cmd.Context(), input); err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "import complete")
		return nil
	},
}

func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	return strings.TrimSpace(line) == "yes"
}

func init() {
	backupExportCmd.Flags().String("output", "", "Output file path (default: backup_YYYYMMDD_HHMMSS.json)")

	backupImportCmd.Flags().String("input", "", "Input file path")
	backupImportCmd.Flags().Bool("clear", false, "Clear existing data before import (destructive)")
	backupImportCmd.Flags().Bool("yes", false, "Skip the --clear confirmation prompt")
	_ = backupImportCmd.MarkFlagRequired("input")

	backupCmd.AddCommand(backupExportCmd)
	backupCmd.AddCommand(backupImportCmd)
}
