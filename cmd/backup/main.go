package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tinysteps/internal/config"
	"tinysteps/internal/database"
	"tinysteps/internal/logger"
	"tinysteps/internal/service"
)

var (
	exportOutput string
	importInput  string
	importClear  bool
	assumeYes    bool
)

var rootCmd = &cobra.Command{
	Use:   "backup",
	Short: "TinySteps database backup tool",
	Long: `Export and import the TinySteps database as JSON.

Sample students are not exported; the server seeds them on startup.

Environment:
  DATABASE_TYPE    sqlite, postgres or mysql (default: sqlite)
  DB_PATH          SQLite database path (default: ./tinysteps.db)
  DATABASE_URL     PostgreSQL or MySQL connection URL`,
	SilenceUsage: true,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the database to a JSON file",
	Example: `  backup export
  backup export --output backups/tinysteps.json`,
	RunE: runExport,
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a JSON backup into the database",
	Example: `  # Merge into existing data
  backup import --input backup.json

  # Replace all data
  backup import --input backup.json --clear`,
	RunE: runImport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: backup_YYYYMMDD_HHMMSS.json)")

	importCmd.Flags().StringVarP(&importInput, "input", "i", "", "backup file to import")
	importCmd.Flags().BoolVar(&importClear, "clear", false, "delete existing data before importing (destructive)")
	importCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "skip the confirmation prompt for --clear")
	_ = importCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(exportCmd, importCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openBackupService connects to the configured database and brings its
// schema up to date
func openBackupService(ctx context.Context) (*service.BackupService, func(), error) {
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if _, err := db.RunMigrations(ctx, cfg.MigrationsPath); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	closeFn := func() {
		db.Close()
		_ = log.Sync()
	}
	return service.NewBackupService(db, log.Named("backup")), closeFn, nil
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	outputPath := exportOutput
	if outputPath == "" {
		outputPath = defaultBackupPath(time.Now())
	}
	if dir := filepath.Dir(outputPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	backupService, closeFn, err := openBackupService(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer file.Close()

	backup, err := backupService.Export(ctx, file)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat backup file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d users, %d students, %d activities and %d stories to %s (%.2f MB)\n",
		len(backup.Users), len(backup.Students), len(backup.Activities), len(backup.Stories),
		outputPath, float64(info.Size())/1024/1024)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	file, err := os.Open(importInput)
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer file.Close()

	if importClear && !assumeYes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout()) {
		fmt.Fprintln(cmd.OutOrStdout(), "Import cancelled")
		return nil
	}

	backupService, closeFn, err := openBackupService(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	if importClear {
		if err := backupService.Clear(ctx); err != nil {
			return fmt.Errorf("failed to clear database: %w", err)
		}
	}

	backup, err := backupService.Import(ctx, file)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d users, %d students, %d activities and %d stories\n",
		len(backup.Users), len(backup.Students), len(backup.Activities), len(backup.Stories))
	return nil
}

// confirm asks before destroying data. Only an exact "yes" proceeds.
func confirm(in io.Reader, out io.Writer) bool {
	fmt.Fprint(out, "WARNING: This will delete all existing data. Type 'yes' to confirm: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	return strings.TrimSpace(line) == "yes"
}

func defaultBackupPath(now time.Time) string {
	return fmt.Sprintf("backup_%s.json", now.Format("20060102_150405"))
}
