package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"certifyeasy/internal/database"
	"certifyeasy/internal/models"
	"certifyeasy/internal/repository"
)

const backupVersion = "1.0"

// BackupData represents the complete database backup structure
type BackupData struct {
	Version         string                   `json:"version"`
	ExportedAt      time.Time                `json:"exported_at"`
	DatabaseType    string                   `json:"database_type"`
	Users           []models.User            `json:"users"`
	Progress        []models.ProgressCounter `json:"progress"`
	MissedQuestions []models.MissedQuestion  `json:"missed_questions"`
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db     *database.DB
	logger *slog.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB, logger *slog.Logger) *BackupService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &BackupService{db: db, logger: logger}
}

// Snapshot reads every user, counter and missed record
func (s *BackupService) Snapshot(ctx context.Context) (*BackupData, error) {
	users, err := repository.NewUserRepository(s.db).GetAllUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export users: %w", err)
	}

	progressRepo := repository.NewProgressRepository(s.db)
	counters, err := progressRepo.AllCounters(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export progress: %w", err)
	}
	missed, err := progressRepo.AllMissed(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export missed questions: %w", err)
	}

	return &BackupData{
		Version:         backupVersion,
		ExportedAt:      time.Now().UTC(),
		DatabaseType:    s.db.GetDialect().DriverName(),
		Users:           users,
		Progress:        counters,
		MissedQuestions: missed,
	}, nil
}

// Export creates a complete backup of the database to a file
func (s *BackupService) Export(ctx context.Context, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := s.ExportToWriter(ctx, file); err != nil {
		return err
	}
	s.logger.Info("database exported", "path", outputPath)
	return nil
}

// ExportToWriter writes the backup as indented JSON
func (s *BackupService) ExportToWriter(ctx context.Context, w io.Writer) error {
	backup, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	s.logger.Info("export complete",
		"users", len(backup.Users),
		"progress", len(backup.Progress),
		"missed_questions", len(backup.MissedQuestions))
	return nil
}

// Import restores a database from a backup file
func (s *BackupService) Import(ctx context.Context, inputPath string) error {
	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(ctx, file)
}

// ImportFromReader restores rows from a backup. Existing rows are kept.
func (s *BackupService) ImportFromReader(ctx context.Context, r io.Reader) error {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}
	s.logger.Info("importing backup", "version", backup.Version, "exported_at", backup.ExportedAt)

	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		users := repository.NewUserRepository(tx)
		for _, u := range backup.Users {
			if err := users.RestoreUser(ctx, u); err != nil {
				return err
			}
		}

		progress := repository.NewProgressRepository(tx)
		for _, c := range backup.Progress {
			if err := progress.RestoreCounter(ctx, c); err != nil {
				return err
			}
		}
		for _, m := range backup.MissedQuestions {
			if err := progress.UpsertMissed(ctx, m); err != nil {
				return err
			}
		}

		if _, ok := tx.GetDialect().(*database.PostgresDialect); ok {
			// explicit IDs leave the serial sequence behind
			if _, err := tx.ExecContext(ctx, "SELECT setval(pg_get_serial_sequence('users', 'id'), COALESCE(MAX(id), 1)) FROM users"); err != nil {
				return fmt.Errorf("failed to reset user id sequence: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to import backup: %w", err)
	}

	s.logger.Info("import complete",
		"users", len(backup.Users),
		"progress", len(backup.Progress),
		"missed_questions", len(backup.MissedQuestions))
	return nil
}

// ClearData deletes all rows, children first
func (s *BackupService) ClearData(ctx context.Context) error {
	tables := []string{"wrong_answers", "progress", "sessions", "users"}
	return s.db.WithTx(ctx, func(tx *database.Tx) error {
		for _, table := range tables {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to clear table %s: %w", table, err)
			}
			s.logger.Info("cleared table", "table", table)
		}
		return nil
	})
}
