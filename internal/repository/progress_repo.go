package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"certifyeasy/internal/database"
	"certifyeasy/internal/models"
)

// ProgressRepository persists mastery counters (progress table) and
// missed-question records (wrong_answers table).
type ProgressRepository struct {
	db  database.DBTX
	now func() time.Time
}

// NewProgressRepository creates a new progress repository
func NewProgressRepository(db database.DBTX) *ProgressRepository {
	return &ProgressRepository{db: db, now: time.Now}
}

// GetOrCreateCounter returns the counter for a subject, creating it with
// defaultTotal questions if it does not exist yet.
func (r *ProgressRepository) GetOrCreateCounter(ctx context.Context, userID int64, exam, part, subject string, defaultTotal int) (models.ProgressCounter, error) {
	insert := r.db.GetDialect().InsertOrIgnore("progress",
		"user_id", "exam", "part", "subject", "completed_questions", "total_questions")
	if _, err := r.db.ExecContext(ctx, insert, userID, exam, part, subject, 0, defaultTotal); err != nil {
		return models.ProgressCounter{}, fmt.Errorf("failed to create progress counter: %w", err)
	}

	counter, ok, err := r.GetCounter(ctx, userID, exam, part, subject)
	if err != nil {
		return models.ProgressCounter{}, err
	}
	if !ok {
		return models.ProgressCounter{}, fmt.Errorf("progress counter for %s %s %s vanished", exam, part, subject)
	}
	return counter, nil
}

// GetCounter returns the counter for a subject and whether it exists
func (r *ProgressRepository) GetCounter(ctx context.Context, userID int64, exam, part, subject string) (models.ProgressCounter, bool, error) {
	query := `
		SELECT completed_questions, total_questions
		FROM progress
		WHERE user_id = ? AND exam = ? AND part = ? AND subject = ?
	`
	counter := models.ProgressCounter{UserID: userID, Exam: exam, Part: part, Subject: subject}
	err := r.db.QueryRowContext(ctx, query, userID, exam, part, subject).Scan(&counter.Completed, &counter.Total)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ProgressCounter{}, false, nil
	}
	if err != nil {
		return models.ProgressCounter{}, false, fmt.Errorf("failed to get progress counter: %w", err)
	}
	return counter, true, nil
}

// IncrementCompleted adds one to a subject's completed count
func (r *ProgressRepository) IncrementCompleted(ctx context.Context, userID int64, exam, part, subject string) error {
	query := `
		UPDATE progress
		SET completed_questions = completed_questions + 1
		WHERE user_id = ? AND exam = ? AND part = ? AND subject = ?
	`
	result, err := r.db.ExecContext(ctx, query, userID, exam, part, subject)
	if err != nil {
		return fmt.Errorf("failed to increment progress: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("no progress counter for %s %s %s", exam, part, subject)
	}
	return nil
}

// UpsertMissed records a missed question unless one is already recorded
// for the same question text.
func (r *ProgressRepository) UpsertMissed(ctx context.Context, m models.MissedQuestion) error {
	options, err := json.Marshal(m.Options)
	if err != nil {
		return fmt.Errorf("failed to encode options: %w", err)
	}
	answeredAt := m.AnsweredAt
	if answeredAt.IsZero() {
		answeredAt = r.now()
	}

	insert := r.db.GetDialect().InsertOrIgnore("wrong_answers",
		"user_id", "exam", "part", "subject", "question_text", "correct_answer", "options", "answered_at")
	_, err = r.db.ExecContext(ctx, insert,
		m.UserID, m.Exam, m.Part, m.Subject, m.QuestionText, m.CorrectAnswer, string(options), answeredAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to record missed question: %w", err)
	}
	return nil
}

// ClearMissed deletes the missed-question record for a question, if any
func (r *ProgressRepository) ClearMissed(ctx context.Context, userID int64, exam, part, subject, question string) error {
	query := `
		DELETE FROM wrong_answers
		WHERE user_id = ? AND exam = ? AND part = ? AND subject = ? AND question_text = ?
	`
	if _, err := r.db.ExecContext(ctx, query, userID, exam, part, subject, question); err != nil {
		return fmt.Errorf("failed to clear missed question: %w", err)
	}
	return nil
}

// CountMissed returns how many missed questions a subject has
func (r *ProgressRepository) CountMissed(ctx context.Context, userID int64, exam, part, subject string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM wrong_answers
		WHERE user_id = ? AND exam = ? AND part = ? AND subject = ?
	`
	var count int
	if err := r.db.QueryRowContext(ctx, query, userID, exam, part, subject).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count missed questions: %w", err)
	}
	return count, nil
}

// ListMissed returns a subject's missed questions, most recent first
func (r *ProgressRepository) ListMissed(ctx context.Context, userID int64, exam, part, subject string) ([]models.MissedQuestion, error) {
	query := `
		SELECT question_text, correct_answer, options, answered_at
		FROM wrong_answers
		WHERE user_id = ? AND exam = ? AND part = ? AND subject = ?
		ORDER BY answered_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID, exam, part, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to query missed questions: %w", err)
	}
	defer rows.Close()

	var missed []models.MissedQuestion
	for rows.Next() {
		m := models.MissedQuestion{UserID: userID, Exam: exam, Part: part, Subject: subject}
		var options string
		if err := rows.Scan(&m.QuestionText, &m.CorrectAnswer, &options, &m.AnsweredAt); err != nil {
			return nil, fmt.Errorf("failed to scan missed question: %w", err)
		}
		if err := json.Unmarshal([]byte(options), &m.Options); err != nil {
			return nil, fmt.Errorf("failed to decode options: %w", err)
		}
		missed = append(missed, m)
	}
	return missed, rows.Err()
}

// AggregateMastery sums completed and total questions across every part
// and subject of an exam.
func (r *ProgressRepository) AggregateMastery(ctx context.Context, userID int64, exam string) (int, int, error) {
	query := `
		SELECT COALESCE(SUM(completed_questions), 0), COALESCE(SUM(total_questions), 0)
		FROM progress
		WHERE user_id = ? AND exam = ?
	`
	var completed, total int
	if err := r.db.QueryRowContext(ctx, query, userID, exam).Scan(&completed, &total); err != nil {
		return 0, 0, fmt.Errorf("failed to aggregate mastery: %w", err)
	}
	return completed, total, nil
}

// AllCounters returns every progress counter, for backups
func (r *ProgressRepository) AllCounters(ctx context.Context) ([]models.ProgressCounter, error) {
	query := `
		SELECT user_id, exam, part, subject, completed_questions, total_questions
		FROM progress
		ORDER BY user_id, exam, part, subject
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query progress: %w", err)
	}
	defer rows.Close()

	var counters []models.ProgressCounter
	for rows.Next() {
		var c models.ProgressCounter
		if err := rows.Scan(&c.UserID, &c.Exam, &c.Part, &c.Subject, &c.Completed, &c.Total); err != nil {
			return nil, fmt.Errorf("failed to scan progress: %w", err)
		}
		counters = append(counters, c)
	}
	return counters, rows.Err()
}

// AllMissed returns every missed-question record, for backups
func (r *ProgressRepository) AllMissed(ctx context.Context) ([]models.MissedQuestion, error) {
	query := `
		SELECT user_id, exam, part, subject, question_text, correct_answer, options, answered_at
		FROM wrong_answers
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query missed questions: %w", err)
	}
	defer rows.Close()

	var missed []models.MissedQuestion
	for rows.Next() {
		var m models.MissedQuestion
		var options string
		if err := rows.Scan(&m.UserID, &m.Exam, &m.Part, &m.Subject, &m.QuestionText, &m.CorrectAnswer, &options, &m.AnsweredAt); err != nil {
			return nil, fmt.Errorf("failed to scan missed question: %w", err)
		}
		if err := json.Unmarshal([]byte(options), &m.Options); err != nil {
			return nil, fmt.Errorf("failed to decode options: %w", err)
		}
		missed = append(missed, m)
	}
	return missed, rows.Err()
}

// RestoreCounter inserts a counter from a backup, keeping existing rows
func (r *ProgressRepository) RestoreCounter(ctx context.Context, c models.ProgressCounter) error {
	insert := r.db.GetDialect().InsertOrIgnore("progress",
		"user_id", "exam", "part", "subject", "completed_questions", "total_questions")
	if _, err := r.db.ExecContext(ctx, insert, c.UserID, c.Exam, c.Part, c.Subject, c.Completed, c.Total); err != nil {
		return fmt.Errorf("failed to restore progress: %w", err)
	}
	return nil
}
