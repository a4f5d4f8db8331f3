package qbank

import (
	"encoding/csv"
	"fmt"
	"os"

	"certifyeasy/internal/models"
)

// AppendQuestion validates q and appends it to the bank file at path,
// creating the file with a header if needed.
func AppendQuestion(path, subject string, q models.Question) error {
	if err := Validate(subject, q); err != nil {
		return err
	}

	info, statErr := os.Stat(path)
	newFile := os.IsNotExist(statErr) || (statErr == nil && info.Size() == 0)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open bank: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if newFile {
		if err := w.Write(Columns); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	row := []string{subject, q.Question, q.Options[0], q.Options[1], q.Options[2], q.Options[3], q.Answer, q.Explanation}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("failed to write question: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write question: %w", err)
	}
	return f.Close()
}
