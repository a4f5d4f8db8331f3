package qbank

import (
	"errors"
	"fmt"
	"strings"

	"certifyeasy/internal/models"
)

var (
	ErrEmptySubject     = errors.New("subject is empty")
	ErrEmptyQuestion    = errors.New("question text is empty")
	ErrOptionCount      = errors.New("question must have exactly 4 options")
	ErrEmptyOption      = errors.New("option is empty")
	ErrDuplicateOption  = errors.New("options must be distinct")
	ErrAnswerNotOption  = errors.New("answer does not match any option")
	ErrEmptyExplanation = errors.New("explanation is empty")
)

// Validate checks a question before it is added to or served from a bank.
// All problems are reported together.
func Validate(subject string, q models.Question) error {
	var errs []error
	if strings.TrimSpace(subject) == "" {
		errs = append(errs, ErrEmptySubject)
	}
	if strings.TrimSpace(q.Question) == "" {
		errs = append(errs, ErrEmptyQuestion)
	}
	if len(q.Options) != models.OptionCount {
		errs = append(errs, ErrOptionCount)
	}
	seen := make(map[string]bool, len(q.Options))
	for i, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			errs = append(errs, fmt.Errorf("%w: option%d", ErrEmptyOption, i+1))
			continue
		}
		if seen[opt] {
			errs = append(errs, fmt.Errorf("%w: %q", ErrDuplicateOption, opt))
		}
		seen[opt] = true
	}
	if q.AnswerIndex() < 0 {
		errs = append(errs, ErrAnswerNotOption)
	}
	if strings.TrimSpace(q.Explanation) == "" {
		errs = append(errs, ErrEmptyExplanation)
	}
	return errors.Join(errs...)
}

// Issue is a validation failure found in a bank file
type Issue struct {
	Line    int
	Subject string
	Err     error
}

// ValidateRecords validates every record and returns the failures
func ValidateRecords(records []Record) []Issue {
	var issues []Issue
	for _, r := range records {
		if err := Validate(r.Subject, r.Question); err != nil {
			issues = append(issues, Issue{Line: r.Line, Subject: r.Subject, Err: err})
		}
	}
	return issues
}
