package validation

import (
	"fmt"
	"regexp"
	"strings"

	"certifyeasy/internal/models"
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9._@\-]+$`)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 80
	MinPasswordLength = 6
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateUsername checks if a username is valid
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ValidationError{Field: "username", Message: "username is required"}
	}
	if len(username) < MinUsernameLength || len(username) > MaxUsernameLength {
		return ValidationError{Field: "username", Message: fmt.Sprintf("username must be %d to %d characters", MinUsernameLength, MaxUsernameLength)}
	}
	if !usernameRegex.MatchString(username) {
		return ValidationError{Field: "username", Message: "username may only contain letters, digits and . _ @ -"}
	}
	return nil
}

// ValidatePassword checks if a password meets requirements
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	if len(password) < MinPasswordLength {
		return ValidationError{Field: "password", Message: fmt.Sprintf("password must be at least %d characters", MinPasswordLength)}
	}
	return nil
}

// ValidateExamPart checks that exam and part name a catalog entry
func ValidateExamPart(exams []models.Exam, exam, part string) error {
	e, ok := models.FindExam(exams, exam)
	if !ok {
		return ValidationError{Field: "exam", Message: fmt.Sprintf("unknown exam %q", exam)}
	}
	if !e.HasPart(part) {
		return ValidationError{Field: "part", Message: fmt.Sprintf("exam %s has no part %q", exam, part)}
	}
	return nil
}

// ValidateSubject checks that a subject was chosen
func ValidateSubject(subject string) error {
	if strings.TrimSpace(subject) == "" {
		return ValidationError{Field: "subject", Message: "subject is required"}
	}
	return nil
}
