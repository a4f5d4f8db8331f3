package practice

import "errors"

var (
	// ErrNoQuestions means the requested subject is unknown or has no questions
	ErrNoQuestions = errors.New("no questions available")
	// ErrNoActiveSession means the user has no session to answer in
	ErrNoActiveSession = errors.New("no active practice session")
	// ErrSessionMismatch means the answer names a different exam part or
	// subject than the active session
	ErrSessionMismatch = errors.New("answer does not belong to the active session")
	// ErrInvalidAnswerPayload covers malformed echoed questions, bad
	// question tokens and out-of-range option indexes
	ErrInvalidAnswerPayload = errors.New("invalid answer payload")
	// ErrUnknownAnswerText means the correct answer is not one of the options
	ErrUnknownAnswerText = errors.New("correct answer not found among options")
	// ErrStore wraps progress store failures
	ErrStore = errors.New("progress store failure")
)
