package models

import "strings"

// OptionCount is the number of choices every question carries
const OptionCount = 4

// Question is a single multiple-choice question. RetryCount and Token are
// transient and never stored in a question bank.
type Question struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Answer      string   `json:"answer"`
	Explanation string   `json:"explanation"`
	RetryCount  int      `json:"retry_count"`
	Token       string   `json:"token,omitempty"`
}

// Clone returns a deep copy of the question
func (q Question) Clone() Question {
	q.Options = append([]string(nil), q.Options...)
	return q
}

// AnswerIndex locates the answer among the options by exact text.
// It returns -1 when the answer is not one of the options.
func (q Question) AnswerIndex() int {
	for i, opt := range q.Options {
		if opt == q.Answer {
			return i
		}
	}
	return -1
}

// IsComplete reports whether every field needed to score the question is present
func (q Question) IsComplete() bool {
	if strings.TrimSpace(q.Question) == "" || q.Answer == "" || strings.TrimSpace(q.Explanation) == "" {
		return false
	}
	if len(q.Options) != OptionCount {
		return false
	}
	for _, opt := range q.Options {
		if opt == "" {
			return false
		}
	}
	return true
}

// OptionLetter maps a zero-based option position to its display letter (A-D)
func OptionLetter(i int) string {
	return string(rune('A' + i))
}

// FormatOption renders an option the way feedback displays it, e.g. "B) Risk appetite"
func FormatOption(i int, text string) string {
	return OptionLetter(i) + ") " + text
}

// QuestionInstance identifies one serving of a question inside a practice
// session. It is what a question token vouches for.
type QuestionInstance struct {
	SessionID  string
	UserID     int64
	Exam       string
	Part       string
	Subject    string
	Question   string
	Answer     string
	RetryCount int
}
