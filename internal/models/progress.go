package models

import "time"

// ProgressCounter tracks how many questions of a subject a user has
// answered correctly. Total is fixed when the counter is first created.
type ProgressCounter struct {
	UserID    int64  `json:"user_id"`
	Exam      string `json:"exam"`
	Part      string `json:"part"`
	Subject   string `json:"subject"`
	Completed int    `json:"completed_questions"`
	Total     int    `json:"total_questions"`
}

// Percent returns the mastery percentage for the counter
func (p ProgressCounter) Percent() float64 {
	return Percentage(p.Completed, p.Total)
}

// MissedQuestion records a question the user has answered wrong and not
// yet answered correctly since.
type MissedQuestion struct {
	UserID        int64     `json:"user_id"`
	Exam          string    `json:"exam"`
	Part          string    `json:"part"`
	Subject       string    `json:"subject"`
	QuestionText  string    `json:"question_text"`
	CorrectAnswer string    `json:"correct_answer"`
	Options       []string  `json:"options"`
	AnsweredAt    time.Time `json:"answered_at"`
}

// Percentage returns part/whole*100 clamped to [0, 100]; 0 when whole is 0
func Percentage(part, whole int) float64 {
	if whole <= 0 || part <= 0 {
		return 0
	}
	pct := float64(part) / float64(whole) * 100
	if pct > 100 {
		return 100
	}
	return pct
}
