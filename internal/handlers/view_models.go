package handlers

import (
	"time"

	"certifyeasy/internal/models"
	"certifyeasy/internal/practice"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UserView struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Provider  string    `json:"provider,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func newUserView(u *models.User) UserView {
	return UserView{ID: u.ID, Username: u.Username, Provider: u.OAuthProvider, CreatedAt: u.CreatedAt}
}

type SessionViewData struct {
	User           UserView `json:"user"`
	CSRFToken      string   `json:"csrf_token"`
	OAuthProviders []string `json:"oauth_providers,omitempty"`
}

type ExamView struct {
	models.Exam
	MasteryPercentage float64 `json:"mastery_percentage"`
}

type ExamsViewData struct {
	Exams []ExamView `json:"exams"`
}

type startRequest struct {
	Exam    string `json:"exam"`
	Part    string `json:"part"`
	Subject string `json:"subject"`
}

type answerRequest struct {
	Exam     string          `json:"exam"`
	Part     string          `json:"part"`
	Subject  string          `json:"subject"`
	Answer   int             `json:"answer"`
	Question models.Question `json:"question"`
}

type StartViewData struct {
	Exam     string          `json:"exam"`
	Part     string          `json:"part"`
	Subject  string          `json:"subject"`
	Question models.Question `json:"question"`
	practice.Progress
	Message string `json:"message"`
}

// AnswerViewData is the answer response while the session continues
type AnswerViewData struct {
	Exam         string            `json:"exam"`
	Part         string            `json:"part"`
	Subject      string            `json:"subject"`
	Feedback     practice.Feedback `json:"feedback"`
	NextQuestion *models.Question  `json:"next_question"`
	practice.Progress
}

// FinishedViewData is the answer response for the last question
type FinishedViewData struct {
	Exam     string            `json:"exam"`
	Part     string            `json:"part"`
	Subject  string            `json:"subject"`
	Feedback practice.Feedback `json:"feedback"`
	Finished bool              `json:"finished"`
	practice.Summary
}

type MissedQuestionView struct {
	Question      string    `json:"question"`
	CorrectAnswer string    `json:"correct_answer"`
	Options       []string  `json:"options"`
	AnsweredAt    time.Time `json:"answered_at"`
}

type MissedViewData struct {
	Exam      string               `json:"exam"`
	Part      string               `json:"part"`
	Subject   string               `json:"subject"`
	Questions []MissedQuestionView `json:"questions"`
}
