package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"certifyeasy/internal/models"
	"certifyeasy/internal/practice"
	"certifyeasy/internal/validation"
)

// PracticeHandler serves the exam catalog and practice sessions
type PracticeHandler struct {
	engine *practice.Engine
	exams  []models.Exam
}

// NewPracticeHandler creates a new practice handler
func NewPracticeHandler(engine *practice.Engine, exams []models.Exam) *PracticeHandler {
	return &PracticeHandler{
		engine: engine,
		exams:  exams,
	}
}

// Exams lists the catalog with the user's overall mastery of each exam
func (h *PracticeHandler) Exams(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	data := ExamsViewData{Exams: make([]ExamView, 0, len(h.exams))}
	for _, exam := range h.exams {
		mastery, err := h.engine.ExamMastery(r.Context(), user.ID, exam.Code)
		if err != nil {
			h.respondWithPracticeError(w, err)
			return
		}
		data.Exams = append(data.Exams, ExamView{Exam: exam, MasteryPercentage: mastery})
	}
	writeJSON(w, http.StatusOK, data)
}

// Subjects lists the subjects of an exam part with mastery per subject
func (h *PracticeHandler) Subjects(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	exam := strings.TrimSpace(r.URL.Query().Get("exam"))
	part := strings.TrimSpace(r.URL.Query().Get("part"))
	if err := validation.ValidateExamPart(h.exams, exam, part); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	list, err := h.engine.ListSubjects(r.Context(), user.ID, exam, part)
	if err != nil {
		h.respondWithPracticeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Start begins a practice session over one subject
func (h *PracticeHandler) Start(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	var req startRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}
	req.Exam, req.Part, req.Subject = strings.TrimSpace(req.Exam), strings.TrimSpace(req.Part), strings.TrimSpace(req.Subject)
	if err := h.validateTarget(req.Exam, req.Part, req.Subject); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	result, err := h.engine.StartSession(r.Context(), user.ID, req.Exam, req.Part, req.Subject)
	if err != nil {
		h.respondWithPracticeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, StartViewData{
		Exam:     result.Exam,
		Part:     result.Part,
		Subject:  result.Subject,
		Question: result.Question,
		Progress: result.Progress,
	})
}

// Answer scores the answer to the current question
func (h *PracticeHandler) Answer(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	var req answerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}
	if req.Exam == "" || req.Subject == "" {
		respondWithError(w, http.StatusBadRequest, "Invalid or missing exam/subject", "", nil)
		return
	}
	if req.Answer == 0 {
		respondWithError(w, http.StatusBadRequest, "No answer provided", "", nil)
		return
	}
	if req.Question.Question == "" {
		respondWithError(w, http.StatusBadRequest, "Missing question data", "", nil)
		return
	}

	target := practice.Target{Exam: req.Exam, Part: req.Part, Subject: req.Subject}
	result, err := h.engine.SubmitAnswer(r.Context(), user.ID, target, req.Answer, req.Question)
	if err != nil {
		h.respondWithPracticeError(w, err)
		return
	}

	if result.Finished() {
		writeJSON(w, http.StatusOK, FinishedViewData{
			Exam:     result.Exam,
			Part:     result.Part,
			Subject:  result.Subject,
			Feedback: result.Feedback,
			Finished: true,
			Summary:  *result.Summary,
		})
		return
	}

	writeJSON(w, http.StatusOK, AnswerViewData{
		Exam:         result.Exam,
		Part:         result.Part,
		Subject:      result.Subject,
		Feedback:     result.Feedback,
		NextQuestion: result.Next,
		Progress:     result.Progress,
	})
}

// Missed lists the user's outstanding missed questions for a subject
func (h *PracticeHandler) Missed(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	q := r.URL.Query()
	exam := strings.TrimSpace(q.Get("exam"))
	part := strings.TrimSpace(q.Get("part"))
	subject := strings.TrimSpace(q.Get("subject"))
	if err := h.validateTarget(exam, part, subject); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	missed, err := h.engine.MissedQuestions(r.Context(), user.ID, exam, part, subject)
	if err != nil {
		h.respondWithPracticeError(w, err)
		return
	}

	data := MissedViewData{
		Exam:      exam,
		Part:      part,
		Subject:   subject,
		Questions: make([]MissedQuestionView, 0, len(missed)),
	}
	for _, m := range missed {
		data.Questions = append(data.Questions, MissedQuestionView{
			Question:      m.QuestionText,
			CorrectAnswer: m.CorrectAnswer,
			Options:       m.Options,
			AnsweredAt:    m.AnsweredAt,
		})
	}
	writeJSON(w, http.StatusOK, data)
}

func (h *PracticeHandler) validateTarget(exam, part, subject string) error {
	if err := validation.ValidateExamPart(h.exams, exam, part); err != nil {
		return err
	}
	return validation.ValidateSubject(subject)
}

func (h *PracticeHandler) respondWithPracticeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, practice.ErrNoQuestions):
		respondWithError(w, http.StatusBadRequest, capitalize(err.Error()), "", nil)
	case errors.Is(err, practice.ErrNoActiveSession), errors.Is(err, practice.ErrSessionMismatch):
		respondWithError(w, http.StatusConflict, capitalize(err.Error()), "", nil)
	case errors.Is(err, practice.ErrInvalidAnswerPayload):
		respondWithError(w, http.StatusBadRequest, capitalize(err.Error()), "", nil)
	case errors.Is(err, practice.ErrUnknownAnswerText):
		slog.Warn("question bank entry has no matching answer", "error", err)
		respondWithError(w, http.StatusUnprocessableEntity, capitalize(err.Error()), "", nil)
	default:
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "practice operation failed", err)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return fmt.Sprintf("%s%s", strings.ToUpper(s[:1]), s[1:])
}
