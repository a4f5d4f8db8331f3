// Package practice runs quiz sessions: it serves questions, scores answers,
// re-queues missed questions and keeps durable mastery counters current.
package practice

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"

	"github.com/google/uuid"

	"certifyeasy/internal/models"
)

// QuestionBank supplies the questions of each subject
type QuestionBank interface {
	Subjects(exam, part string) []string
	Questions(exam, part, subject string) []models.Question
}

// ProgressStore persists mastery counters and missed-question records
type ProgressStore interface {
	GetOrCreateCounter(ctx context.Context, userID int64, exam, part, subject string, defaultTotal int) (models.ProgressCounter, error)
	GetCounter(ctx context.Context, userID int64, exam, part, subject string) (models.ProgressCounter, bool, error)
	IncrementCompleted(ctx context.Context, userID int64, exam, part, subject string) error
	UpsertMissed(ctx context.Context, m models.MissedQuestion) error
	ClearMissed(ctx context.Context, userID int64, exam, part, subject, question string) error
	CountMissed(ctx context.Context, userID int64, exam, part, subject string) (int, error)
	ListMissed(ctx context.Context, userID int64, exam, part, subject string) ([]models.MissedQuestion, error)
	AggregateMastery(ctx context.Context, userID int64, exam string) (completed, total int, err error)
}

// InstanceSigner issues and checks tokens that bind a served question to
// its session, answer and retry count.
type InstanceSigner interface {
	Sign(inst models.QuestionInstance) (string, error)
	Verify(token string) (models.QuestionInstance, error)
}

// Progress is the position report returned with every served question
type Progress struct {
	Index             int     `json:"index"`
	ProgressPct       float64 `json:"progress"`
	RetryQueue        int     `json:"retry_queue"`
	MasteryPercentage float64 `json:"mastery_percentage"`
	CorrectStreak     int     `json:"correct_streak"`
}

// Summary is returned when a session finishes
type Summary struct {
	WrongCount        int     `json:"wrong_count"`
	CorrectCount      int     `json:"correct_count"`
	OriginalTotal     int     `json:"original_total"`
	MasteryPercentage float64 `json:"mastery_percentage"`
	LongestStreak     int     `json:"longest_streak"`
}

// Target names the exam part and subject an answer is meant for
type Target struct {
	Exam    string
	Part    string
	Subject string
}

// StartResult is the first question of a new session
type StartResult struct {
	Exam     string
	Part     string
	Subject  string
	Question models.Question
	Progress Progress
}

// AnswerResult carries the feedback for an answer and either the next
// question or, when the session is over, the summary.
type AnswerResult struct {
	Exam     string
	Part     string
	Subject  string
	Feedback Feedback
	Next     *models.Question
	Progress Progress
	Summary  *Summary
}

// Finished reports whether the answer ended the session
func (r *AnswerResult) Finished() bool {
	return r.Summary != nil
}

// SubjectList is the subject menu of an exam part with mastery per subject
type SubjectList struct {
	Subjects []string           `json:"subjects"`
	Progress map[string]float64 `json:"progress"`
}

// Engine coordinates the question bank, the progress store and the
// session registry.
type Engine struct {
	bank     QuestionBank
	store    ProgressStore
	registry *Registry
	signer   InstanceSigner
	logger   *slog.Logger
	shuffle  ShuffleFunc
	newID    func() string
}

// Option configures an Engine
type Option func(*Engine)

// WithSigner enables question tokens
func WithSigner(s InstanceSigner) Option {
	return func(e *Engine) { e.signer = s }
}

// WithLogger sets the engine logger
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithShuffle replaces the random permutation used for questions and options
func WithShuffle(f ShuffleFunc) Option {
	return func(e *Engine) { e.shuffle = f }
}

// NewEngine creates an engine
func NewEngine(bank QuestionBank, store ProgressStore, registry *Registry, opts ...Option) *Engine {
	e := &Engine{
		bank:     bank,
		store:    store,
		registry: registry,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		shuffle:  rand.Shuffle,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the session registry
func (e *Engine) Registry() *Registry {
	return e.registry
}

// StartSession begins a new session for the user over one subject,
// abandoning any session the user already had.
func (e *Engine) StartSession(ctx context.Context, userID int64, exam, part, subject string) (*StartResult, error) {
	questions := e.bank.Questions(exam, part, subject)
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w for %s %s %s", ErrNoQuestions, exam, part, subject)
	}

	counter, err := e.store.GetOrCreateCounter(ctx, userID, exam, part, subject, len(questions))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}

	sess := newSession(e.newID(), userID, exam, part, subject, questions, counter, e.shuffle)
	question, err := e.serve(sess)
	if err != nil {
		return nil, err
	}

	if e.registry.Put(userID, sess) {
		e.logger.Debug("replaced active practice session", "user_id", userID)
	}
	e.logger.Info("practice session started",
		"user_id", userID, "exam", exam, "part", part, "subject", subject,
		"questions", sess.originalTotal, "mastery_completed", counter.Completed, "mastery_total", counter.Total)

	return &StartResult{
		Exam:     exam,
		Part:     part,
		Subject:  subject,
		Question: question,
		Progress: sess.progress(),
	}, nil
}

// SubmitAnswer scores the user's answer to the echoed question and moves
// the session on. answer is the 1-based option index. target must name the
// active session's exam part and subject.
func (e *Engine) SubmitAnswer(ctx context.Context, userID int64, target Target, answer int, echoed models.Question) (*AnswerResult, error) {
	sess, ok := e.registry.Get(userID)
	if !ok {
		return nil, ErrNoActiveSession
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.finished {
		return nil, fmt.Errorf("%w: session already finished", ErrNoActiveSession)
	}
	if sess.Exam != target.Exam || sess.Part != target.Part || sess.Subject != target.Subject {
		return nil, fmt.Errorf("%w: active session is %s %s %q", ErrSessionMismatch, sess.Exam, sess.Part, sess.Subject)
	}

	echoed, err := e.resolve(sess, echoed)
	if err != nil {
		return nil, err
	}

	ev, err := evaluate(answer, echoed)
	if err != nil {
		return nil, err
	}

	if err := e.record(ctx, sess, ev); err != nil {
		e.logger.Error("failed to record answer", "user_id", userID, "question", ev.question.Question, "error", err)
		return nil, err
	}

	finishing := sess.finishesAfter(ev)
	var wrongCount int
	if finishing {
		wrongCount, err = e.store.CountMissed(ctx, userID, sess.Exam, sess.Part, sess.Subject)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStore, err)
		}
	}

	if ev.requeue() {
		e.logger.Debug("question queued for retry", "user_id", userID, "retry", ev.retryCount, "question", ev.question.Question)
	}

	result := &AnswerResult{
		Exam:     sess.Exam,
		Part:     sess.Part,
		Subject:  sess.Subject,
		Feedback: ev.feedback,
	}

	if !sess.apply(ev) {
		result.Summary = &Summary{
			WrongCount:        wrongCount,
			CorrectCount:      sess.masteryCorrect,
			OriginalTotal:     sess.originalTotal,
			MasteryPercentage: models.Percentage(sess.masteryCorrect, sess.masteryTotal),
			LongestStreak:     sess.longestStreak,
		}
		e.logger.Info("practice session finished",
			"user_id", userID, "exam", sess.Exam, "part", sess.Part, "subject", sess.Subject,
			"missed", wrongCount, "longest_streak", sess.longestStreak)
		return result, nil
	}

	next, err := e.serve(sess)
	if err != nil {
		return nil, err
	}
	result.Next = &next
	result.Progress = sess.progress()
	return result, nil
}

// resolve replaces the client-supplied answer and retry count with the
// values bound in the question token, when there is one.
func (e *Engine) resolve(sess *Session, echoed models.Question) (models.Question, error) {
	if echoed.Token == "" || e.signer == nil {
		if echoed.Question != sess.current.Question {
			e.logger.Warn("answered question differs from the one served",
				"user_id", sess.UserID, "served", sess.current.Question, "answered", echoed.Question)
		}
		return echoed, nil
	}

	inst, err := e.signer.Verify(echoed.Token)
	if err != nil {
		return models.Question{}, fmt.Errorf("%w: %w", ErrInvalidAnswerPayload, err)
	}
	if inst.SessionID != sess.ID || inst.UserID != sess.UserID || inst.Question != echoed.Question {
		return models.Question{}, fmt.Errorf("%w: question token does not match the active session", ErrInvalidAnswerPayload)
	}

	echoed.Answer = inst.Answer
	echoed.RetryCount = inst.RetryCount
	return echoed, nil
}

// record applies the durable side effects of an answer
func (e *Engine) record(ctx context.Context, sess *Session, ev evaluation) error {
	q := ev.question
	if ev.correct {
		if err := e.store.IncrementCompleted(ctx, sess.UserID, sess.Exam, sess.Part, sess.Subject); err != nil {
			return fmt.Errorf("%w: %w", ErrStore, err)
		}
		if q.RetryCount > 0 {
			if err := e.store.ClearMissed(ctx, sess.UserID, sess.Exam, sess.Part, sess.Subject, q.Question); err != nil {
				return fmt.Errorf("%w: %w", ErrStore, err)
			}
		}
		return nil
	}

	if ev.retryCount == 1 {
		err := e.store.UpsertMissed(ctx, models.MissedQuestion{
			UserID:        sess.UserID,
			Exam:          sess.Exam,
			Part:          sess.Part,
			Subject:       sess.Subject,
			QuestionText:  q.Question,
			CorrectAnswer: q.Answer,
			Options:       append([]string(nil), q.Options...),
		})
		if err != nil {
			return fmt.Errorf("%w: %w", ErrStore, err)
		}
	}
	return nil
}

// serve returns the session's current question, signed when tokens are on
func (e *Engine) serve(sess *Session) (models.Question, error) {
	q := sess.current.Clone()
	if e.signer == nil {
		return q, nil
	}
	token, err := e.signer.Sign(models.QuestionInstance{
		SessionID:  sess.ID,
		UserID:     sess.UserID,
		Exam:       sess.Exam,
		Part:       sess.Part,
		Subject:    sess.Subject,
		Question:   q.Question,
		Answer:     q.Answer,
		RetryCount: q.RetryCount,
	})
	if err != nil {
		return models.Question{}, fmt.Errorf("failed to sign question: %w", err)
	}
	q.Token = token
	return q, nil
}

// ListSubjects returns the subjects of an exam part and the user's mastery
// percentage in each. Counters are not created here.
func (e *Engine) ListSubjects(ctx context.Context, userID int64, exam, part string) (*SubjectList, error) {
	subjects := e.bank.Subjects(exam, part)
	list := &SubjectList{
		Subjects: make([]string, 0, len(subjects)),
		Progress: make(map[string]float64, len(subjects)),
	}
	for _, subject := range subjects {
		counter, ok, err := e.store.GetCounter(ctx, userID, exam, part, subject)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStore, err)
		}
		list.Subjects = append(list.Subjects, subject)
		if ok {
			list.Progress[subject] = counter.Percent()
		} else {
			list.Progress[subject] = 0
		}
	}
	return list, nil
}

// ExamMastery returns the user's mastery percentage across every part and
// subject of an exam.
func (e *Engine) ExamMastery(ctx context.Context, userID int64, exam string) (float64, error) {
	completed, total, err := e.store.AggregateMastery(ctx, userID, exam)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrStore, err)
	}
	return models.Percentage(completed, total), nil
}

// MissedQuestions lists the questions the user still has to get right
func (e *Engine) MissedQuestions(ctx context.Context, userID int64, exam, part, subject string) ([]models.MissedQuestion, error) {
	missed, err := e.store.ListMissed(ctx, userID, exam, part, subject)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}
	return missed, nil
}

// EndSession discards the user's active session
func (e *Engine) EndSession(userID int64) {
	e.registry.Remove(userID)
}
