package practice

import (
	"fmt"
	"regexp"
	"sync"

	"certifyeasy/internal/models"
)

// MaxRequeues is how many times a missed question is put back in the
// retry queue within one session.
const MaxRequeues = 2

var retryPrefix = regexp.MustCompile(`^Retry #\d+: `)

// ShuffleFunc permutes n elements using swap
type ShuffleFunc func(n int, swap func(i, j int))

// Feedback describes the outcome of one answer
type Feedback struct {
	Correct       bool   `json:"correct"`
	UserAnswer    string `json:"user_answer"`
	CorrectAnswer string `json:"correct_answer"`
	Explanation   string `json:"explanation"`
}

// evaluation is the scored answer, computed before anything is mutated
type evaluation struct {
	question   models.Question
	correct    bool
	retryCount int
	feedback   Feedback
}

// requeue reports whether the answered question goes back in the retry queue
func (e evaluation) requeue() bool {
	return !e.correct && e.retryCount <= MaxRequeues
}

// Session is one user's quiz run over a subject. Questions in the working
// queue are served once each in shuffled order; missed questions are then
// re-served from a FIFO retry queue.
type Session struct {
	ID      string
	UserID  int64
	Exam    string
	Part    string
	Subject string

	mu             sync.Mutex
	queue          []models.Question
	retry          []models.Question
	index          int
	originalTotal  int
	masteryCorrect int
	masteryTotal   int
	streak         int
	longestStreak  int
	current        models.Question
	finished       bool
	shuffle        ShuffleFunc
}

func newSession(id string, userID int64, exam, part, subject string, questions []models.Question, counter models.ProgressCounter, shuffle ShuffleFunc) *Session {
	queue := make([]models.Question, len(questions))
	for i, q := range questions {
		q = q.Clone()
		q.RetryCount = 0
		q.Token = ""
		queue[i] = q
	}
	shuffle(len(queue), func(i, j int) { queue[i], queue[j] = queue[j], queue[i] })

	return &Session{
		ID:             id,
		UserID:         userID,
		Exam:           exam,
		Part:           part,
		Subject:        subject,
		queue:          queue,
		originalTotal:  len(queue),
		masteryCorrect: counter.Completed,
		masteryTotal:   counter.Total,
		current:        queue[0].Clone(),
		shuffle:        shuffle,
	}
}

// evaluate scores an answer against the echoed question without touching
// session state. answer is the 1-based option the user picked.
func evaluate(answer int, q models.Question) (evaluation, error) {
	if answer < 1 || answer > models.OptionCount {
		return evaluation{}, fmt.Errorf("%w: answer must be between 1 and %d", ErrInvalidAnswerPayload, models.OptionCount)
	}
	if !q.IsComplete() {
		return evaluation{}, fmt.Errorf("%w: question must include text, %d options, answer and explanation", ErrInvalidAnswerPayload, models.OptionCount)
	}
	if q.RetryCount < 0 {
		return evaluation{}, fmt.Errorf("%w: negative retry count", ErrInvalidAnswerPayload)
	}

	correctIdx := q.AnswerIndex()
	if correctIdx < 0 {
		return evaluation{}, fmt.Errorf("%w: %q", ErrUnknownAnswerText, q.Question)
	}

	userIdx := answer - 1
	userText := q.Options[userIdx]
	correct := userText == q.Answer

	retryCount := q.RetryCount
	if !correct {
		retryCount++
	}

	return evaluation{
		question:   q,
		correct:    correct,
		retryCount: retryCount,
		feedback: Feedback{
			Correct:       correct,
			UserAnswer:    models.FormatOption(userIdx, userText),
			CorrectAnswer: models.FormatOption(correctIdx, q.Answer),
			Explanation:   q.Explanation,
		},
	}, nil
}

// finishesAfter reports whether applying e will exhaust both queues
func (s *Session) finishesAfter(e evaluation) bool {
	return s.index+1 >= len(s.queue) && len(s.retry) == 0 && !e.requeue()
}

// apply records the evaluated answer and advances to the next question.
// It returns false once the session is finished.
func (s *Session) apply(e evaluation) bool {
	if e.correct {
		s.masteryCorrect++
		s.streak++
		if s.streak > s.longestStreak {
			s.longestStreak = s.streak
		}
	} else {
		s.streak = 0
		if e.requeue() {
			s.retry = append(s.retry, retryCopy(e.question, e.retryCount))
		}
	}

	s.index++
	return s.advance()
}

// advance picks the next question: the rest of the working queue first,
// then the oldest retry. Every question served after an answer gets its
// options reshuffled.
func (s *Session) advance() bool {
	switch {
	case s.index < len(s.queue):
		s.current = s.queue[s.index].Clone()
	case len(s.retry) > 0:
		s.current = s.retry[0]
		s.retry = s.retry[1:]
	default:
		s.current = models.Question{}
		s.finished = true
		return false
	}
	opts := s.current.Options
	s.shuffle(len(opts), func(i, j int) { opts[i], opts[j] = opts[j], opts[i] })
	return true
}

func retryCopy(q models.Question, retryCount int) models.Question {
	c := q.Clone()
	c.RetryCount = retryCount
	c.Token = ""
	c.Explanation = fmt.Sprintf("Retry #%d: %s", retryCount, retryPrefix.ReplaceAllString(q.Explanation, ""))
	return c
}

// progress reports the position of the session
func (s *Session) progress() Progress {
	return Progress{
		Index:             s.index,
		ProgressPct:       models.Percentage(s.index, s.originalTotal),
		RetryQueue:        len(s.retry),
		MasteryPercentage: models.Percentage(s.masteryCorrect, s.masteryTotal),
		CorrectStreak:     s.streak,
	}
}

// Current returns a copy of the question awaiting an answer
func (s *Session) Current() models.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// Finished reports whether both queues have been exhausted
func (s *Session) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}
