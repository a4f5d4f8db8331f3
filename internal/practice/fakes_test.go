package practice

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"certifyeasy/internal/models"
	"certifyeasy/internal/qbank"
)

type counterKey struct {
	userID              int64
	exam, part, subject string
}

type missedKey struct {
	counterKey
	question string
}

// memStore is an in-memory ProgressStore
type memStore struct {
	mu       sync.Mutex
	counters map[counterKey]*models.ProgressCounter
	missed   map[missedKey]models.MissedQuestion
	upserts  int
	fail     map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		counters: make(map[counterKey]*models.ProgressCounter),
		missed:   make(map[missedKey]models.MissedQuestion),
		fail:     make(map[string]error),
	}
}

func (s *memStore) failing(op string) error {
	return s.fail[op]
}

func (s *memStore) GetOrCreateCounter(ctx context.Context, userID int64, exam, part, subject string, defaultTotal int) (models.ProgressCounter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failing("GetOrCreateCounter"); err != nil {
		return models.ProgressCounter{}, err
	}
	key := counterKey{userID, exam, part, subject}
	c, ok := s.counters[key]
	if !ok {
		c = &models.ProgressCounter{UserID: userID, Exam: exam, Part: part, Subject: subject, Total: defaultTotal}
		s.counters[key] = c
	}
	return *c, nil
}

func (s *memStore) GetCounter(ctx context.Context, userID int64, exam, part, subject string) (models.ProgressCounter, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.counters[counterKey{userID, exam, part, subject}]
	if !ok {
		return models.ProgressCounter{}, false, nil
	}
	return *c, true, nil
}

func (s *memStore) IncrementCompleted(ctx context.Context, userID int64, exam, part, subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failing("IncrementCompleted"); err != nil {
		return err
	}
	c, ok := s.counters[counterKey{userID, exam, part, subject}]
	if !ok {
		return errors.New("no counter")
	}
	c.Completed++
	return nil
}

func (s *memStore) UpsertMissed(ctx context.Context, m models.MissedQuestion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failing("UpsertMissed"); err != nil {
		return err
	}
	s.upserts++
	key := missedKey{counterKey{m.UserID, m.Exam, m.Part, m.Subject}, m.QuestionText}
	if _, ok := s.missed[key]; !ok {
		s.missed[key] = m
	}
	return nil
}

func (s *memStore) ClearMissed(ctx context.Context, userID int64, exam, part, subject, question string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.missed, missedKey{counterKey{userID, exam, part, subject}, question})
	return nil
}

func (s *memStore) CountMissed(ctx context.Context, userID int64, exam, part, subject string) (int, error) {
	missed, err := s.ListMissed(ctx, userID, exam, part, subject)
	return len(missed), err
}

func (s *memStore) ListMissed(ctx context.Context, userID int64, exam, part, subject string) ([]models.MissedQuestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.MissedQuestion
	for k, m := range s.missed {
		if k.counterKey == (counterKey{userID, exam, part, subject}) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionText < out[j].QuestionText })
	return out, nil
}

func (s *memStore) AggregateMastery(ctx context.Context, userID int64, exam string) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var completed, total int
	for k, c := range s.counters {
		if k.userID == userID && k.exam == exam {
			completed += c.Completed
			total += c.Total
		}
	}
	return completed, total, nil
}

func (s *memStore) hasMissed(userID int64, exam, part, subject, question string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.missed[missedKey{counterKey{userID, exam, part, subject}, question}]
	return ok
}

func (s *memStore) counter(userID int64, exam, part, subject string) models.ProgressCounter {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.counters[counterKey{userID, exam, part, subject}]; ok {
		return *c
	}
	return models.ProgressCounter{}
}

// fakeSigner hands out opaque sequential tokens
type fakeSigner struct {
	mu     sync.Mutex
	issued map[string]models.QuestionInstance
}

func newFakeSigner() *fakeSigner {
	return &fakeSigner{issued: make(map[string]models.QuestionInstance)}
}

func (f *fakeSigner) Sign(inst models.QuestionInstance) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	token := "tok-" + strconv.Itoa(len(f.issued)+1)
	f.issued[token] = inst
	return token, nil
}

func (f *fakeSigner) Verify(token string) (models.QuestionInstance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inst, ok := f.issued[token]
	if !ok {
		return models.QuestionInstance{}, errors.New("unknown token")
	}
	return inst, nil
}

// identity leaves order untouched
func identity(n int, swap func(i, j int)) {}

// reverse reverses order
func reverse(n int, swap func(i, j int)) {
	for i := 0; i < n/2; i++ {
		swap(i, n-1-i)
	}
}

func question(text, answer string, options ...string) models.Question {
	return models.Question{
		Question:    text,
		Options:     options,
		Answer:      answer,
		Explanation: "Because " + answer + ".",
	}
}

func numberedQuestions(n int) []models.Question {
	qs := make([]models.Question, n)
	for i := range qs {
		text := fmt.Sprintf("Question %d", i+1)
		qs[i] = question(text, "right", "right", "wrong 1", "wrong 2", "wrong 3")
	}
	return qs
}

func bankWith(exam, part, subject string, qs ...models.Question) *qbank.Bank {
	b := qbank.NewBank()
	b.Add(exam, part, subject, qs...)
	return b
}

// correctChoice returns the 1-based index of the right option
func correctChoice(q models.Question) int {
	return q.AnswerIndex() + 1
}

// wrongChoice returns the 1-based index of some wrong option
func wrongChoice(q models.Question) int {
	for i, opt := range q.Options {
		if opt != q.Answer {
			return i + 1
		}
	}
	return 0
}
