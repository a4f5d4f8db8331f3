// Package qbank loads the per-exam question banks. A bank is a CSV file
// with one row per question, grouped by subject.
package qbank

import "certifyeasy/internal/models"

type bankKey struct {
	exam string
	part string
}

type subjectSet struct {
	order     []string
	questions map[string][]models.Question
}

// Bank holds every loaded question, keyed by exam, part and subject.
// Build it with Add before sharing; afterwards it is read-only and safe
// for concurrent readers.
type Bank struct {
	sets map[bankKey]*subjectSet
}

// NewBank returns an empty bank
func NewBank() *Bank {
	return &Bank{sets: make(map[bankKey]*subjectSet)}
}

// Add appends questions to a subject, registering the subject on first use
func (b *Bank) Add(exam, part, subject string, questions ...models.Question) {
	key := bankKey{exam, part}
	set, ok := b.sets[key]
	if !ok {
		set = &subjectSet{questions: make(map[string][]models.Question)}
		b.sets[key] = set
	}
	if _, ok := set.questions[subject]; !ok {
		set.order = append(set.order, subject)
	}
	for _, q := range questions {
		set.questions[subject] = append(set.questions[subject], q.Clone())
	}
}

// Subjects lists the subjects of an exam part in the order they first
// appear in the bank. Unknown exams yield nil.
func (b *Bank) Subjects(exam, part string) []string {
	set, ok := b.sets[bankKey{exam, part}]
	if !ok {
		return nil
	}
	return append([]string(nil), set.order...)
}

// Questions returns a copy of a subject's questions in bank order
func (b *Bank) Questions(exam, part, subject string) []models.Question {
	set, ok := b.sets[bankKey{exam, part}]
	if !ok {
		return nil
	}
	src := set.questions[subject]
	out := make([]models.Question, len(src))
	for i, q := range src {
		out[i] = q.Clone()
	}
	return out
}

// SubjectsFor returns the full subject to questions mapping of an exam part
func (b *Bank) SubjectsFor(exam, part string) map[string][]models.Question {
	out := make(map[string][]models.Question)
	for _, subject := range b.Subjects(exam, part) {
		out[subject] = b.Questions(exam, part, subject)
	}
	return out
}

// Count returns the number of questions in an exam part
func (b *Bank) Count(exam, part string) int {
	set, ok := b.sets[bankKey{exam, part}]
	if !ok {
		return 0
	}
	n := 0
	for _, qs := range set.questions {
		n += len(qs)
	}
	return n
}
