package models

// ExamPart is one sittable part of an exam. Exams without parts have a
// single part with an empty code.
type ExamPart struct {
	Code  string `json:"code"`
	Title string `json:"title"`
}

// Exam describes a certification and its parts
type Exam struct {
	Code  string     `json:"code"`
	Parts []ExamPart `json:"parts"`
}

// DefaultExams is the catalog of certifications offered
var DefaultExams = []Exam{
	{
		Code: "CIA",
		Parts: []ExamPart{
			{Code: "1", Title: "Part 1: Essentials of Internal Auditing"},
			{Code: "2", Title: "Part 2: Practice of Internal Auditing"},
			{Code: "3", Title: "Part 3: Business Knowledge for Internal Auditing"},
		},
	},
	{
		Code:  "CISA",
		Parts: []ExamPart{{Code: "", Title: "Certified Information Systems Auditor"}},
	},
	{
		Code:  "CFA",
		Parts: []ExamPart{{Code: "", Title: "Chartered Financial Analyst Level 1"}},
	},
}

// FindExam returns the catalog entry for code
func FindExam(exams []Exam, code string) (Exam, bool) {
	for _, e := range exams {
		if e.Code == code {
			return e, true
		}
	}
	return Exam{}, false
}

// HasPart reports whether the exam offers the given part
func (e Exam) HasPart(code string) bool {
	for _, p := range e.Parts {
		if p.Code == code {
			return true
		}
	}
	return false
}
