package qbank

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"certifyeasy/internal/models"
)

// Columns is the header every bank file carries
var Columns = []string{"subject", "question", "option1", "option2", "option3", "option4", "answer", "explanation"}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrMissingColumn is returned when a bank header lacks a required column
var ErrMissingColumn = errors.New("missing column")

// Record is one parsed bank row
type Record struct {
	Line     int
	Subject  string
	Question models.Question
}

// FileName returns the bank file name for an exam part, e.g. QBANK_CIA1.csv
func FileName(exam, part string) string {
	return "QBANK_" + exam + part + ".csv"
}

// LoadDir loads the bank file of every exam part in the catalog from dir.
// Missing files leave that part empty; unreadable files and rows that fail
// Validate are logged and skipped.
func LoadDir(dir string, exams []models.Exam, logger *slog.Logger) *Bank {
	bank := NewBank()
	for _, exam := range exams {
		for _, part := range exam.Parts {
			path := filepath.Join(dir, FileName(exam.Code, part.Code))
			records, err := LoadFile(path)
			if errors.Is(err, os.ErrNotExist) {
				logger.Warn("question bank not found", "exam", exam.Code, "part", part.Code, "path", path)
				continue
			}
			if err != nil {
				logger.Error("failed to load question bank", "path", path, "error", err)
				continue
			}
			loaded := 0
			for _, r := range records {
				if err := Validate(r.Subject, r.Question); err != nil {
					logger.Warn("skipping invalid question",
						"path", path, "line", r.Line, "subject", r.Subject, "error", err)
					continue
				}
				bank.Add(exam.Code, part.Code, r.Subject, r.Question)
				loaded++
			}
			logger.Info("loaded question bank",
				"exam", exam.Code, "part", part.Code, "questions", loaded,
				"skipped", len(records)-loaded, "subjects", bank.Subjects(exam.Code, part.Code))
		}
	}
	return bank
}

// LoadFile reads and parses one bank file
func LoadFile(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	records, err := Parse(bytes.NewReader(decode(data)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return records, nil
}

// decode returns data as UTF-8. Banks exported from spreadsheets are often
// Windows-1252, so anything that isn't valid UTF-8 is read as that.
func decode(data []byte) []byte {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data
	}
	if out, err := charmap.Windows1252.NewDecoder().Bytes(data); err == nil {
		return out
	}
	out, _ := charmap.ISO8859_1.NewDecoder().Bytes(data)
	return out
}

// Parse reads bank rows from r. Columns are located by header name, so
// their order in the file does not matter. Rows with too few fields are
// skipped.
func Parse(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	cols := make([]int, len(Columns))
	for i, name := range Columns {
		pos, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
		cols[i] = pos
	}

	var records []Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		line, _ := reader.FieldPos(0)

		field := func(i int) (string, bool) {
			if cols[i] >= len(row) {
				return "", false
			}
			return row[cols[i]], true
		}

		values := make([]string, len(Columns))
		complete := true
		for i := range Columns {
			v, ok := field(i)
			if !ok {
				complete = false
				break
			}
			values[i] = v
		}
		if !complete {
			continue
		}

		records = append(records, Record{
			Line:    line,
			Subject: strings.TrimSpace(values[0]),
			Question: models.Question{
				Question:    values[1],
				Options:     []string{values[2], values[3], values[4], values[5]},
				Answer:      values[6],
				Explanation: values[7],
			},
		})
	}
	return records, nil
}
