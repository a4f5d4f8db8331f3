package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"certifyeasy/internal/config"
	"certifyeasy/internal/models"
	"certifyeasy/internal/qbank"
	"certifyeasy/internal/validation"
)

var qbankCmd = &cobra.Command{
	Use:   "qbank",
	Short: "Inspect and edit question bank CSV files",
}

var qbankValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check every catalog bank for invalid questions",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := bankDir(cmd)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		invalid := 0
		for _, exam := range models.DefaultExams {
			for _, part := range exam.Parts {
				path := filepath.Join(dir, qbank.FileName(exam.Code, part.Code))
				records, err := qbank.LoadFile(path)
				if errors.Is(err, os.ErrNotExist) {
					fmt.Fprintf(out, "%s: missing\n", path)
					continue
				}
				if err != nil {
					fmt.Fprintf(out, "%s: %v\n", path, err)
					invalid++
					continue
				}

				issues := qbank.ValidateRecords(records)
				for _, issue := range issues {
					fmt.Fprintf(out, "%s:%d [%s] %v\n", path, issue.Line, issue.Subject, issue.Err)
				}
				invalid += len(issues)
				fmt.Fprintf(out, "%s: %d questions, %d invalid\n", path, len(records), len(issues))
			}
		}

		if invalid > 0 {
			return fmt.Errorf("%d invalid entries", invalid)
		}
		return nil
	},
}

var qbankSubjectsCmd = &cobra.Command{
	Use:   "subjects",
	Short: "List the subjects of an exam part with question counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := bankDir(cmd)
		if err != nil {
			return err
		}
		exam, _ := cmd.Flags().GetString("exam")
		part, _ := cmd.Flags().GetString("part")
		if err := validation.ValidateExamPart(models.DefaultExams, exam, part); err != nil {
			return err
		}

		records, err := qbank.LoadFile(filepath.Join(dir, qbank.FileName(exam, part)))
		if err != nil {
			return err
		}
		bank := qbank.NewBank()
		for _, r := range records {
			bank.Add(exam, part, r.Subject, r.Question)
		}

		out := cmd.OutOrStdout()
		for _, subject := range bank.Subjects(exam, part) {
			fmt.Fprintf(out, "%4d  %s\n", len(bank.Questions(exam, part, subject)), subject)
		}
		fmt.Fprintf(out, "%4d  total\n", bank.Count(exam, part))
		return nil
	},
}

var qbankAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Append a question to an exam part's bank",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := bankDir(cmd)
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		exam, _ := flags.GetString("exam")
		part, _ := flags.GetString("part")
		subject, _ := flags.GetString("subject")
		text, _ := flags.GetString("question")
		options, _ := flags.GetStringArray("option")
		answer, _ := flags.GetString("answer")
		explanation, _ := flags.GetString("explanation")

		if err := validation.ValidateExamPart(models.DefaultExams, exam, part); err != nil {
			return err
		}

		q := models.Question{
			Question:    text,
			Options:     options,
			Answer:      answer,
			Explanation: explanation,
		}
		path := filepath.Join(dir, qbank.FileName(exam, part))
		if err := qbank.AppendQuestion(path, subject, q); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "added question to %s [%s]\n", path, subject)
		return nil
	},
}

// bankDir returns --dir, falling back to QBANK_PATH
func bankDir(cmd *cobra.Command) (string, error) {
	if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
		return dir, nil
	}
	return config.Load().QBankPath, nil
}

func init() {
	qbankCmd.PersistentFlags().String("dir", "", "Question bank directory (overrides QBANK_PATH)")

	qbankSubjectsCmd.Flags().String("exam", "", "Exam code, e.g. CIA")
	qbankSubjectsCmd.Flags().String("part", "", "Exam part, empty for single-part exams")
	_ = qbankSubjectsCmd.MarkFlagRequired("exam")

	f := qbankAddCmd.Flags()
	f.String("exam", "", "Exam code, e.g. CIA")
	f.String("part", "", "Exam part, empty for single-part exams")
	f.String("subject", "", "Subject name")
	f.String("question", "", "Question text")
	f.StringArray("option", nil, "Answer option (repeat four times)")
	f.String("answer", "", "Correct option text")
	f.String("explanation", "", "Explanation shown after answering")
	for _, name := range []string{"exam", "subject", "question", "option", "answer", "explanation"} {
		_ = qbankAddCmd.MarkFlagRequired(name)
	}

	qbankCmd.AddCommand(qbankValidateCmd)
	qbankCmd.AddCommand(qbankSubjectsCmd)
	qbankCmd.AddCommand(qbankAddCmd)
}
