package writer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/lamim/drillforge/pkg/models"
)

const (
	SummaryFilename = "summary.xlsx"

	SummarySheet = "Summary"
	AnswersSheet = "Answers"
)

var answerHeader = []any{
	"#", "Flashcard ID", "Answered ID", "Correct", "Response time (ms)", "Direction", "Time gap (s)", "Options",
}

// ExportSummaryXLSX writes the journal of a set as a two-sheet workbook
func ExportSummaryXLSX(path string, j *models.Journal) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// The new workbook starts with Sheet1
	f.SetSheetName("Sheet1", SummarySheet)
	if _, err := f.NewSheet(AnswersSheet); err != nil {
		return fmt.Errorf("failed to create answers sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	summary := [][]any{
		{"Session ID", j.SessionID},
		{"Profile", j.Profile},
		{"Phase", string(j.CurrentPhase)},
		{"Created at", j.CreatedAt.Format("2006-01-02 15:04:05")},
		{"Set length", j.SetLength},
		{"Delivered", len(j.FlashcardIDs)},
		{"Answered", j.Stats.Answered},
		{"Correct", j.Stats.Correct},
		{"Skipped", j.Stats.Skipped},
		{"Accuracy (%)", roundTo(j.Stats.Accuracy(), 1)},
		{"Total duration", j.Stats.TotalDuration.String()},
		{"Average response", j.Stats.AverageResponse.String()},
	}
	for i, row := range summary {
		if err := setRow(f, SummarySheet, i+1, row); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(SummarySheet, "A1", fmt.Sprintf("A%d", len(summary)), bold); err != nil {
		return fmt.Errorf("failed to style summary: %w", err)
	}

	if err := setRow(f, AnswersSheet, 1, answerHeader); err != nil {
		return err
	}
	lastCol, err := excelize.CoordinatesToCellName(len(answerHeader), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(AnswersSheet, "A1", lastCol, bold); err != nil {
		return fmt.Errorf("failed to style answers header: %w", err)
	}

	for i := range j.Answers {
		a := &j.Answers[i]
		if err := setRow(f, AnswersSheet, i+2, answerRow(i+1, a)); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func answerRow(n int, a *models.Answer) []any {
	answered := ""
	if a.FlashcardAnsweredID != nil {
		answered = strconv.FormatInt(*a.FlashcardAnsweredID, 10)
	}
	gap := ""
	if a.TimeGap != nil {
		gap = strconv.FormatInt(*a.TimeGap, 10)
	}
	options := make([]string, len(a.OptionIDs))
	for i, id := range a.OptionIDs {
		options[i] = strconv.FormatInt(id, 10)
	}
	return []any{n, a.FlashcardID, answered, a.IsCorrect(), a.ResponseTime, a.Direction, gap, strings.Join(options, ",")}
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func roundTo(v float64, digits int) float64 {
	s := strconv.FormatFloat(v, 'f', digits, 64)
	r, _ := strconv.ParseFloat(s, 64)
	return r
}
