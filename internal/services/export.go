package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/quiz-engine/internal/storage"
)

// ExportService renders a principal's attempt history as an xlsx workbook
// for host-side reporting.
type ExportService struct {
	history storage.HistoryStore
	logger  *slog.Logger
}

func NewExportService(history storage.HistoryStore, logger *slog.Logger) *ExportService {
	return &ExportService{history: history, logger: logger}
}

var attemptExportHeaders = []string{
	"Attempt ID", "Quiz ID", "Started At", "Ended At", "Duration (s)",
	"Total Score", "Max Score", "Percentage", "Status", "Submit Reason", "Answers",
}

// ExportHistory writes one row per sealed attempt.
func (s *ExportService) ExportHistory(ctx context.Context, userID string) ([]byte, error) {
	attempts, err := s.history.ByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attempt history: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheetName = "Attempts"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for i, header := range attemptExportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	for row, attempt := range attempts {
		endedAt := ""
		if attempt.EndedAt != nil {
			endedAt = attempt.EndedAt.Format("2006-01-02 15:04:05")
		}
		duration := 0
		if attempt.Duration != nil {
			duration = *attempt.Duration
		}
		reason := ""
		if attempt.SubmitReason != nil {
			reason = string(*attempt.SubmitReason)
		}

		values := []any{
			attempt.ID,
			attempt.QuizID,
			attempt.StartedAt.Format("2006-01-02 15:04:05"),
			endedAt,
			duration,
			attempt.TotalScore,
			attempt.MaxScore,
			attempt.Percentage,
			string(attempt.Status),
			reason,
			len(attempt.Answers),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	s.logger.Info("Exported attempt history",
		"user_id", userID,
		"attempts", len(attempts))

	return buf.Bytes(), nil
}
