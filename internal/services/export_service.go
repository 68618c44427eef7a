package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/quizforge/quiz-service/internal/grading"
	"github.com/quizforge/quiz-service/internal/models"
	"github.com/quizforge/quiz-service/internal/repositories"
)

// ExportFormat selects the serialization of an export.
type ExportFormat string

const (
	FormatXLSX ExportFormat = "xlsx"
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
)

// ParseExportFormat validates a format query parameter.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(s))) {
	case FormatXLSX, "":
		return FormatXLSX, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, s)
}

// ContentType returns the response content type for the format.
func (f ExportFormat) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatJSON:
		return "application/json"
	default:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
}

// Extension returns the file extension for the format, without dot.
func (f ExportFormat) Extension() string {
	return string(f)
}

// ExportService renders a quiz's questions or its attempt results as a
// downloadable file. Exports are owner-only.
type ExportService interface {
	ExportQuestions(ctx context.Context, quizID, ownerID string, format ExportFormat) ([]byte, error)
	ExportResults(ctx context.Context, quizID, ownerID string, format ExportFormat) ([]byte, error)
}

type exportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{
		repo:   repo,
		logger: logger,
	}
}

// ===== QUESTION EXPORT =====

var questionHeaders = []string{
	"ID", "Type", "Question", "Options", "Correct Answer", "Explanation",
}

func (s *exportService) ExportQuestions(ctx context.Context, quizID, ownerID string, format ExportFormat) ([]byte, error) {
	questions, err := s.getOwnedQuestions(ctx, quizID, ownerID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Exporting quiz questions",
		"quiz_id", quizID,
		"format", format,
		"questions", len(questions))

	switch format {
	case FormatJSON:
		return json.MarshalIndent(questions, "", "  ")
	case FormatCSV:
		return writeCSV(questionHeaders, questionRows(questions))
	default:
		return writeExcel("Questions", questionHeaders, questionRows(questions))
	}
}

func questionRows(questions []models.Question) [][]string {
	rows := make([][]string, 0, len(questions))
	for _, q := range questions {
		rows = append(rows, []string{
			q.ID,
			string(q.Type),
			q.Text,
			renderOptions(q),
			renderCanonical(grading.Explain(q)),
			q.Explanation,
		})
	}
	return rows
}

func renderOptions(q models.Question) string {
	switch q.Type {
	case models.Matching:
		return strings.Join(q.Options.Pairs.Left, "; ") + " / " + strings.Join(q.Options.Pairs.Right, "; ")
	case models.Ordering:
		return strings.Join(q.Options.Order, "; ")
	default:
		return strings.Join(q.Options.Choices, "; ")
	}
}

func renderCanonical(c grading.Canonical) string {
	switch c.Kind {
	case grading.KindMapping:
		parts := make([]string, 0, len(c.Mapping))
		for left, right := range c.Mapping {
			parts = append(parts, left+"="+right)
		}
		return strings.Join(parts, "; ")
	case grading.KindOrder:
		return strings.Join(c.Order, "; ")
	default:
		return c.Value
	}
}

// ===== RESULT EXPORT =====

var resultHeaders = []string{
	"Attempt ID", "User ID", "Score", "Total", "Percentage", "Remark", "Submitted At",
}

func (s *exportService) ExportResults(ctx context.Context, quizID, ownerID string, format ExportFormat) ([]byte, error) {
	if _, err := s.repo.Quiz().GetByIDForOwner(ctx, quizID, ownerID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	attempts, _, err := s.repo.Attempt().ListByQuiz(ctx, quizID, repositories.AttemptFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	s.logger.Info("Exporting quiz results",
		"quiz_id", quizID,
		"format", format,
		"attempts", len(attempts))

	switch format {
	case FormatJSON:
		return json.MarshalIndent(attempts, "", "  ")
	case FormatCSV:
		return writeCSV(resultHeaders, resultRows(attempts))
	default:
		return writeExcel("Results", resultHeaders, resultRows(attempts))
	}
}

func resultRows(attempts []*models.Attempt) [][]string {
	rows := make([][]string, 0, len(attempts))
	for _, a := range attempts {
		rows = append(rows, []string{
			a.ID,
			a.UserID,
			strconv.Itoa(a.Score),
			strconv.Itoa(a.Total),
			strconv.Itoa(a.Percentage()),
			a.Remark,
			a.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return rows
}

// ===== HELPERS =====

func (s *exportService) getOwnedQuestions(ctx context.Context, quizID, ownerID string) ([]models.Question, error) {
	quiz, err := s.repo.Quiz().GetByIDForOwner(ctx, quizID, ownerID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	questions, err := quiz.DecodeQuestions()
	if err != nil {
		return nil, fmt.Errorf("failed to decode questions for quiz %s: %w", quizID, err)
	}
	return questions, nil
}

func writeCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("CSV writer error: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

func writeExcel(sheetName string, headers []string, rows [][]string) ([]byte, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)

	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, row := range rows {
		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}
