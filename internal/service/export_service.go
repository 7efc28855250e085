package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-exams-api/internal/models"
	appErrors "github.com/noah-isme/sma-exams-api/pkg/errors"
	"github.com/noah-isme/sma-exams-api/pkg/export"
)

type classResultSource interface {
	ClassResults(ctx context.Context, query CohortQuery) (*models.ClassResult, error)
}

type exportCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	SchoolName string
	CacheTTL   time.Duration
}

// ExportFile is a rendered result sheet ready to be served.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
	Cached      bool
}

// ExportService renders ranked class results as downloadable sheets.
type ExportService struct {
	results   classResultSource
	cache     exportCache
	renderers map[export.Format]export.Renderer
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       ExportConfig
}

// NewExportService constructs an ExportService. A nil cache renders every request.
func NewExportService(results classResultSource, cache exportCache, metrics *MetricsService, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 15 * time.Minute
	}
	return &ExportService{
		results:   results,
		cache:     cache,
		renderers: export.Renderers(),
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
	}
}

// Export derives the class result and renders it in the requested format.
// Cached files are keyed by a fingerprint of the derived result, so a hit
// always matches the current marks.
func (s *ExportService) Export(ctx context.Context, query CohortQuery, rawFormat string) (*ExportFile, error) {
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnsupported.Code, appErrors.ErrUnsupported.Status, err.Error())
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnsupported, fmt.Sprintf("unsupported export format %q", rawFormat))
	}

	class, err := s.results.ClassResults(ctx, query)
	if err != nil {
		return nil, err
	}
	fingerprint, err := fingerprintClassResult(class, s.cfg.SchoolName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fingerprint results")
	}
	file := &ExportFile{
		Filename:    exportFilename(class, format),
		ContentType: format.ContentType(),
	}

	key := exportCacheKey(class, format, fingerprint)
	if s.cache != nil {
		if body, hit, err := s.cache.Get(ctx, key); err == nil && hit {
			file.Body = body
			file.Cached = true
			s.metrics.RecordExport(string(format), true)
			return file, nil
		}
	}

	body, err := renderer.Render(BuildClassDataset(class, s.cfg.SchoolName))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	file.Body = body

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, body, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("export cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	s.metrics.RecordExport(string(format), false)
	return file, nil
}

// BuildClassDataset lays out a ranked class result as a result sheet table.
func BuildClassDataset(class *models.ClassResult, schoolName string) export.Dataset {
	headers := []string{"Pos", "Adm No", "Name"}
	for _, subject := range class.Subjects {
		headers = append(headers, subject.Code)
	}
	headers = append(headers, "Total %", "Mean %")
	knec := class.GradingSystem == models.GradingSystemKNEC
	if knec {
		headers = append(headers, "Grade")
	}

	rows := make([]map[string]string, 0, len(class.StudentResults))
	for _, student := range class.StudentResults {
		row := map[string]string{
			"Pos":    strconv.Itoa(student.Position),
			"Adm No": student.AdmissionNumber,
			"Name":   student.StudentName,
			"Mean %": strconv.FormatFloat(student.MeanPercentage, 'f', 2, 64),
		}
		for _, subject := range class.Subjects {
			row[subject.Code] = subjectCell(student.Results, subject.SubjectID)
		}
		if student.TotalMaxMarks > 0 {
			row["Total %"] = strconv.FormatFloat(student.TotalMarks/student.TotalMaxMarks*100, 'f', 1, 64)
		} else {
			row["Total %"] = "-"
		}
		if knec {
			row["Grade"] = student.MeanGrade
			if row["Grade"] == "" {
				row["Grade"] = "-"
			}
		}
		rows = append(rows, row)
	}

	title := strings.TrimSpace(schoolName)
	if title == "" {
		title = class.ExamName
	}
	subtitle := fmt.Sprintf("%s - Form %s", class.ExamName, class.FormID)
	if class.StreamID != "" {
		subtitle += " - Stream " + class.StreamID
	}
	return export.Dataset{Title: title, Subtitle: subtitle, Headers: headers, Rows: rows}
}

func subjectCell(results map[string]models.SubjectResult, subjectID string) string {
	result, ok := results[subjectID]
	if !ok {
		return "-"
	}
	cell := strconv.FormatFloat(result.Marks, 'f', -1, 64)
	switch outcome := result.Outcome.(type) {
	case models.LetterGrade:
		cell += " " + outcome.Grade
	case models.CompetencyLevel:
		cell += " L" + strconv.Itoa(outcome.Level)
	}
	return cell
}

func fingerprintClassResult(class *models.ClassResult, schoolName string) (string, error) {
	payload, err := json.Marshal(struct {
		School string              `json:"school"`
		Class  *models.ClassResult `json:"class"`
	}{School: schoolName, Class: class})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:16]), nil
}

func exportCacheKey(class *models.ClassResult, format export.Format, fingerprint string) string {
	stream := class.StreamID
	if stream == "" {
		stream = "all"
	}
	return fmt.Sprintf("exports:%s:%s:%s:%s:%s", class.ExamID, class.FormID, stream, format, fingerprint)
}

func exportCachePattern(examID string) string {
	return fmt.Sprintf("exports:%s:*", examID)
}

func exportFilename(class *models.ClassResult, format export.Format) string {
	parts := []string{sanitizeFilename(class.ExamName), "form-" + sanitizeFilename(class.FormID)}
	if class.StreamID != "" {
		parts = append(parts, sanitizeFilename(class.StreamID))
	}
	return fmt.Sprintf("%s.%s", strings.ToLower(strings.Join(parts, "_")), format.Extension())
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_", "\"", "")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
