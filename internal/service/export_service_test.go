package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-exams-api/internal/models"
	appErrors "github.com/noah-isme/sma-exams-api/pkg/errors"
)

func newExportServiceForTest(t *testing.T) (*ExportService, *fakeResultStore, *stubCacheRepo) {
	t.Helper()
	exams, results, roster, subjects := form4Fixture()
	resultSvc := NewResultService(exams, results, roster, subjects, nil, nil, zap.NewNop())
	repo := &stubCacheRepo{}
	cache := NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)
	svc := NewExportService(resultSvc, cache, nil, ExportConfig{SchoolName: "Kisumu Girls High School"}, zap.NewNop())
	return svc, results, repo
}

func TestExportServiceCSVLayout(t *testing.T) {
	svc, _, _ := newExportServiceForTest(t)

	file, err := svc.Export(context.Background(), CohortQuery{ExamID: "exam-1", FormID: "4"}, "csv")
	require.NoError(t, err)
	assert.Equal(t, "mid_term_form-4.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.False(t, file.Cached)

	records, err := csv.NewReader(bytes.NewReader(file.Body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"Pos", "Adm No", "Name", "MAT", "ENG", "Total %", "Mean %", "Grade"}, records[0])
	assert.Equal(t, []string{"1", "1003", "Cynthia Wanjiru", "90 A", "-", "90.0", "90.00", "A"}, records[1])
	assert.Equal(t, []string{"2", "1001", "Achieng Otieno", "85 A", "70 B+", "77.5", "77.50", "A-"}, records[2])
}

func TestExportServiceCachesByFingerprint(t *testing.T) {
	svc, results, repo := newExportServiceForTest(t)
	ctx := context.Background()
	query := CohortQuery{ExamID: "exam-1", FormID: "4", StreamID: "east"}

	first, err := svc.Export(ctx, query, "xlsx")
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, "mid_term_form-4_east.xlsx", first.Filename)
	require.Len(t, repo.store, 1)

	second, err := svc.Export(ctx, query, "xlsx")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Body, second.Body)

	// Changed marks produce a new fingerprint, never the stale file.
	results.rows[0].Marks = 20
	third, err := svc.Export(ctx, query, "xlsx")
	require.NoError(t, err)
	assert.False(t, third.Cached)
	assert.Len(t, repo.store, 2)
}

func TestExportServicePDF(t *testing.T) {
	svc, _, _ := newExportServiceForTest(t)

	file, err := svc.Export(context.Background(), CohortQuery{ExamID: "exam-1", FormID: "4"}, "PDF")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Body, []byte("%PDF")))
}

func TestExportServiceRejectsUnknownFormat(t *testing.T) {
	svc, _, _ := newExportServiceForTest(t)

	_, err := svc.Export(context.Background(), CohortQuery{ExamID: "exam-1", FormID: "4"}, "docx")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnsupported))
}

func TestExportServicePropagatesNotFound(t *testing.T) {
	svc, _, _ := newExportServiceForTest(t)

	_, err := svc.Export(context.Background(), CohortQuery{ExamID: "missing", FormID: "4"}, "csv")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestBuildClassDatasetCBC(t *testing.T) {
	class := &models.ClassResult{
		ExamName:      "Opener",
		GradingSystem: models.GradingSystemCBC,
		FormID:        "1",
		StreamID:      "blue",
		Subjects:      []models.SubjectColumn{{SubjectID: "sci", Code: "SCI", MaxMarks: 50}},
		StudentResults: []models.AggregatedStudentResult{{
			StudentName: "Faith", AdmissionNumber: "77", Position: 1, MeanPercentage: 52,
			Results: map[string]models.SubjectResult{"sci": {Marks: 26, MaxMarks: 50, Percentage: 52, Outcome: models.CompetencyLevel{Level: 2, Description: "Approaching Expectations"}}},
		}},
	}

	dataset := BuildClassDataset(class, "")
	assert.Equal(t, "Opener", dataset.Title)
	assert.Equal(t, "Opener - Form 1 - Stream blue", dataset.Subtitle)
	assert.Equal(t, []string{"Pos", "Adm No", "Name", "SCI", "Total %", "Mean %"}, dataset.Headers)
	assert.Equal(t, "26 L2", dataset.Rows[0]["SCI"])
	assert.Equal(t, "-", dataset.Rows[0]["Total %"])
}
