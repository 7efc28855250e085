package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-exams-api/internal/models"
	"github.com/noah-isme/sma-exams-api/internal/service"
	appErrors "github.com/noah-isme/sma-exams-api/pkg/errors"
)

type responseEnvelope struct {
	Data       json.RawMessage        `json:"data"`
	Error      *appErrors.Error       `json:"error"`
	Pagination *models.Pagination     `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func performRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

type fakeResultService struct {
	class      *models.ClassResult
	summary    *models.ExamSummary
	student    *models.AggregatedStudentResult
	err        error
	lastQuery  service.CohortQuery
	lastExamID string
	lastStudID string
}

func (f *fakeResultService) ClassResults(_ context.Context, query service.CohortQuery) (*models.ClassResult, error) {
	f.lastQuery = query
	return f.class, f.err
}

func (f *fakeResultService) StudentResult(_ context.Context, examID, studentID string) (*models.AggregatedStudentResult, error) {
	f.lastExamID, f.lastStudID = examID, studentID
	return f.student, f.err
}

func (f *fakeResultService) Summary(_ context.Context, query service.CohortQuery) (*models.ExamSummary, error) {
	f.lastQuery = query
	return f.summary, f.err
}

type fakeExportService struct {
	file       *service.ExportFile
	err        error
	lastFormat string
}

func (f *fakeExportService) Export(_ context.Context, _ service.CohortQuery, format string) (*service.ExportFile, error) {
	f.lastFormat = format
	return f.file, f.err
}

type fakeMarksService struct {
	lastReq   service.MarksEntryRequest
	lastStats service.MarksStatsQuery
	deleted   string
	err       error
}

func (f *fakeMarksService) Enter(_ context.Context, req service.MarksEntryRequest) (*service.MarksEntryResult, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &service.MarksEntryResult{Saved: len(req.Entries)}, nil
}

func (f *fakeMarksService) Stats(_ context.Context, query service.MarksStatsQuery) (*models.EntryStats, error) {
	f.lastStats = query
	return &models.EntryStats{Entries: 2, Mean: 50, Highest: 60, Lowest: 40}, f.err
}

func (f *fakeMarksService) Delete(_ context.Context, id string) error {
	f.deleted = id
	return f.err
}

type fakeExamService struct {
	lastFilter models.ExamFilter
	lastReq    service.ExamRequest
	err        error
}

func (f *fakeExamService) List(_ context.Context, filter models.ExamFilter) ([]models.Exam, *models.Pagination, error) {
	f.lastFilter = filter
	return []models.Exam{{ID: "exam-1"}}, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: 1}, f.err
}

func (f *fakeExamService) Get(_ context.Context, id string) (*models.Exam, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Exam{ID: id}, nil
}

func (f *fakeExamService) Create(_ context.Context, req service.ExamRequest) (*models.Exam, error) {
	f.lastReq = req
	return &models.Exam{ID: "exam-new", Name: req.Name}, f.err
}

func (f *fakeExamService) Update(_ context.Context, id string, req service.ExamRequest) (*models.Exam, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.Exam{ID: id, Name: req.Name}, nil
}

func (f *fakeExamService) Delete(_ context.Context, _ string) error { return f.err }

type fakeStudentService struct {
	lastFilter models.StudentFilter
	err        error
}

func (f *fakeStudentService) List(_ context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	f.lastFilter = filter
	return []models.Student{{ID: "s1"}}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, f.err
}

func (f *fakeStudentService) Get(_ context.Context, id string) (*models.Student, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Student{ID: id}, nil
}

func (f *fakeStudentService) Create(_ context.Context, req service.StudentRequest) (*models.Student, error) {
	return &models.Student{ID: "s-new", AdmissionNumber: req.AdmissionNumber}, f.err
}

func (f *fakeStudentService) Update(_ context.Context, id string, req service.StudentRequest) (*models.Student, error) {
	return &models.Student{ID: id, AdmissionNumber: req.AdmissionNumber}, f.err
}

func (f *fakeStudentService) Delete(_ context.Context, _ string) error { return f.err }

type fakeReferenceService struct {
	lastFormID string
}

func (f *fakeReferenceService) ListSubjects(context.Context) ([]models.Subject, error) {
	return []models.Subject{{ID: "mat", Code: "MAT"}}, nil
}

func (f *fakeReferenceService) CreateSubject(_ context.Context, req service.CreateSubjectRequest) (*models.Subject, error) {
	return &models.Subject{ID: "new", Name: req.Name, Code: req.Code}, nil
}

func (f *fakeReferenceService) DeleteSubject(context.Context, string) error {
	return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
}

func (f *fakeReferenceService) ListStreams(_ context.Context, formID string) ([]models.Stream, error) {
	f.lastFormID = formID
	return []models.Stream{}, nil
}

func (f *fakeReferenceService) CreateStream(_ context.Context, req service.CreateStreamRequest) (*models.Stream, error) {
	return &models.Stream{ID: "east", Name: req.Name, FormID: req.FormID}, nil
}

func (f *fakeReferenceService) ListExamTypes(context.Context) ([]models.ExamType, error) {
	return []models.ExamType{{ID: "mid", Name: "Mid Term"}}, nil
}

func (f *fakeReferenceService) CreateExamType(_ context.Context, req service.CreateExamTypeRequest) (*models.ExamType, error) {
	return &models.ExamType{ID: "mock", Name: req.Name}, nil
}

type testDeps struct {
	results   *fakeResultService
	exports   *fakeExportService
	marks     *fakeMarksService
	exams     *fakeExamService
	students  *fakeStudentService
	reference *fakeReferenceService
}

func buildTestRouter() (*gin.Engine, *testDeps) {
	gin.SetMode(gin.TestMode)
	deps := &testDeps{
		results:   &fakeResultService{},
		exports:   &fakeExportService{},
		marks:     &fakeMarksService{},
		exams:     &fakeExamService{},
		students:  &fakeStudentService{},
		reference: &fakeReferenceService{},
	}
	router := gin.New()
	RegisterRoutes(router.Group("/api/v1"), Handlers{
		Results:   NewResultHandler(deps.results, deps.exports),
		Marks:     NewMarksHandler(deps.marks),
		Exams:     NewExamHandler(deps.exams),
		Students:  NewStudentHandler(deps.students),
		Reference: NewReferenceHandler(deps.reference),
	})
	return router, deps
}
