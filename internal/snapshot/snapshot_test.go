package snapshot

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-exams-api/internal/models"
)

const sampleDocument = `{
  "students": [
    {"id": "s1", "admissionNumber": "1001", "name": "Amina Wanjiru", "formId": "form-4", "streamId": "east", "gender": "female"},
    {"id": "s2", "admissionNumber": "1002", "name": "Brian Otieno", "formId": "form-4", "streamId": "west", "gender": "male"},
    {"id": "s3", "admissionNumber": "1003", "name": "Chebet Kiprop", "formId": "form-3", "gender": "female", "parentContact": "0711000000"}
  ],
  "streams": [{"id": "east", "name": "4 East", "formId": "form-4"}],
  "exams": [{
    "id": "exam-1", "name": "Mid Term", "examTypeId": "t1", "termId": "term-1", "year": 2024,
    "startDate": "2024-03-04", "endDate": "2024-03-08",
    "subjects": [{"subjectId": "math", "maxMarks": 100}, {"subjectId": "bio", "maxMarks": 80}],
    "gradingSystem": "knec"
  }],
  "examResults": [
    {"id": "r1", "examId": "exam-1", "studentId": "s1", "subjectId": "math", "marks": 78, "maxMarks": 100, "percentage": 78, "grade": "A-", "points": 11},
    {"id": "r2", "examId": "exam-2", "studentId": "s1", "subjectId": "math", "marks": 10, "maxMarks": 100, "percentage": 10}
  ],
  "subjects": [{"id": "math", "name": "Mathematics", "code": "MAT"}, {"id": "bio", "name": "Biology", "code": "BIO"}],
  "examTypes": [{"id": "t1", "name": "Mid Term"}]
}`

func TestDecodeAndAccessors(t *testing.T) {
	store, err := Decode(strings.NewReader(sampleDocument))
	require.NoError(t, err)
	ctx := context.Background()

	exam, err := store.Exams().FindByID(ctx, "exam-1")
	require.NoError(t, err)
	assert.Equal(t, models.GradingSystemKNEC, exam.GradingSystem)
	assert.Len(t, exam.Subjects, 2)

	results, err := store.ExamResults().ListByExam(ctx, "exam-1")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotNil(t, results[0].Points)
	assert.Equal(t, 11, *results[0].Points)

	form4, err := store.Students().ListByCohort(ctx, "form-4", "")
	require.NoError(t, err)
	assert.Len(t, form4, 2)

	east, err := store.Students().ListByCohort(ctx, "form-4", "east")
	require.NoError(t, err)
	require.Len(t, east, 1)
	assert.Equal(t, "s1", east[0].ID)

	student, err := store.Students().FindByID(ctx, "s3")
	require.NoError(t, err)
	require.NotNil(t, student.ParentContact)
	assert.Nil(t, student.StreamID)

	subjects, err := store.Subjects().List(ctx)
	require.NoError(t, err)
	assert.Len(t, subjects, 2)
}

func TestMissingRecordsWrapErrNoRows(t *testing.T) {
	store := New(Document{})
	ctx := context.Background()

	_, err := store.Exams().FindByID(ctx, "nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	_, err = store.Students().FindByID(ctx, "nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestFindByIDReturnsCopy(t *testing.T) {
	store, err := Decode(strings.NewReader(sampleDocument))
	require.NoError(t, err)

	exam, err := store.Exams().FindByID(context.Background(), "exam-1")
	require.NoError(t, err)
	exam.Subjects[0].MaxMarks = 1

	again, err := store.Exams().FindByID(context.Background(), "exam-1")
	require.NoError(t, err)
	assert.Equal(t, 100.0, again.Subjects[0].MaxMarks)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "school.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleDocument), 0o600))

	store, err := Load(path)
	require.NoError(t, err)
	_, err = store.Exams().FindByID(context.Background(), "exam-1")
	assert.NoError(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = Decode(strings.NewReader("{"))
	assert.Error(t, err)
}
