package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/noah-isme/sma-exams-api/internal/models"
)

func strPtr(v string) *string { return &v }

type fakeExamStore struct {
	exams   map[string]models.Exam
	updated []models.Exam
	deleted []string
	err     error
}

func newFakeExamStore(exams ...models.Exam) *fakeExamStore {
	store := &fakeExamStore{exams: make(map[string]models.Exam)}
	for _, exam := range exams {
		store.exams[exam.ID] = exam
	}
	return store
}

func (f *fakeExamStore) List(_ context.Context, _ models.ExamFilter) ([]models.Exam, int, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	out := make([]models.Exam, 0, len(f.exams))
	for _, exam := range f.exams {
		out = append(out, exam)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (f *fakeExamStore) FindByID(_ context.Context, id string) (*models.Exam, error) {
	if f.err != nil {
		return nil, f.err
	}
	exam, ok := f.exams[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &exam, nil
}

func (f *fakeExamStore) Create(_ context.Context, exam *models.Exam) error {
	if f.err != nil {
		return f.err
	}
	if exam.ID == "" {
		exam.ID = fmt.Sprintf("exam-%d", len(f.exams)+1)
	}
	f.exams[exam.ID] = *exam
	return nil
}

func (f *fakeExamStore) Update(_ context.Context, exam *models.Exam) error {
	if _, ok := f.exams[exam.ID]; !ok {
		return sql.ErrNoRows
	}
	f.exams[exam.ID] = *exam
	f.updated = append(f.updated, *exam)
	return nil
}

func (f *fakeExamStore) Delete(_ context.Context, id string) error {
	if _, ok := f.exams[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.exams, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeResultStore struct {
	rows      []models.ExamResult
	upserts   [][]models.ExamResult
	deleted   []string
	listCalls int
	err       error
	upsertErr error
}

func (f *fakeResultStore) ListByExam(_ context.Context, examID string) ([]models.ExamResult, error) {
	f.listCalls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.ExamResult, 0, len(f.rows))
	for _, row := range f.rows {
		if row.ExamID == examID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeResultStore) List(_ context.Context, filter models.ExamResultFilter) ([]models.ExamResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.ExamResult, 0, len(f.rows))
	for _, row := range f.rows {
		if filter.ExamID != "" && row.ExamID != filter.ExamID {
			continue
		}
		if filter.StudentID != "" && row.StudentID != filter.StudentID {
			continue
		}
		if filter.SubjectID != "" && row.SubjectID != filter.SubjectID {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (f *fakeResultStore) BulkUpsert(_ context.Context, results []models.ExamResult) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	batch := make([]models.ExamResult, len(results))
	copy(batch, results)
	f.upserts = append(f.upserts, batch)
	for _, result := range results {
		replaced := false
		for i, row := range f.rows {
			if row.ExamID == result.ExamID && row.StudentID == result.StudentID && row.SubjectID == result.SubjectID {
				f.rows[i] = result
				replaced = true
				break
			}
		}
		if !replaced {
			if result.ID == "" {
				result.ID = fmt.Sprintf("res-%d", len(f.rows)+1)
			}
			f.rows = append(f.rows, result)
		}
	}
	return nil
}

func (f *fakeResultStore) Delete(_ context.Context, id string) error {
	for i, row := range f.rows {
		if row.ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			f.deleted = append(f.deleted, id)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeResultStore) HighestMarksBySubject(_ context.Context, examID string) (map[string]float64, error) {
	highest := make(map[string]float64)
	for _, row := range f.rows {
		if row.ExamID != examID {
			continue
		}
		if current, ok := highest[row.SubjectID]; !ok || row.Marks > current {
			highest[row.SubjectID] = row.Marks
		}
	}
	return highest, nil
}

type fakeRoster struct {
	students []models.Student
	err      error
}

func (f *fakeRoster) ListByCohort(_ context.Context, formID, streamID string) ([]models.Student, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.Student, 0, len(f.students))
	for _, student := range f.students {
		if student.FormID == formID && student.InStream(streamID) {
			out = append(out, student)
		}
	}
	return out, nil
}

func (f *fakeRoster) FindByID(_ context.Context, id string) (*models.Student, error) {
	for _, student := range f.students {
		if student.ID == id {
			found := student
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

type fakeSubjects struct {
	subjects []models.Subject
	deleted  []string
	err      error
}

func (f *fakeSubjects) List(_ context.Context) ([]models.Subject, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.subjects, nil
}

func (f *fakeSubjects) FindByID(_ context.Context, id string) (*models.Subject, error) {
	for _, subject := range f.subjects {
		if subject.ID == id {
			found := subject
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeSubjects) ExistsByCode(_ context.Context, code string) (bool, error) {
	for _, subject := range f.subjects {
		if strings.EqualFold(subject.Code, code) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSubjects) Create(_ context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = "subject-" + strings.ToLower(subject.Code)
	}
	f.subjects = append(f.subjects, *subject)
	return nil
}

func (f *fakeSubjects) Delete(_ context.Context, id string) error {
	for i, subject := range f.subjects {
		if subject.ID == id {
			f.subjects = append(f.subjects[:i], f.subjects[i+1:]...)
			f.deleted = append(f.deleted, id)
			return nil
		}
	}
	return sql.ErrNoRows
}

type fakeInvalidator struct {
	patterns []string
	err      error
}

func (f *fakeInvalidator) Invalidate(_ context.Context, pattern string) error {
	f.patterns = append(f.patterns, pattern)
	return f.err
}

// form4Fixture: three form-4 students over a KNEC exam with two subjects.
// s3 (east) 90%, s1 (east) 77.5%, s2 (west) 55%. s3 sat only MAT.
func form4Fixture() (*fakeExamStore, *fakeResultStore, *fakeRoster, *fakeSubjects) {
	exam := models.Exam{
		ID:            "exam-1",
		Name:          "Mid Term",
		GradingSystem: models.GradingSystemKNEC,
		Subjects: []models.ExamSubject{
			{SubjectID: "mat", MaxMarks: 100},
			{SubjectID: "eng", MaxMarks: 100},
		},
	}
	results := &fakeResultStore{rows: []models.ExamResult{
		{ID: "r1", ExamID: "exam-1", StudentID: "s1", SubjectID: "mat", Marks: 85, MaxMarks: 100},
		{ID: "r2", ExamID: "exam-1", StudentID: "s1", SubjectID: "eng", Marks: 70, MaxMarks: 100},
		{ID: "r3", ExamID: "exam-1", StudentID: "s2", SubjectID: "mat", Marks: 50, MaxMarks: 100},
		{ID: "r4", ExamID: "exam-1", StudentID: "s2", SubjectID: "eng", Marks: 60, MaxMarks: 100},
		{ID: "r5", ExamID: "exam-1", StudentID: "s3", SubjectID: "mat", Marks: 90, MaxMarks: 100},
	}}
	roster := &fakeRoster{students: []models.Student{
		{ID: "s1", AdmissionNumber: "1001", Name: "Achieng Otieno", FormID: "4", StreamID: strPtr("east"), Gender: models.GenderFemale},
		{ID: "s2", AdmissionNumber: "1002", Name: "Brian Kamau", FormID: "4", StreamID: strPtr("west"), Gender: models.GenderMale},
		{ID: "s3", AdmissionNumber: "1003", Name: "Cynthia Wanjiru", FormID: "4", StreamID: strPtr("east"), Gender: models.GenderFemale},
		{ID: "s9", AdmissionNumber: "0901", Name: "Dennis Mutua", FormID: "3", Gender: models.GenderMale},
	}}
	subjects := &fakeSubjects{subjects: []models.Subject{
		{ID: "mat", Name: "Mathematics", Code: "MAT"},
		{ID: "eng", Name: "English", Code: "ENG"},
	}}
	return newFakeExamStore(exam), results, roster, subjects
}
