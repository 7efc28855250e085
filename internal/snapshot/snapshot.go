// Package snapshot serves the read accessors of the result engine from a JSON
// document holding the flat record collections, so derivations can run
// without a database.
package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/noah-isme/sma-exams-api/internal/models"
)

// Document is the on-disk layout. Field names match the stored records.
type Document struct {
	Students    []models.Student    `json:"students"`
	Streams     []models.Stream     `json:"streams"`
	Exams       []models.Exam       `json:"exams"`
	ExamResults []models.ExamResult `json:"examResults"`
	Subjects    []models.Subject    `json:"subjects"`
	ExamTypes   []models.ExamType   `json:"examTypes"`
}

// Store holds a loaded document.
type Store struct {
	doc Document
}

// New wraps an in-memory document.
func New(doc Document) *Store {
	return &Store{doc: doc}
}

// Load reads a snapshot file.
func Load(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses a snapshot document from r.
func Decode(r io.Reader) (*Store, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return New(doc), nil
}

// Exams returns the exam accessor.
func (s *Store) Exams() ExamReader { return ExamReader{store: s} }

// ExamResults returns the raw result accessor.
func (s *Store) ExamResults() ExamResultReader { return ExamResultReader{store: s} }

// Students returns the roster accessor.
func (s *Store) Students() StudentReader { return StudentReader{store: s} }

// Subjects returns the subject accessor.
func (s *Store) Subjects() SubjectReader { return SubjectReader{store: s} }

// ExamReader looks exams up by id.
type ExamReader struct{ store *Store }

// FindByID returns a copy of the exam or a wrapped sql.ErrNoRows.
func (r ExamReader) FindByID(_ context.Context, id string) (*models.Exam, error) {
	for _, exam := range r.store.doc.Exams {
		if exam.ID == id {
			found := exam
			found.Subjects = append([]models.ExamSubject(nil), exam.Subjects...)
			return &found, nil
		}
	}
	return nil, fmt.Errorf("exam %s: %w", id, sql.ErrNoRows)
}

// ExamResultReader lists raw results.
type ExamResultReader struct{ store *Store }

// ListByExam returns the raw results of one exam in document order.
func (r ExamResultReader) ListByExam(_ context.Context, examID string) ([]models.ExamResult, error) {
	var results []models.ExamResult
	for _, result := range r.store.doc.ExamResults {
		if result.ExamID == examID {
			results = append(results, result)
		}
	}
	return results, nil
}

// StudentReader serves the roster.
type StudentReader struct{ store *Store }

// ListByCohort returns the students of a form, optionally narrowed to a
// stream, in document order.
func (r StudentReader) ListByCohort(_ context.Context, formID, streamID string) ([]models.Student, error) {
	var students []models.Student
	for _, student := range r.store.doc.Students {
		if student.FormID == formID && student.InStream(streamID) {
			students = append(students, student)
		}
	}
	return students, nil
}

// FindByID returns a student or a wrapped sql.ErrNoRows.
func (r StudentReader) FindByID(_ context.Context, id string) (*models.Student, error) {
	for _, student := range r.store.doc.Students {
		if student.ID == id {
			found := student
			return &found, nil
		}
	}
	return nil, fmt.Errorf("student %s: %w", id, sql.ErrNoRows)
}

// SubjectReader lists subjects.
type SubjectReader struct{ store *Store }

// List returns every subject.
func (r SubjectReader) List(_ context.Context) ([]models.Subject, error) {
	return append([]models.Subject(nil), r.store.doc.Subjects...), nil
}
