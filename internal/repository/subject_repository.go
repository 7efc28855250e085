package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-exams-api/internal/models"
)

// SubjectRepository handles persistence for subjects.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository creates a new repository instance.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// List returns every subject ordered by name.
func (r *SubjectRepository) List(ctx context.Context) ([]models.Subject, error) {
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, "SELECT id, name, code FROM subjects ORDER BY name ASC"); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// FindByID returns a subject by ID.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, "SELECT id, name, code FROM subjects WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// ExistsByCode checks whether a subject code is already used.
func (r *SubjectRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, "SELECT 1 FROM subjects WHERE UPPER(code) = UPPER($1) LIMIT 1", code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check subject code: %w", err)
	}
	return true, nil
}

// Create inserts a subject.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	const query = `INSERT INTO subjects (id, name, code) VALUES (:id, :name, :code)`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

// Delete removes a subject, its exam declarations and every result recorded for it.
func (r *SubjectRepository) Delete(ctx context.Context, id string) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM exam_results WHERE subject_id = $1", id); err != nil {
			return fmt.Errorf("delete subject results: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM exam_subjects WHERE subject_id = $1", id); err != nil {
			return fmt.Errorf("delete exam subjects: %w", err)
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM subjects WHERE id = $1", id)
		if err != nil {
			return fmt.Errorf("delete subject: %w", err)
		}
		return expectAffected(res)
	})
}

// StreamRepository handles persistence for streams.
type StreamRepository struct {
	db *sqlx.DB
}

// NewStreamRepository creates a stream repository.
func NewStreamRepository(db *sqlx.DB) *StreamRepository {
	return &StreamRepository{db: db}
}

// List returns streams, optionally restricted to one form.
func (r *StreamRepository) List(ctx context.Context, formID string) ([]models.Stream, error) {
	query := "SELECT id, name, form_id FROM streams"
	var args []interface{}
	if formID != "" {
		query += " WHERE form_id = $1"
		args = append(args, formID)
	}
	query += " ORDER BY form_id ASC, name ASC"
	var streams []models.Stream
	if err := r.db.SelectContext(ctx, &streams, query, args...); err != nil {
		return nil, fmt.Errorf("list streams: %w", err)
	}
	return streams, nil
}

// FindByID returns a stream by ID.
func (r *StreamRepository) FindByID(ctx context.Context, id string) (*models.Stream, error) {
	var stream models.Stream
	if err := r.db.GetContext(ctx, &stream, "SELECT id, name, form_id FROM streams WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &stream, nil
}

// Create inserts a stream.
func (r *StreamRepository) Create(ctx context.Context, stream *models.Stream) error {
	if stream.ID == "" {
		stream.ID = uuid.NewString()
	}
	if _, err := r.db.NamedExecContext(ctx, `INSERT INTO streams (id, name, form_id) VALUES (:id, :name, :form_id)`, stream); err != nil {
		return fmt.Errorf("create stream: %w", err)
	}
	return nil
}

// ExamTypeRepository handles persistence for exam types.
type ExamTypeRepository struct {
	db *sqlx.DB
}

// NewExamTypeRepository creates an exam type repository.
func NewExamTypeRepository(db *sqlx.DB) *ExamTypeRepository {
	return &ExamTypeRepository{db: db}
}

// List returns every exam type ordered by name.
func (r *ExamTypeRepository) List(ctx context.Context) ([]models.ExamType, error) {
	var types []models.ExamType
	if err := r.db.SelectContext(ctx, &types, "SELECT id, name FROM exam_types ORDER BY name ASC"); err != nil {
		return nil, fmt.Errorf("list exam types: %w", err)
	}
	return types, nil
}

// FindByID returns an exam type by ID.
func (r *ExamTypeRepository) FindByID(ctx context.Context, id string) (*models.ExamType, error) {
	var examType models.ExamType
	if err := r.db.GetContext(ctx, &examType, "SELECT id, name FROM exam_types WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &examType, nil
}

// Create inserts an exam type.
func (r *ExamTypeRepository) Create(ctx context.Context, examType *models.ExamType) error {
	if examType.ID == "" {
		examType.ID = uuid.NewString()
	}
	if _, err := r.db.NamedExecContext(ctx, `INSERT INTO exam_types (id, name) VALUES (:id, :name)`, examType); err != nil {
		return fmt.Errorf("create exam type: %w", err)
	}
	return nil
}
