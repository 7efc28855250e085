package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-exams-api/internal/models"
)

const studentColumns = `s.id, s.admission_number, s.name, s.form_id, s.stream_id, s.gender,
        to_char(s.date_of_birth, 'YYYY-MM-DD') AS date_of_birth, s.parent_contact`

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.FormID != "" {
		args = append(args, filter.FormID)
		conditions = append(conditions, fmt.Sprintf("s.form_id = $%d", len(args)))
	}
	if filter.StreamID != "" {
		args = append(args, filter.StreamID)
		conditions = append(conditions, fmt.Sprintf("s.stream_id = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("(LOWER(s.name) LIKE $%d OR LOWER(s.admission_number) LIKE $%d)", len(args), len(args)))
	}

	base := fmt.Sprintf("FROM students s WHERE %s", strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"name":             "s.name",
		"admission_number": "s.admission_number",
		"form_id":          "s.form_id",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "s.admission_number"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", studentColumns, base, column, order, size, offset)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// ListByCohort returns the roster of a form, optionally narrowed to a stream,
// in admission number order.
func (r *StudentRepository) ListByCohort(ctx context.Context, formID, streamID string) ([]models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students s WHERE s.form_id = $1", studentColumns)
	args := []interface{}{formID}
	if streamID != "" {
		query += " AND s.stream_id = $2"
		args = append(args, streamID)
	}
	query += " ORDER BY s.admission_number ASC"

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list cohort students: %w", err)
	}
	return students, nil
}

// FindByID fetches a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students s WHERE s.id = $1", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// ExistsByAdmissionNumber checks whether an admission number is taken, optionally excluding an ID.
func (r *StudentRepository) ExistsByAdmissionNumber(ctx context.Context, admissionNumber, excludeID string) (bool, error) {
	query := "SELECT 1 FROM students WHERE admission_number = $1"
	args := []interface{}{admissionNumber}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check admission number: %w", err)
	}
	return true, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	const query = `INSERT INTO students (id, admission_number, name, form_id, stream_id, gender, date_of_birth, parent_contact)
        VALUES (:id, :admission_number, :name, :form_id, :stream_id, :gender, :date_of_birth, :parent_contact)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies an existing student.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	const query = `UPDATE students SET admission_number = :admission_number, name = :name, form_id = :form_id, stream_id = :stream_id,
        gender = :gender, date_of_birth = :date_of_birth, parent_contact = :parent_contact WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, student)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return expectAffected(res)
}

// Delete removes a student together with every exam result recorded for them.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM exam_results WHERE student_id = $1", id); err != nil {
			return fmt.Errorf("delete student results: %w", err)
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM students WHERE id = $1", id)
		if err != nil {
			return fmt.Errorf("delete student: %w", err)
		}
		return expectAffected(res)
	})
}
