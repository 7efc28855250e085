package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-exams-api/internal/models"
)

const examResultColumns = "id, exam_id, student_id, subject_id, marks, max_marks, percentage, grade, points, level, comment"

// ExamResultRepository persists raw marks. At most one row exists per
// (exam, student, subject); writes to an existing triple replace it.
type ExamResultRepository struct {
	db *sqlx.DB
}

// NewExamResultRepository constructs an ExamResultRepository.
func NewExamResultRepository(db *sqlx.DB) *ExamResultRepository {
	return &ExamResultRepository{db: db}
}

// ListByExam returns every raw result recorded for an exam.
func (r *ExamResultRepository) ListByExam(ctx context.Context, examID string) ([]models.ExamResult, error) {
	return r.List(ctx, models.ExamResultFilter{ExamID: examID})
}

// List returns raw results matching the filter.
func (r *ExamResultRepository) List(ctx context.Context, filter models.ExamResultFilter) ([]models.ExamResult, error) {
	query := "SELECT " + examResultColumns + " FROM exam_results WHERE 1=1"
	var args []interface{}
	if filter.ExamID != "" {
		args = append(args, filter.ExamID)
		query += fmt.Sprintf(" AND exam_id = $%d", len(args))
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		query += fmt.Sprintf(" AND student_id = $%d", len(args))
	}
	if filter.SubjectID != "" {
		args = append(args, filter.SubjectID)
		query += fmt.Sprintf(" AND subject_id = $%d", len(args))
	}
	query += " ORDER BY student_id, subject_id"

	var results []models.ExamResult
	if err := r.db.SelectContext(ctx, &results, query, args...); err != nil {
		return nil, fmt.Errorf("list exam results: %w", err)
	}
	return results, nil
}

// BulkUpsert writes results in one transaction, replacing existing rows for the same triple.
func (r *ExamResultRepository) BulkUpsert(ctx context.Context, results []models.ExamResult) error {
	if len(results) == 0 {
		return nil
	}
	const query = `INSERT INTO exam_results (id, exam_id, student_id, subject_id, marks, max_marks, percentage, grade, points, level, comment)
        VALUES (:id, :exam_id, :student_id, :subject_id, :marks, :max_marks, :percentage, :grade, :points, :level, :comment)
        ON CONFLICT (exam_id, student_id, subject_id)
        DO UPDATE SET marks = EXCLUDED.marks, max_marks = EXCLUDED.max_marks, percentage = EXCLUDED.percentage,
        grade = EXCLUDED.grade, points = EXCLUDED.points, level = EXCLUDED.level, comment = EXCLUDED.comment`
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for i := range results {
			if results[i].ID == "" {
				results[i].ID = uuid.NewString()
			}
			if _, err := tx.NamedExecContext(ctx, query, results[i]); err != nil {
				return fmt.Errorf("bulk upsert exam result: %w", err)
			}
		}
		return nil
	})
}

// Delete removes a single result.
func (r *ExamResultRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM exam_results WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete exam result: %w", err)
	}
	return expectAffected(res)
}

// HighestMarksBySubject returns the highest stored mark per subject of an exam.
func (r *ExamResultRepository) HighestMarksBySubject(ctx context.Context, examID string) (map[string]float64, error) {
	rows, err := r.db.QueryxContext(ctx, "SELECT subject_id, MAX(marks) AS highest FROM exam_results WHERE exam_id = $1 GROUP BY subject_id", examID)
	if err != nil {
		return nil, fmt.Errorf("highest marks: %w", err)
	}
	defer rows.Close()
	highest := make(map[string]float64)
	for rows.Next() {
		var subjectID string
		var value float64
		if err := rows.Scan(&subjectID, &value); err != nil {
			return nil, fmt.Errorf("scan highest marks: %w", err)
		}
		highest[subjectID] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate highest marks: %w", err)
	}
	return highest, nil
}
