package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-exams-api/internal/models"
)

const examColumns = `id, name, exam_type_id, term_id, year,
        to_char(start_date, 'YYYY-MM-DD') AS start_date, to_char(end_date, 'YYYY-MM-DD') AS end_date, grading_system`

type examSubjectRow struct {
	ExamID string `db:"exam_id"`
	models.ExamSubject
}

// ExamRepository persists exams together with their ordered subject declarations.
type ExamRepository struct {
	db *sqlx.DB
}

// NewExamRepository constructs an ExamRepository.
func NewExamRepository(db *sqlx.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

// List returns exams matching the filter, newest first.
func (r *ExamRepository) List(ctx context.Context, filter models.ExamFilter) ([]models.Exam, int, error) {
	conditions := []string{"1=1"}
	var args []interface{}
	if filter.Year > 0 {
		args = append(args, filter.Year)
		conditions = append(conditions, fmt.Sprintf("year = $%d", len(args)))
	}
	if filter.TermID != "" {
		args = append(args, filter.TermID)
		conditions = append(conditions, fmt.Sprintf("term_id = $%d", len(args)))
	}
	if filter.ExamTypeID != "" {
		args = append(args, filter.ExamTypeID)
		conditions = append(conditions, fmt.Sprintf("exam_type_id = $%d", len(args)))
	}
	base := "FROM exams WHERE " + strings.Join(conditions, " AND ")

	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	query := fmt.Sprintf("SELECT %s %s ORDER BY year DESC, start_date DESC LIMIT %d OFFSET %d", examColumns, base, size, (page-1)*size)

	var exams []models.Exam
	if err := r.db.SelectContext(ctx, &exams, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list exams: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count exams: %w", err)
	}
	if err := r.attachSubjects(ctx, exams); err != nil {
		return nil, 0, err
	}
	return exams, total, nil
}

// FindByID returns an exam with its subjects in declared order.
func (r *ExamRepository) FindByID(ctx context.Context, id string) (*models.Exam, error) {
	var exam models.Exam
	if err := r.db.GetContext(ctx, &exam, fmt.Sprintf("SELECT %s FROM exams WHERE id = $1", examColumns), id); err != nil {
		return nil, err
	}
	exams := []models.Exam{exam}
	if err := r.attachSubjects(ctx, exams); err != nil {
		return nil, err
	}
	return &exams[0], nil
}

func (r *ExamRepository) attachSubjects(ctx context.Context, exams []models.Exam) error {
	if len(exams) == 0 {
		return nil
	}
	args := make([]interface{}, len(exams))
	index := make(map[string]int, len(exams))
	for i := range exams {
		args[i] = exams[i].ID
		index[exams[i].ID] = i
		exams[i].Subjects = []models.ExamSubject{}
	}
	query := fmt.Sprintf(`SELECT exam_id, subject_id, max_marks FROM exam_subjects
        WHERE exam_id IN (%s) ORDER BY exam_id, position`, placeholders(1, len(args)))
	var rows []examSubjectRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return fmt.Errorf("list exam subjects: %w", err)
	}
	for _, row := range rows {
		if i, ok := index[row.ExamID]; ok {
			exams[i].Subjects = append(exams[i].Subjects, row.ExamSubject)
		}
	}
	return nil
}

// Create inserts an exam and its subject declarations atomically.
func (r *ExamRepository) Create(ctx context.Context, exam *models.Exam) error {
	if exam.ID == "" {
		exam.ID = uuid.NewString()
	}
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const query = `INSERT INTO exams (id, name, exam_type_id, term_id, year, start_date, end_date, grading_system)
        VALUES (:id, :name, :exam_type_id, :term_id, :year, :start_date, :end_date, :grading_system)`
		if _, err := tx.NamedExecContext(ctx, query, exam); err != nil {
			return fmt.Errorf("create exam: %w", err)
		}
		return insertExamSubjects(ctx, tx, exam)
	})
}

// Update rewrites an exam and its subject list. Results for subjects the exam
// no longer assesses are removed in the same transaction.
func (r *ExamRepository) Update(ctx context.Context, exam *models.Exam) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const query = `UPDATE exams SET name = :name, exam_type_id = :exam_type_id, term_id = :term_id, year = :year,
        start_date = :start_date, end_date = :end_date, grading_system = :grading_system WHERE id = :id`
		res, err := tx.NamedExecContext(ctx, query, exam)
		if err != nil {
			return fmt.Errorf("update exam: %w", err)
		}
		if err := expectAffected(res); err != nil {
			return err
		}

		args := []interface{}{exam.ID}
		for _, subject := range exam.Subjects {
			args = append(args, subject.SubjectID)
		}
		prune := "DELETE FROM exam_results WHERE exam_id = $1"
		if len(exam.Subjects) > 0 {
			prune += fmt.Sprintf(" AND subject_id NOT IN (%s)", placeholders(2, len(exam.Subjects)))
		}
		if _, err := tx.ExecContext(ctx, prune, args...); err != nil {
			return fmt.Errorf("prune exam results: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM exam_subjects WHERE exam_id = $1", exam.ID); err != nil {
			return fmt.Errorf("clear exam subjects: %w", err)
		}
		return insertExamSubjects(ctx, tx, exam)
	})
}

// Delete removes an exam, its subject declarations and its results.
func (r *ExamRepository) Delete(ctx context.Context, id string) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM exam_results WHERE exam_id = $1", id); err != nil {
			return fmt.Errorf("delete exam results: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM exam_subjects WHERE exam_id = $1", id); err != nil {
			return fmt.Errorf("delete exam subjects: %w", err)
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM exams WHERE id = $1", id)
		if err != nil {
			return fmt.Errorf("delete exam: %w", err)
		}
		return expectAffected(res)
	})
}

func insertExamSubjects(ctx context.Context, tx *sqlx.Tx, exam *models.Exam) error {
	const query = `INSERT INTO exam_subjects (exam_id, subject_id, max_marks, position) VALUES ($1, $2, $3, $4)`
	for position, subject := range exam.Subjects {
		if _, err := tx.ExecContext(ctx, query, exam.ID, subject.SubjectID, subject.MaxMarks, position); err != nil {
			return fmt.Errorf("insert exam subject %s: %w", subject.SubjectID, err)
		}
	}
	return nil
}
