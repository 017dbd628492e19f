package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/teacherportfolio/internal/app/models"
	"github.com/yigit/teacherportfolio/internal/pkg/apperrors"
	"github.com/yigit/teacherportfolio/internal/pkg/logger"
)

// IStudentResultRepository defines student result persistence
type IStudentResultRepository interface {
	Create(ctx context.Context, result *models.StudentResult) error
	ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]models.StudentResult, error)
	DeleteForTeacher(ctx context.Context, id, teacherID uuid.UUID) error
}

// StudentResultRepository handles student result database operations
type StudentResultRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewStudentResultRepository creates a new StudentResultRepository
func NewStudentResultRepository(db *pgxpool.Pool) *StudentResultRepository {
	return &StudentResultRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts one result row
func (r *StudentResultRepository) Create(ctx context.Context, res *models.StudentResult) error {
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	data := []byte(res.Data)
	if len(data) == 0 {
		data = []byte("{}")
	}

	sql, args, err := r.sb.Insert("student_results").
		Columns("id", "teacher_id", "result_type", "year", "data").
		Values(res.ID, res.TeacherID, string(res.ResultType), res.Year, string(data)).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create student result query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&res.CreatedAt); err != nil {
		logger.Error().Err(err).Str("teacherID", res.TeacherID.String()).Str("type", string(res.ResultType)).Msg("Error executing create student result query")
		return fmt.Errorf("error creating student result: %w", err)
	}
	return nil
}

// ListByTeacher returns all results of a teacher, newest year first
func (r *StudentResultRepository) ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]models.StudentResult, error) {
	sql, args, err := r.sb.Select("id", "teacher_id", "result_type", "year", "data", "created_at").
		From("student_results").
		Where(squirrel.Eq{"teacher_id": teacherID}).
		OrderBy("year DESC", "created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list student results query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing student results: %w", err)
	}
	defer rows.Close()

	results := make([]models.StudentResult, 0)
	for rows.Next() {
		var res models.StudentResult
		var data []byte
		if err := rows.Scan(&res.ID, &res.TeacherID, &res.ResultType, &res.Year, &data, &res.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning student result: %w", err)
		}
		res.Data = data
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating student results: %w", err)
	}
	return results, nil
}

// DeleteForTeacher deletes a result only if it belongs to teacherID
func (r *StudentResultRepository) DeleteForTeacher(ctx context.Context, id, teacherID uuid.UUID) error {
	sql, args, err := r.sb.Delete("student_results").
		Where(squirrel.Eq{"id": id, "teacher_id": teacherID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete student result query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error deleting student result: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrStudentResultNotFound
	}
	return nil
}
