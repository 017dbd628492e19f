package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/teacherportfolio/internal/app/models"
	"github.com/yigit/teacherportfolio/internal/pkg/apperrors"
	"github.com/yigit/teacherportfolio/internal/pkg/dberrors"
	"github.com/yigit/teacherportfolio/internal/pkg/logger"
)

// IGoalRepository covers yearly goals and the per-teacher goal records
type IGoalRepository interface {
	Create(ctx context.Context, goal *models.YearlyGoal) error
	Update(ctx context.Context, goal *models.YearlyGoal) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.YearlyGoal, error)
	List(ctx context.Context, activeOnly bool) ([]models.YearlyGoal, error)

	AddToTeacher(ctx context.Context, tg *models.TeacherGoal) error
	GetTeacherGoal(ctx context.Context, id uuid.UUID) (*models.TeacherGoal, error)
	ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]models.TeacherGoal, error)
	ListByStatus(ctx context.Context, status models.GoalStatus) ([]TeacherGoalWithOwner, error)
	UpdateTeacherGoal(ctx context.Context, tg *models.TeacherGoal, from models.GoalStatus) error
	CountByStatus(ctx context.Context, status models.GoalStatus) (int64, error)
}

// TeacherGoalWithOwner is a teacher goal joined with its owner's name and IIN
type TeacherGoalWithOwner struct {
	models.TeacherGoal
	FirstName string
	LastName  string
	IIN       string
}

// GoalRepository handles goal database operations
type GoalRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewGoalRepository creates a new GoalRepository
func NewGoalRepository(db *pgxpool.Pool) *GoalRepository {
	return &GoalRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create adds a yearly goal
func (r *GoalRepository) Create(ctx context.Context, g *models.YearlyGoal) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	sql, args, err := r.sb.Insert("yearly_goals").
		Columns("id", "title", "description", "year", "is_active").
		Values(g.ID, g.Title, g.Description, g.Year, g.IsActive).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create goal query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&g.CreatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "yearly_goals_title_year_key") {
			return apperrors.NewConflictError("A goal with this title already exists for that year")
		}
		logger.Error().Err(err).Str("title", g.Title).Msg("Error executing create goal query")
		return fmt.Errorf("error creating goal: %w", err)
	}
	return nil
}

// Update rewrites a yearly goal
func (r *GoalRepository) Update(ctx context.Context, g *models.YearlyGoal) error {
	sql, args, err := r.sb.Update("yearly_goals").
		Set("title", g.Title).
		Set("description", g.Description).
		Set("year", g.Year).
		Set("is_active", g.IsActive).
		Where(squirrel.Eq{"id": g.ID}).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update goal query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&g.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrGoalNotFound
		}
		if dberrors.IsDuplicateConstraintError(err, "yearly_goals_title_year_key") {
			return apperrors.NewConflictError("A goal with this title already exists for that year")
		}
		return fmt.Errorf("error updating goal: %w", err)
	}
	return nil
}

// GetByID retrieves a yearly goal
func (r *GoalRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.YearlyGoal, error) {
	sql, args, err := r.sb.Select("id", "title", "description", "year", "is_active", "created_at").
		From("yearly_goals").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get goal query: %w", err)
	}

	g := &models.YearlyGoal{}
	err = r.db.QueryRow(ctx, sql, args...).Scan(&g.ID, &g.Title, &g.Description, &g.Year, &g.IsActive, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrGoalNotFound
		}
		return nil, fmt.Errorf("error retrieving goal: %w", err)
	}
	return g, nil
}

// List returns goals, newest year first
func (r *GoalRepository) List(ctx context.Context, activeOnly bool) ([]models.YearlyGoal, error) {
	q := r.sb.Select("id", "title", "description", "year", "is_active", "created_at").
		From("yearly_goals").
		OrderBy("year DESC", "title ASC")
	if activeOnly {
		q = q.Where(squirrel.Eq{"is_active": true})
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list goals query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing goals: %w", err)
	}
	defer rows.Close()

	goals := make([]models.YearlyGoal, 0)
	for rows.Next() {
		var g models.YearlyGoal
		if err := rows.Scan(&g.ID, &g.Title, &g.Description, &g.Year, &g.IsActive, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning goal: %w", err)
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

// AddToTeacher links a goal to a teacher
func (r *GoalRepository) AddToTeacher(ctx context.Context, tg *models.TeacherGoal) error {
	if tg.ID == uuid.Nil {
		tg.ID = uuid.New()
	}
	sql, args, err := r.sb.Insert("teacher_goals").
		Columns("id", "teacher_id", "goal_id", "status", "progress_notes", "target_date").
		Values(tg.ID, tg.TeacherID, tg.GoalID, tg.Status, tg.ProgressNotes, tg.TargetDate).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build add teacher goal query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&tg.CreatedAt, &tg.UpdatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "teacher_goals_teacher_goal_key") {
			return apperrors.NewConflictError("This goal is already in your portfolio")
		}
		logger.Error().Err(err).Str("teacherID", tg.TeacherID.String()).Msg("Error executing add teacher goal query")
		return fmt.Errorf("error adding teacher goal: %w", err)
	}
	return nil
}

func (r *GoalRepository) teacherGoalSelect(extra ...string) squirrel.SelectBuilder {
	columns := append([]string{
		"tg.id", "tg.teacher_id", "tg.goal_id", "tg.status", "tg.progress_notes", "tg.target_date",
		"tg.completed_at", "tg.approved_by", "tg.created_at", "tg.updated_at",
		"g.id", "g.title", "g.description", "g.year", "g.is_active", "g.created_at",
	}, extra...)
	return r.sb.Select(columns...).
		From("teacher_goals tg").
		Join("yearly_goals g ON g.id = tg.goal_id")
}

func scanTeacherGoal(row pgx.Row, extra ...interface{}) (models.TeacherGoal, error) {
	var tg models.TeacherGoal
	g := &models.YearlyGoal{}
	dest := append([]interface{}{
		&tg.ID, &tg.TeacherID, &tg.GoalID, &tg.Status, &tg.ProgressNotes, &tg.TargetDate,
		&tg.CompletedAt, &tg.ApprovedBy, &tg.CreatedAt, &tg.UpdatedAt,
		&g.ID, &g.Title, &g.Description, &g.Year, &g.IsActive, &g.CreatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return tg, err
	}
	tg.Goal = g
	return tg, nil
}

// GetTeacherGoal retrieves one teacher goal with its yearly goal
func (r *GoalRepository) GetTeacherGoal(ctx context.Context, id uuid.UUID) (*models.TeacherGoal, error) {
	sql, args, err := r.teacherGoalSelect().Where(squirrel.Eq{"tg.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get teacher goal query: %w", err)
	}

	tg, err := scanTeacherGoal(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrGoalNotFound
		}
		return nil, fmt.Errorf("error retrieving teacher goal: %w", err)
	}
	return &tg, nil
}

// ListByTeacher returns the goals of a teacher, newest first
func (r *GoalRepository) ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]models.TeacherGoal, error) {
	sql, args, err := r.teacherGoalSelect().
		Where(squirrel.Eq{"tg.teacher_id": teacherID}).
		OrderBy("tg.created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list teacher goals query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing teacher goals: %w", err)
	}
	defer rows.Close()

	goals := make([]models.TeacherGoal, 0)
	for rows.Next() {
		tg, err := scanTeacherGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning teacher goal: %w", err)
		}
		goals = append(goals, tg)
	}
	return goals, rows.Err()
}

// ListByStatus returns teacher goals in a status with their owners, oldest update first
func (r *GoalRepository) ListByStatus(ctx context.Context, status models.GoalStatus) ([]TeacherGoalWithOwner, error) {
	sql, args, err := r.teacherGoalSelect("t.first_name", "t.last_name", "t.iin").
		Join("teachers t ON t.id = tg.teacher_id").
		Where(squirrel.Eq{"tg.status": status}).
		OrderBy("tg.updated_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list goals by status query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing goals by status: %w", err)
	}
	defer rows.Close()

	out := make([]TeacherGoalWithOwner, 0)
	for rows.Next() {
		var owner TeacherGoalWithOwner
		tg, err := scanTeacherGoal(rows, &owner.FirstName, &owner.LastName, &owner.IIN)
		if err != nil {
			return nil, fmt.Errorf("error scanning teacher goal: %w", err)
		}
		owner.TeacherGoal = tg
		out = append(out, owner)
	}
	return out, rows.Err()
}

// UpdateTeacherGoal persists status, notes, completion and approval fields if
// the stored status is still from.
func (r *GoalRepository) UpdateTeacherGoal(ctx context.Context, tg *models.TeacherGoal, from models.GoalStatus) error {
	tg.UpdatedAt = time.Now()
	sql, args, err := r.sb.Update("teacher_goals").
		Set("status", tg.Status).
		Set("progress_notes", tg.ProgressNotes).
		Set("completed_at", tg.CompletedAt).
		Set("approved_by", tg.ApprovedBy).
		Set("updated_at", tg.UpdatedAt).
		Where(squirrel.Eq{"id": tg.ID, "status": from}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update teacher goal query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error updating teacher goal: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: status is no longer %s", apperrors.ErrInvalidStatusTransition, from)
	}
	return nil
}

// CountByStatus counts teacher goals in a status
func (r *GoalRepository) CountByStatus(ctx context.Context, status models.GoalStatus) (int64, error) {
	return count(ctx, r.db, r.sb.Select("COUNT(*)").From("teacher_goals").Where(squirrel.Eq{"status": status}))
}
