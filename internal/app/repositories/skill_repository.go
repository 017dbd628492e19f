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

// ISkillRepository covers the skill catalogue and the per-teacher skill records
type ISkillRepository interface {
	Create(ctx context.Context, skill *models.Skill) error
	Update(ctx context.Context, skill *models.Skill) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Skill, error)
	List(ctx context.Context, activeOnly bool) ([]models.Skill, error)
	CountActive(ctx context.Context) (int64, error)

	AddToTeacher(ctx context.Context, ts *models.TeacherSkill) error
	GetTeacherSkill(ctx context.Context, id uuid.UUID) (*models.TeacherSkill, error)
	ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]models.TeacherSkill, error)
	ListByStatus(ctx context.Context, status models.SkillStatus) ([]TeacherSkillWithOwner, error)
	UpdateTeacherSkillStatus(ctx context.Context, ts *models.TeacherSkill, from models.SkillStatus) error
	CountByStatus(ctx context.Context, status models.SkillStatus) (int64, error)
}

// TeacherSkillWithOwner is a teacher skill joined with its owner's name and IIN
type TeacherSkillWithOwner struct {
	models.TeacherSkill
	FirstName string
	LastName  string
	IIN       string
}

// SkillRepository handles skill database operations
type SkillRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewSkillRepository creates a new SkillRepository
func NewSkillRepository(db *pgxpool.Pool) *SkillRepository {
	return &SkillRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create adds a catalogue skill
func (r *SkillRepository) Create(ctx context.Context, s *models.Skill) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	sql, args, err := r.sb.Insert("skills").
		Columns("id", "name", "description", "category", "is_active").
		Values(s.ID, s.Name, s.Description, s.Category, s.IsActive).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create skill query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&s.CreatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "skills_name_key") {
			return apperrors.NewConflictError("A skill with this name already exists")
		}
		logger.Error().Err(err).Str("name", s.Name).Msg("Error executing create skill query")
		return fmt.Errorf("error creating skill: %w", err)
	}
	return nil
}

// Update rewrites a catalogue skill
func (r *SkillRepository) Update(ctx context.Context, s *models.Skill) error {
	sql, args, err := r.sb.Update("skills").
		Set("name", s.Name).
		Set("description", s.Description).
		Set("category", s.Category).
		Set("is_active", s.IsActive).
		Where(squirrel.Eq{"id": s.ID}).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update skill query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&s.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrSkillNotFound
		}
		if dberrors.IsDuplicateConstraintError(err, "skills_name_key") {
			return apperrors.NewConflictError("A skill with this name already exists")
		}
		return fmt.Errorf("error updating skill: %w", err)
	}
	return nil
}

// GetByID retrieves a catalogue skill
func (r *SkillRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Skill, error) {
	sql, args, err := r.sb.Select("id", "name", "description", "category", "is_active", "created_at").
		From("skills").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get skill query: %w", err)
	}

	s := &models.Skill{}
	err = r.db.QueryRow(ctx, sql, args...).Scan(&s.ID, &s.Name, &s.Description, &s.Category, &s.IsActive, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrSkillNotFound
		}
		return nil, fmt.Errorf("error retrieving skill: %w", err)
	}
	return s, nil
}

// List returns the catalogue ordered by category and name
func (r *SkillRepository) List(ctx context.Context, activeOnly bool) ([]models.Skill, error) {
	q := r.sb.Select("id", "name", "description", "category", "is_active", "created_at").
		From("skills").
		OrderBy("category ASC NULLS LAST", "name ASC")
	if activeOnly {
		q = q.Where(squirrel.Eq{"is_active": true})
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list skills query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing skills: %w", err)
	}
	defer rows.Close()

	skills := make([]models.Skill, 0)
	for rows.Next() {
		var s models.Skill
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.Category, &s.IsActive, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning skill: %w", err)
		}
		skills = append(skills, s)
	}
	return skills, rows.Err()
}

// CountActive counts catalogue skills open to teachers
func (r *SkillRepository) CountActive(ctx context.Context) (int64, error) {
	return count(ctx, r.db, r.sb.Select("COUNT(*)").From("skills").Where(squirrel.Eq{"is_active": true}))
}

// AddToTeacher links a skill to a teacher
func (r *SkillRepository) AddToTeacher(ctx context.Context, ts *models.TeacherSkill) error {
	if ts.ID == uuid.Nil {
		ts.ID = uuid.New()
	}
	sql, args, err := r.sb.Insert("teacher_skills").
		Columns("id", "teacher_id", "skill_id", "status", "started_at").
		Values(ts.ID, ts.TeacherID, ts.SkillID, ts.Status, ts.StartedAt).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build add teacher skill query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&ts.CreatedAt, &ts.UpdatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "teacher_skills_teacher_skill_key") {
			return apperrors.NewConflictError("This skill is already in your portfolio")
		}
		logger.Error().Err(err).Str("teacherID", ts.TeacherID.String()).Msg("Error executing add teacher skill query")
		return fmt.Errorf("error adding teacher skill: %w", err)
	}
	return nil
}

func (r *SkillRepository) teacherSkillSelect(extra ...string) squirrel.SelectBuilder {
	columns := append([]string{
		"ts.id", "ts.teacher_id", "ts.skill_id", "ts.status", "ts.started_at", "ts.completed_at",
		"ts.approved_by", "ts.created_at", "ts.updated_at",
		"s.id", "s.name", "s.description", "s.category", "s.is_active", "s.created_at",
	}, extra...)
	return r.sb.Select(columns...).
		From("teacher_skills ts").
		Join("skills s ON s.id = ts.skill_id")
}

func scanTeacherSkill(row pgx.Row, extra ...interface{}) (models.TeacherSkill, error) {
	var ts models.TeacherSkill
	s := &models.Skill{}
	dest := append([]interface{}{
		&ts.ID, &ts.TeacherID, &ts.SkillID, &ts.Status, &ts.StartedAt, &ts.CompletedAt,
		&ts.ApprovedBy, &ts.CreatedAt, &ts.UpdatedAt,
		&s.ID, &s.Name, &s.Description, &s.Category, &s.IsActive, &s.CreatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return ts, err
	}
	ts.Skill = s
	return ts, nil
}

// GetTeacherSkill retrieves one teacher skill with its catalogue entry
func (r *SkillRepository) GetTeacherSkill(ctx context.Context, id uuid.UUID) (*models.TeacherSkill, error) {
	sql, args, err := r.teacherSkillSelect().Where(squirrel.Eq{"ts.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get teacher skill query: %w", err)
	}

	ts, err := scanTeacherSkill(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrSkillNotFound
		}
		return nil, fmt.Errorf("error retrieving teacher skill: %w", err)
	}
	return &ts, nil
}

// ListByTeacher returns the skills of a teacher, newest first
func (r *SkillRepository) ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]models.TeacherSkill, error) {
	sql, args, err := r.teacherSkillSelect().
		Where(squirrel.Eq{"ts.teacher_id": teacherID}).
		OrderBy("ts.created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list teacher skills query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing teacher skills: %w", err)
	}
	defer rows.Close()

	skills := make([]models.TeacherSkill, 0)
	for rows.Next() {
		ts, err := scanTeacherSkill(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning teacher skill: %w", err)
		}
		skills = append(skills, ts)
	}
	return skills, rows.Err()
}

// ListByStatus returns teacher skills in a status with their owners, oldest update first
func (r *SkillRepository) ListByStatus(ctx context.Context, status models.SkillStatus) ([]TeacherSkillWithOwner, error) {
	sql, args, err := r.teacherSkillSelect("t.first_name", "t.last_name", "t.iin").
		Join("teachers t ON t.id = ts.teacher_id").
		Where(squirrel.Eq{"ts.status": status}).
		OrderBy("ts.updated_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list skills by status query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing skills by status: %w", err)
	}
	defer rows.Close()

	out := make([]TeacherSkillWithOwner, 0)
	for rows.Next() {
		var owner TeacherSkillWithOwner
		ts, err := scanTeacherSkill(rows, &owner.FirstName, &owner.LastName, &owner.IIN)
		if err != nil {
			return nil, fmt.Errorf("error scanning teacher skill: %w", err)
		}
		owner.TeacherSkill = ts
		out = append(out, owner)
	}
	return out, rows.Err()
}

// UpdateTeacherSkillStatus persists status, completion and approval fields if
// the stored status is still from.
func (r *SkillRepository) UpdateTeacherSkillStatus(ctx context.Context, ts *models.TeacherSkill, from models.SkillStatus) error {
	ts.UpdatedAt = time.Now()
	sql, args, err := r.sb.Update("teacher_skills").
		Set("status", ts.Status).
		Set("started_at", ts.StartedAt).
		Set("completed_at", ts.CompletedAt).
		Set("approved_by", ts.ApprovedBy).
		Set("updated_at", ts.UpdatedAt).
		Where(squirrel.Eq{"id": ts.ID, "status": from}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update teacher skill query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error updating teacher skill: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: status is no longer %s", apperrors.ErrInvalidStatusTransition, from)
	}
	return nil
}

// CountByStatus counts teacher skills in a status
func (r *SkillRepository) CountByStatus(ctx context.Context, status models.SkillStatus) (int64, error) {
	return count(ctx, r.db, r.sb.Select("COUNT(*)").From("teacher_skills").Where(squirrel.Eq{"status": status}))
}

func count(ctx context.Context, db *pgxpool.Pool, q squirrel.SelectBuilder) (int64, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}
	var n int64
	if err := db.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting rows: %w", err)
	}
	return n, nil
}
