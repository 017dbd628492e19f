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
	"github.com/yigit/teacherportfolio/internal/pkg/helpers"
	"github.com/yigit/teacherportfolio/internal/pkg/logger"
)

// ITeacherRepository defines the teacher account operations used by services
type ITeacherRepository interface {
	Create(ctx context.Context, teacher *models.Teacher) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Teacher, error)
	GetByIIN(ctx context.Context, iin string) (*models.Teacher, error)
	GetByEmail(ctx context.Context, email string) (*models.Teacher, error)
	MarkActive(ctx context.Context, id uuid.UUID, identityID string) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeletePending(ctx context.Context, id uuid.UUID) (bool, error)
	ListStalePending(ctx context.Context, createdBefore time.Time, limit uint64) ([]*models.Teacher, error)
	UpdateProfile(ctx context.Context, teacher *models.Teacher) error
	UpdatePhotoURL(ctx context.Context, id uuid.UUID, photoURL string) error
	List(ctx context.Context, search string, offset, limit uint64) ([]*models.Teacher, int64, error)
	CountActiveByRole(ctx context.Context, role models.Role) (int64, error)
}

var teacherColumns = []string{
	"id", "iin", "email", "first_name", "last_name", "phone", "date_of_birth",
	"graduated_school", "total_experience_years", "current_workplace", "current_school_experience",
	"subject", "category", "category_expiration", "is_homeroom_teacher", "advanced_degree",
	"photo_url", "role", "provisioning_status", "identity_id", "created_at", "updated_at",
}

// TeacherRepository handles teacher database operations
type TeacherRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewTeacherRepository creates a new TeacherRepository
func NewTeacherRepository(db *pgxpool.Pool) *TeacherRepository {
	return &TeacherRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanTeacher(row pgx.Row) (*models.Teacher, error) {
	t := &models.Teacher{}
	err := row.Scan(
		&t.ID, &t.IIN, &t.Email, &t.FirstName, &t.LastName, &t.Phone, &t.DateOfBirth,
		&t.GraduatedSchool, &t.TotalExperienceYears, &t.CurrentWorkplace, &t.CurrentSchoolExperience,
		&t.Subject, &t.Category, &t.CategoryExpiration, &t.IsHomeroomTeacher, &t.AdvancedDegree,
		&t.PhotoURL, &t.Role, &t.ProvisioningStatus, &t.IdentityID, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Create inserts a teacher row. A zero ID is replaced by a fresh UUID.
func (r *TeacherRepository) Create(ctx context.Context, t *models.Teacher) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Role == "" {
		t.Role = models.RoleTeacher
	}
	if t.ProvisioningStatus == "" {
		t.ProvisioningStatus = models.ProvisioningPending
	}

	sql, args, err := r.sb.Insert("teachers").
		Columns(
			"id", "iin", "email", "first_name", "last_name", "phone", "date_of_birth",
			"graduated_school", "total_experience_years", "current_workplace", "current_school_experience",
			"subject", "category", "category_expiration", "is_homeroom_teacher", "advanced_degree",
			"role", "provisioning_status",
		).
		Values(
			t.ID, t.IIN, t.Email, t.FirstName, t.LastName, t.Phone, t.DateOfBirth,
			t.GraduatedSchool, t.TotalExperienceYears, t.CurrentWorkplace, t.CurrentSchoolExperience,
			t.Subject, t.Category, t.CategoryExpiration, t.IsHomeroomTeacher, t.AdvancedDegree,
			t.Role, t.ProvisioningStatus,
		).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create teacher SQL")
		return fmt.Errorf("failed to build create teacher query: %w", err)
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "teachers_iin_key") {
			return apperrors.ErrIINAlreadyExists
		}
		if dberrors.IsDuplicateConstraintError(err, "teachers_email_key") {
			return apperrors.ErrEmailAlreadyExists
		}
		logger.Error().Err(err).Str("iin", t.IIN).Msg("Error executing create teacher query")
		return fmt.Errorf("error creating teacher: %w", err)
	}

	return nil
}

func (r *TeacherRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*models.Teacher, error) {
	sql, args, err := r.sb.Select(teacherColumns...).
		From("teachers").
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get teacher query: %w", err)
	}

	t, err := scanTeacher(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTeacherNotFound
		}
		logger.Error().Err(err).Msg("Error scanning teacher row")
		return nil, fmt.Errorf("error retrieving teacher: %w", err)
	}
	return t, nil
}

// GetByID retrieves a teacher by ID
func (r *TeacherRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Teacher, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByIIN retrieves a teacher by IIN
func (r *TeacherRepository) GetByIIN(ctx context.Context, iin string) (*models.Teacher, error) {
	return r.getOne(ctx, squirrel.Eq{"iin": iin})
}

// GetByEmail retrieves a teacher by email
func (r *TeacherRepository) GetByEmail(ctx context.Context, email string) (*models.Teacher, error) {
	return r.getOne(ctx, squirrel.Eq{"email": email})
}

// MarkActive finishes provisioning and records the identity paired with the row
func (r *TeacherRepository) MarkActive(ctx context.Context, id uuid.UUID, identityID string) error {
	sql, args, err := r.sb.Update("teachers").
		Set("provisioning_status", models.ProvisioningActive).
		Set("identity_id", identityID).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build mark active query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("teacherID", id.String()).Msg("Error executing mark active query")
		return fmt.Errorf("error activating teacher: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrTeacherNotFound
	}
	return nil
}

// Delete removes a teacher row; dependent rows go with it through ON DELETE CASCADE
func (r *TeacherRepository) Delete(ctx context.Context, id uuid.UUID) error {
	sql, args, err := r.sb.Delete("teachers").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete teacher query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("teacherID", id.String()).Msg("Error executing delete teacher query")
		return fmt.Errorf("error deleting teacher: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrTeacherNotFound
	}
	return nil
}

// DeletePending removes the row only while it is still pending.
// It reports whether a row was removed.
func (r *TeacherRepository) DeletePending(ctx context.Context, id uuid.UUID) (bool, error) {
	sql, args, err := r.sb.Delete("teachers").
		Where(squirrel.Eq{"id": id, "provisioning_status": models.ProvisioningPending}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build delete pending teacher query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("teacherID", id.String()).Msg("Error executing delete pending teacher query")
		return false, fmt.Errorf("error deleting pending teacher: %w", err)
	}
	return cmdTag.RowsAffected() > 0, nil
}

// ListStalePending returns pending rows created before the given instant, oldest first
func (r *TeacherRepository) ListStalePending(ctx context.Context, createdBefore time.Time, limit uint64) ([]*models.Teacher, error) {
	sql, args, err := r.sb.Select(teacherColumns...).
		From("teachers").
		Where(squirrel.Eq{"provisioning_status": models.ProvisioningPending}).
		Where(squirrel.Lt{"created_at": createdBefore}).
		OrderBy("created_at ASC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build stale pending query: %w", err)
	}

	return r.queryTeachers(ctx, sql, args)
}

func (r *TeacherRepository) queryTeachers(ctx context.Context, sql string, args []interface{}) ([]*models.Teacher, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing teacher list query")
		return nil, fmt.Errorf("error listing teachers: %w", err)
	}
	defer rows.Close()

	teachers := make([]*models.Teacher, 0)
	for rows.Next() {
		t, err := scanTeacher(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning teacher row: %w", err)
		}
		teachers = append(teachers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating teacher rows: %w", err)
	}
	return teachers, nil
}

// UpdateProfile writes the editable personal fields of a teacher
func (r *TeacherRepository) UpdateProfile(ctx context.Context, t *models.Teacher) error {
	sql, args, err := r.sb.Update("teachers").
		SetMap(map[string]interface{}{
			"first_name":                t.FirstName,
			"last_name":                 t.LastName,
			"phone":                     t.Phone,
			"date_of_birth":             t.DateOfBirth,
			"graduated_school":          t.GraduatedSchool,
			"total_experience_years":    t.TotalExperienceYears,
			"current_workplace":         t.CurrentWorkplace,
			"current_school_experience": t.CurrentSchoolExperience,
			"subject":                   t.Subject,
			"category":                  t.Category,
			"category_expiration":       t.CategoryExpiration,
			"is_homeroom_teacher":       t.IsHomeroomTeacher,
			"advanced_degree":           t.AdvancedDegree,
			"updated_at":                squirrel.Expr("NOW()"),
		}).
		Where(squirrel.Eq{"id": t.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update profile query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrTeacherNotFound
		}
		logger.Error().Err(err).Str("teacherID", t.ID.String()).Msg("Error executing update profile query")
		return fmt.Errorf("error updating teacher profile: %w", err)
	}
	return nil
}

// UpdatePhotoURL stores the public URL of the profile photo
func (r *TeacherRepository) UpdatePhotoURL(ctx context.Context, id uuid.UUID, photoURL string) error {
	sql, args, err := r.sb.Update("teachers").
		Set("photo_url", photoURL).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update photo query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error updating photo url: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrTeacherNotFound
	}
	return nil
}

// List returns one page of active teachers (role teacher) ordered by name,
// optionally filtered by a search term over name, email and IIN.
func (r *TeacherRepository) List(ctx context.Context, search string, offset, limit uint64) ([]*models.Teacher, int64, error) {
	where := squirrel.And{
		squirrel.Eq{"role": models.RoleTeacher, "provisioning_status": models.ProvisioningActive},
	}
	if search != "" {
		pattern := helpers.LikePattern(search)
		where = append(where, squirrel.Or{
			squirrel.ILike{"first_name": pattern},
			squirrel.ILike{"last_name": pattern},
			squirrel.ILike{"email": pattern},
			squirrel.Like{"iin": pattern},
		})
	}

	countSQL, countArgs, err := r.sb.Select("COUNT(*)").From("teachers").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count teachers query: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error counting teachers")
		return nil, 0, fmt.Errorf("error counting teachers: %w", err)
	}

	sql, args, err := r.sb.Select(teacherColumns...).
		From("teachers").
		Where(where).
		OrderBy("last_name ASC", "first_name ASC").
		Offset(offset).
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list teachers query: %w", err)
	}

	teachers, err := r.queryTeachers(ctx, sql, args)
	if err != nil {
		return nil, 0, err
	}
	return teachers, total, nil
}

// CountActiveByRole counts accounts of a role whose provisioning finished
func (r *TeacherRepository) CountActiveByRole(ctx context.Context, role models.Role) (int64, error) {
	sql, args, err := r.sb.Select("COUNT(*)").
		From("teachers").
		Where(squirrel.Eq{"role": role, "provisioning_status": models.ProvisioningActive}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var count int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting teachers: %w", err)
	}
	return count, nil
}
