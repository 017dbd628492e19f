package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/teacherportfolio/internal/app/models"
	"github.com/yigit/teacherportfolio/internal/pkg/apperrors"
	"github.com/yigit/teacherportfolio/internal/pkg/dberrors"
	"github.com/yigit/teacherportfolio/internal/pkg/logger"
)

// ICertificationRepository defines certification persistence
type ICertificationRepository interface {
	Create(ctx context.Context, cert *models.Certification) error
	Upsert(ctx context.Context, cert *models.Certification) error
	GetByTeacherID(ctx context.Context, teacherID uuid.UUID) (*models.Certification, error)
}

var certificationColumns = []string{
	"id", "teacher_id", "tat_2026", "tat_2025", "tat_2024", "tor_score", "ielts_score", "toefl_score",
	"tesol", "celta", "ib_certificate", "ap_certificate", "created_at", "updated_at",
}

// CertificationRepository handles certification database operations
type CertificationRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewCertificationRepository creates a new CertificationRepository
func NewCertificationRepository(db *pgxpool.Pool) *CertificationRepository {
	return &CertificationRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *CertificationRepository) insert(c *models.Certification) squirrel.InsertBuilder {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return r.sb.Insert("certifications").
		Columns("id", "teacher_id", "tat_2026", "tat_2025", "tat_2024", "tor_score", "ielts_score", "toefl_score",
			"tesol", "celta", "ib_certificate", "ap_certificate").
		Values(c.ID, c.TeacherID, c.TAT2026, c.TAT2025, c.TAT2024, c.TORScore, c.IELTSScore, c.TOEFLScore,
			c.TESOL, c.CELTA, c.IBCertificate, c.APCertificate)
}

// Create inserts the certification record of a teacher
func (r *CertificationRepository) Create(ctx context.Context, c *models.Certification) error {
	sql, args, err := r.insert(c).Suffix("RETURNING created_at, updated_at").ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create certification query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&c.CreatedAt, &c.UpdatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "certifications_teacher_id_key") {
			return apperrors.NewConflictError("Certification record already exists")
		}
		logger.Error().Err(err).Str("teacherID", c.TeacherID.String()).Msg("Error executing create certification query")
		return fmt.Errorf("error creating certification: %w", err)
	}
	return nil
}

// Upsert replaces the certification record of a teacher, creating it when missing
func (r *CertificationRepository) Upsert(ctx context.Context, c *models.Certification) error {
	sql, args, err := r.insert(c).
		Suffix(`ON CONFLICT (teacher_id) DO UPDATE SET
			tat_2026 = EXCLUDED.tat_2026, tat_2025 = EXCLUDED.tat_2025, tat_2024 = EXCLUDED.tat_2024,
			tor_score = EXCLUDED.tor_score, ielts_score = EXCLUDED.ielts_score, toefl_score = EXCLUDED.toefl_score,
			tesol = EXCLUDED.tesol, celta = EXCLUDED.celta,
			ib_certificate = EXCLUDED.ib_certificate, ap_certificate = EXCLUDED.ap_certificate,
			updated_at = NOW()
			RETURNING id, created_at, updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build upsert certification query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		logger.Error().Err(err).Str("teacherID", c.TeacherID.String()).Msg("Error executing upsert certification query")
		return fmt.Errorf("error saving certification: %w", err)
	}
	return nil
}

// GetByTeacherID returns the certification of a teacher or ErrResourceNotFound
func (r *CertificationRepository) GetByTeacherID(ctx context.Context, teacherID uuid.UUID) (*models.Certification, error) {
	sql, args, err := r.sb.Select(certificationColumns...).
		From("certifications").
		Where(squirrel.Eq{"teacher_id": teacherID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get certification query: %w", err)
	}

	c := &models.Certification{}
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&c.ID, &c.TeacherID, &c.TAT2026, &c.TAT2025, &c.TAT2024, &c.TORScore, &c.IELTSScore, &c.TOEFLScore,
		&c.TESOL, &c.CELTA, &c.IBCertificate, &c.APCertificate, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrResourceNotFound
		}
		return nil, fmt.Errorf("error retrieving certification: %w", err)
	}
	return c, nil
}
