package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/teacherportfolio/internal/app/models"
	"github.com/yigit/teacherportfolio/internal/app/repositories"
	"github.com/yigit/teacherportfolio/internal/pkg/apperrors"
	"github.com/yigit/teacherportfolio/internal/pkg/identity"
	"github.com/yigit/teacherportfolio/internal/pkg/metrics"
)

// Provisioning steps reported by ProvisionError
const (
	StepRecord   = "record"
	StepIdentity = "identity"
)

// Reconcile actions
const (
	ActionActivated = "activated"
	ActionDeleted   = "deleted"
	ActionSkipped   = "skipped"
)

// ProvisionError tells which half of the account pairing failed
type ProvisionError struct {
	Step string
	Err  error
}

func (e *ProvisionError) Error() string {
	return fmt.Sprintf("provisioning %s failed: %v", e.Step, e.Err)
}

func (e *ProvisionError) Unwrap() error {
	return e.Err
}

// ProvisionerConfig holds the pairing timings
type ProvisionerConfig struct {
	PendingGrace         time.Duration
	CompensationAttempts int
	CompensationInterval time.Duration
	CompensationTimeout  time.Duration
}

// Provisioner creates a teacher row and its identity as one operation.
//
// The row is written as pending, the identity is created, then the row is marked
// active. A failed identity step deletes the row again with retries. Rows that stay
// pending are resolved by ResolvePending.
type Provisioner struct {
	teachers   repositories.ITeacherRepository
	identities identity.Provider
	metrics    *metrics.Metrics
	cfg        ProvisionerConfig
	logger     zerolog.Logger
	now        func() time.Time
}

// NewProvisioner creates a new Provisioner
func NewProvisioner(
	teachers repositories.ITeacherRepository,
	identities identity.Provider,
	m *metrics.Metrics,
	cfg ProvisionerConfig,
	logger zerolog.Logger,
) *Provisioner {
	if cfg.CompensationAttempts < 1 {
		cfg.CompensationAttempts = 1
	}
	if cfg.CompensationTimeout <= 0 {
		cfg.CompensationTimeout = 15 * time.Second
	}
	return &Provisioner{
		teachers:   teachers,
		identities: identities,
		metrics:    m,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// EnsureAvailable rejects an IIN that already belongs to an account.
//
// A pending row inside the grace period is a registration in flight. An older
// pending row is a crash remnant and gets resolved before the caller continues.
func (p *Provisioner) EnsureAvailable(ctx context.Context, iin string) error {
	existing, err := p.teachers.GetByIIN(ctx, iin)
	if errors.Is(err, apperrors.ErrTeacherNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("error checking existing teacher: %w", err)
	}

	if existing.IsActive() {
		return apperrors.ErrIINAlreadyExists
	}
	if p.now().Sub(existing.CreatedAt) < p.cfg.PendingGrace {
		return apperrors.ErrRegistrationInProgress
	}

	action, err := p.ResolvePending(ctx, existing)
	if err != nil {
		return fmt.Errorf("error resolving pending teacher: %w", err)
	}
	if action == ActionActivated {
		return apperrors.ErrIINAlreadyExists
	}
	return nil
}

// Provision writes the teacher row, creates the identity and pairs them.
// teacher.ID, ProvisioningStatus and IdentityID are filled in on success.
func (p *Provisioner) Provision(ctx context.Context, teacher *models.Teacher, password string) (*identity.Identity, error) {
	teacher.ProvisioningStatus = models.ProvisioningPending
	teacher.IdentityID = nil
	if teacher.Role == "" {
		teacher.Role = models.RoleTeacher
	}

	if err := p.teachers.Create(ctx, teacher); err != nil {
		if errors.Is(err, apperrors.ErrIINAlreadyExists) {
			return nil, err
		}
		return nil, &ProvisionError{Step: StepRecord, Err: err}
	}

	ident, err := p.identities.CreateIdentity(ctx, identity.CreateParams{
		Email:          teacher.Email,
		Password:       password,
		EmailConfirmed: true,
		Metadata: identity.Metadata{
			IIN:       teacher.IIN,
			Role:      string(teacher.Role),
			FirstName: teacher.FirstName,
			LastName:  teacher.LastName,
		},
	})
	if err != nil {
		p.logger.Error().Err(err).
			Str("teacherID", teacher.ID.String()).
			Msg("Identity creation failed, removing teacher record")
		p.compensate(ctx, teacher.ID)
		return nil, &ProvisionError{Step: StepIdentity, Err: err}
	}

	if err := p.teachers.MarkActive(ctx, teacher.ID, ident.ID); err != nil {
		// The identity exists, so the reconciler will activate the row later.
		p.logger.Error().Err(err).
			Str("teacherID", teacher.ID.String()).
			Str("identityID", ident.ID).
			Msg("Failed to mark teacher active")
	} else {
		teacher.ProvisioningStatus = models.ProvisioningActive
		teacher.IdentityID = &ident.ID
	}

	return ident, nil
}

// compensate deletes the teacher row on a context detached from the request,
// retrying with exponential backoff. The outcome is only logged and metered.
func (p *Provisioner) compensate(ctx context.Context, teacherID uuid.UUID) bool {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.cfg.CompensationTimeout)
	defer cancel()

	b := backoff.NewExponentialBackOff()
	if p.cfg.CompensationInterval > 0 {
		b.InitialInterval = p.cfg.CompensationInterval
	}

	attempts := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempts++
		err := p.teachers.Delete(ctx, teacherID)
		if err == nil || errors.Is(err, apperrors.ErrTeacherNotFound) {
			return struct{}{}, nil
		}
		return struct{}{}, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(p.cfg.CompensationAttempts)))

	if err != nil {
		p.metrics.Compensations.WithLabelValues("failed").Inc()
		p.logger.Error().Err(err).
			Str("teacherID", teacherID.String()).
			Int("attempts", attempts).
			Msg("Compensating delete failed, pending row left for the reconciler")
		return false
	}

	p.metrics.Compensations.WithLabelValues("deleted").Inc()
	p.logger.Info().
		Str("teacherID", teacherID.String()).
		Int("attempts", attempts).
		Msg("Teacher record removed after identity failure")
	return true
}

// Deprovision removes both halves of an account: the identity first, then the row
// with everything cascading from it. Missing halves are not an error.
func (p *Provisioner) Deprovision(ctx context.Context, teacher *models.Teacher) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.cfg.CompensationTimeout)
	defer cancel()

	var errs []error

	identityID := ""
	if teacher.IdentityID != nil {
		identityID = *teacher.IdentityID
	} else if ident, err := p.identities.FindByEmail(ctx, teacher.Email); err == nil {
		identityID = ident.ID
	} else if !errors.Is(err, apperrors.ErrIdentityNotFound) {
		errs = append(errs, fmt.Errorf("error looking up identity: %w", err))
	}

	if identityID != "" {
		if err := p.identities.DeleteIdentity(ctx, identityID); err != nil && !errors.Is(err, apperrors.ErrIdentityNotFound) {
			errs = append(errs, fmt.Errorf("error deleting identity: %w", err))
		}
	}

	if err := p.teachers.Delete(ctx, teacher.ID); err != nil && !errors.Is(err, apperrors.ErrTeacherNotFound) {
		errs = append(errs, fmt.Errorf("error deleting teacher: %w", err))
	}

	if err := errors.Join(errs...); err != nil {
		p.logger.Error().Err(err).Str("teacherID", teacher.ID.String()).Msg("Deprovisioning incomplete")
		return err
	}
	p.logger.Info().Str("teacherID", teacher.ID.String()).Msg("Account deprovisioned")
	return nil
}

// ResolvePending settles a pending row: it is activated when an identity with the
// same email and IIN exists, otherwise it is deleted.
func (p *Provisioner) ResolvePending(ctx context.Context, teacher *models.Teacher) (string, error) {
	if teacher.IsActive() {
		return ActionSkipped, nil
	}

	ident, err := p.identities.FindByEmail(ctx, teacher.Email)
	switch {
	case err == nil && (ident.Metadata.IIN == "" || ident.Metadata.IIN == teacher.IIN):
		if err := p.teachers.MarkActive(ctx, teacher.ID, ident.ID); err != nil {
			return "", fmt.Errorf("error activating teacher: %w", err)
		}
		teacher.ProvisioningStatus = models.ProvisioningActive
		teacher.IdentityID = &ident.ID
		p.metrics.Reconciled.WithLabelValues(ActionActivated).Inc()
		return ActionActivated, nil

	case err == nil, errors.Is(err, apperrors.ErrIdentityNotFound):
		deleted, err := p.teachers.DeletePending(ctx, teacher.ID)
		if err != nil {
			return "", fmt.Errorf("error deleting pending teacher: %w", err)
		}
		if !deleted {
			return ActionSkipped, nil
		}
		p.metrics.Reconciled.WithLabelValues(ActionDeleted).Inc()
		return ActionDeleted, nil

	default:
		return "", fmt.Errorf("error looking up identity: %w", err)
	}
}
