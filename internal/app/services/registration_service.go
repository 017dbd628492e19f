package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/teacherportfolio/internal/app/models"
	"github.com/yigit/teacherportfolio/internal/app/models/dto"
	"github.com/yigit/teacherportfolio/internal/app/repositories"
	"github.com/yigit/teacherportfolio/internal/config"
	"github.com/yigit/teacherportfolio/internal/pkg/apperrors"
	"github.com/yigit/teacherportfolio/internal/pkg/auth"
	"github.com/yigit/teacherportfolio/internal/pkg/claims"
	"github.com/yigit/teacherportfolio/internal/pkg/helpers"
	"github.com/yigit/teacherportfolio/internal/pkg/identity"
	"github.com/yigit/teacherportfolio/internal/pkg/metrics"
	"github.com/yigit/teacherportfolio/internal/pkg/notify"
	"github.com/yigit/teacherportfolio/internal/pkg/tracing"
	"github.com/yigit/teacherportfolio/internal/pkg/validation"
	"go.opentelemetry.io/otel/attribute"
)

// Messages returned to the registration webhook
const (
	MsgMissingFields          = "Missing required fields: iin, email, firstName, lastName"
	MsgInvalidIIN             = "Invalid IIN format. Must be 12 digits."
	MsgInvalidEmail           = "Invalid email format"
	MsgInvalidDate            = "Invalid date format"
	MsgInvalidExperience      = "Experience must be a whole number of years"
	MsgInvalidBody            = "Invalid request body"
	MsgDuplicateIIN           = "Teacher with this IIN already exists"
	MsgRegistrationInProgress = "Registration for this IIN is already in progress"
	MsgRecordFailed           = "Failed to create teacher record"
	MsgIdentityFailed         = "Failed to create authentication account"
	MsgCertificationFailed    = "Failed to create certification record"
	MsgResultsFailed          = "Failed to create student result records"
	MsgNotificationFailed     = "Failed to send welcome notification"
	MsgInternal               = "Internal server error"
	MsgRegistrationCompleted  = "Teacher registration completed successfully"
)

// Registration steps that may be configured as required
const (
	StepCertification = "certification"
	StepResults       = "results"
	StepNotification  = "notification"
)

// RegistrationErrorKind classifies a failed registration
type RegistrationErrorKind string

const (
	RegistrationInvalid    RegistrationErrorKind = "validation"
	RegistrationConflict   RegistrationErrorKind = "conflict"
	RegistrationDownstream RegistrationErrorKind = "downstream"
)

// RegistrationError is what the webhook handler turns into a flat error body
type RegistrationError struct {
	Kind    RegistrationErrorKind
	Message string
	Details string
	Err     error
}

func (e *RegistrationError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

func (e *RegistrationError) Unwrap() error {
	return e.Err
}

func invalid(message string) *RegistrationError {
	return &RegistrationError{Kind: RegistrationInvalid, Message: message, Err: apperrors.ErrValidationFailed}
}

func downstream(message string, err error) *RegistrationError {
	return &RegistrationError{Kind: RegistrationDownstream, Message: message, Details: err.Error(), Err: err}
}

// RegistrationConfig selects how strictly the secondary steps are treated
type RegistrationConfig struct {
	CertificationStrictness string
	ResultsStrictness       string
	NotificationStrictness  string
	NotificationMode        string
	AppURL                  string
}

// RegistrationService runs the registration webhook workflow
type RegistrationService struct {
	provisioner    *Provisioner
	certifications repositories.ICertificationRepository
	results        repositories.IStudentResultRepository
	notifier       notify.Sender
	claims         claims.Store
	metrics        *metrics.Metrics
	cfg            RegistrationConfig
	logger         zerolog.Logger
	now            func() time.Time
}

// NewRegistrationService creates a new registration service. claimStore may be nil
// unless the notification mode is claim_link.
func NewRegistrationService(
	provisioner *Provisioner,
	certifications repositories.ICertificationRepository,
	results repositories.IStudentResultRepository,
	notifier notify.Sender,
	claimStore claims.Store,
	m *metrics.Metrics,
	cfg RegistrationConfig,
	logger zerolog.Logger,
) *RegistrationService {
	return &RegistrationService{
		provisioner:    provisioner,
		certifications: certifications,
		results:        results,
		notifier:       notifier,
		claims:         claimStore,
		metrics:        m,
		cfg:            cfg,
		logger:         logger,
		now:            time.Now,
	}
}

// Register validates the payload, provisions the account and runs the secondary writes.
// Every failure is a *RegistrationError.
func (s *RegistrationService) Register(ctx context.Context, req *dto.RegisterTeacherRequest) (*dto.RegisterTeacherResponse, error) {
	ctx, span := tracing.Tracer().Start(ctx, "registration.register")
	defer span.End()

	teacher, regErr := s.buildTeacher(req)
	if regErr != nil {
		s.metrics.Registrations.WithLabelValues("invalid").Inc()
		return nil, regErr
	}
	span.SetAttributes(attribute.String("teacher.iin", teacher.IIN))

	if err := s.provisioner.EnsureAvailable(ctx, teacher.IIN); err != nil {
		tracing.Fail(span, err)
		return nil, s.conflictOrFailure(err)
	}

	password, err := auth.GeneratePassword(auth.TemporaryPasswordLength)
	if err != nil {
		tracing.Fail(span, err)
		s.metrics.Registrations.WithLabelValues("failed").Inc()
		return nil, downstream(MsgInternal, err)
	}

	ident, err := s.provision(ctx, teacher, password)
	if err != nil {
		tracing.Fail(span, err)
		return nil, s.conflictOrFailure(err)
	}
	span.SetAttributes(attribute.String("teacher.id", teacher.ID.String()))

	if cert, present := certificationFromRequest(req); present {
		cert.TeacherID = teacher.ID
		err := s.step(ctx, StepCertification, func(ctx context.Context) error {
			return s.certifications.Create(ctx, cert)
		})
		if regErr := s.settle(ctx, teacher, StepCertification, s.cfg.CertificationStrictness, MsgCertificationFailed, err); regErr != nil {
			return nil, regErr
		}
	}

	if results := s.resultsFromRequest(req, teacher.ID); len(results) > 0 {
		err := s.step(ctx, StepResults, func(ctx context.Context) error {
			var errs []error
			for i := range results {
				if err := s.results.Create(ctx, &results[i]); err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", results[i].ResultType, err))
				}
			}
			return errors.Join(errs...)
		})
		if regErr := s.settle(ctx, teacher, StepResults, s.cfg.ResultsStrictness, MsgResultsFailed, err); regErr != nil {
			return nil, regErr
		}
	}

	err = s.step(ctx, StepNotification, func(ctx context.Context) error {
		return s.sendWelcome(ctx, teacher, ident, password)
	})
	if err != nil {
		s.metrics.Notifications.WithLabelValues("failed").Inc()
	} else {
		s.metrics.Notifications.WithLabelValues("sent").Inc()
	}
	if regErr := s.settle(ctx, teacher, StepNotification, s.cfg.NotificationStrictness, MsgNotificationFailed, err); regErr != nil {
		return nil, regErr
	}

	s.metrics.Registrations.WithLabelValues("success").Inc()
	s.logger.Info().
		Str("teacherID", teacher.ID.String()).
		Str("iin", teacher.IIN).
		Msg("Teacher registered")

	return &dto.RegisterTeacherResponse{
		Success:   true,
		TeacherID: teacher.ID,
		Message:   MsgRegistrationCompleted,
	}, nil
}

func (s *RegistrationService) provision(ctx context.Context, teacher *models.Teacher, password string) (*identity.Identity, error) {
	ctx, span := tracing.Tracer().Start(ctx, "registration.provision")
	defer span.End()

	ident, err := s.provisioner.Provision(ctx, teacher, password)
	tracing.Fail(span, err)
	return ident, err
}

// step runs fn inside its own span
func (s *RegistrationService) step(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	ctx, span := tracing.Tracer().Start(ctx, "registration."+name)
	defer span.End()

	err := fn(ctx)
	tracing.Fail(span, err)
	return err
}

// settle applies the strictness of a secondary step to its outcome. Under
// best_effort a failure is logged and metered; under required the account is
// deprovisioned and the failure is returned.
func (s *RegistrationService) settle(ctx context.Context, teacher *models.Teacher, step, strictness, message string, err error) *RegistrationError {
	if err == nil {
		return nil
	}
	if strictness == "" {
		strictness = config.StrictnessBestEffort
	}
	s.metrics.SecondaryWriteFailure.WithLabelValues(step, strictness).Inc()

	if strictness != config.StrictnessRequired {
		s.logger.Warn().Err(err).
			Str("teacherID", teacher.ID.String()).
			Str("step", step).
			Msg("Registration step failed, continuing")
		return nil
	}

	s.logger.Error().Err(err).
		Str("teacherID", teacher.ID.String()).
		Str("step", step).
		Msg("Required registration step failed, deprovisioning account")
	if derr := s.provisioner.Deprovision(ctx, teacher); derr != nil {
		err = errors.Join(err, derr)
	}
	s.metrics.Registrations.WithLabelValues("failed").Inc()
	return downstream(message, err)
}

func (s *RegistrationService) conflictOrFailure(err error) *RegistrationError {
	switch {
	case errors.Is(err, apperrors.ErrIINAlreadyExists):
		s.metrics.Registrations.WithLabelValues("conflict").Inc()
		return &RegistrationError{Kind: RegistrationConflict, Message: MsgDuplicateIIN, Err: err}
	case errors.Is(err, apperrors.ErrRegistrationInProgress):
		s.metrics.Registrations.WithLabelValues("conflict").Inc()
		return &RegistrationError{Kind: RegistrationConflict, Message: MsgRegistrationInProgress, Err: err}
	}

	s.metrics.Registrations.WithLabelValues("failed").Inc()
	var provErr *ProvisionError
	if errors.As(err, &provErr) {
		if provErr.Step == StepIdentity {
			return downstream(MsgIdentityFailed, provErr.Err)
		}
		return downstream(MsgRecordFailed, provErr.Err)
	}
	s.logger.Error().Err(err).Msg("Registration failed")
	return downstream(MsgInternal, err)
}

func (s *RegistrationService) sendWelcome(ctx context.Context, teacher *models.Teacher, ident *identity.Identity, password string) error {
	welcome := notify.Welcome{
		Email:     teacher.Email,
		FirstName: teacher.FirstName,
		LastName:  teacher.LastName,
		IIN:       teacher.IIN,
	}

	if s.cfg.NotificationMode == config.NotificationModeClaimLink {
		if s.claims == nil {
			return apperrors.ErrClaimUnavailable
		}
		token, err := s.claims.Issue(ctx, claims.Claim{
			TeacherID:  teacher.ID,
			IdentityID: ident.ID,
			IssuedAt:   s.now(),
		})
		if err != nil {
			return fmt.Errorf("error issuing claim token: %w", err)
		}
		welcome.ClaimURL = ClaimURL(s.cfg.AppURL, token)
	} else {
		welcome.TemporaryPassword = password
	}

	return s.notifier.SendWelcome(ctx, welcome)
}

// ClaimURL builds the link a new teacher follows to set a password
func ClaimURL(appURL, token string) string {
	return strings.TrimRight(appURL, "/") + "/claim?token=" + url.QueryEscape(token)
}

// buildTeacher validates the webhook payload and maps it onto a teacher row
func (s *RegistrationService) buildTeacher(req *dto.RegisterTeacherRequest) (*models.Teacher, *RegistrationError) {
	iin := strings.TrimSpace(req.IIN)
	email := strings.TrimSpace(req.Email)
	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)

	if iin == "" || email == "" || firstName == "" || lastName == "" {
		return nil, invalid(MsgMissingFields)
	}
	if !validation.ValidateIIN(iin) {
		return nil, invalid(MsgInvalidIIN)
	}
	if !validation.ValidateEmail(email) {
		return nil, invalid(MsgInvalidEmail)
	}

	dateOfBirth, err := helpers.ParseDate(req.DateOfBirth)
	if err != nil {
		regErr := invalid(MsgInvalidDate)
		regErr.Details = "dateOfBirth: " + err.Error()
		return nil, regErr
	}
	categoryExpiration, err := helpers.ParseDate(req.CategoryExpiration)
	if err != nil {
		regErr := invalid(MsgInvalidDate)
		regErr.Details = "categoryExpiration: " + err.Error()
		return nil, regErr
	}

	years := []struct {
		field string
		value dto.OptionalNumber
	}{
		{"totalExperience", req.TotalExperience},
		{"currentSchoolExperience", req.CurrentSchoolExperience},
	}
	for _, y := range years {
		if !wholeYears(y.value) {
			regErr := invalid(MsgInvalidExperience)
			regErr.Details = y.field
			return nil, regErr
		}
	}

	scores := []struct {
		r     scoreRange
		value dto.OptionalNumber
	}{
		{tatRange, req.TAT2026},
		{tatRange, req.TAT2025},
		{tatRange, req.TAT2024},
		{torRange, req.TORScore},
		{ieltsRange, req.IELTSScore},
		{toeflRange, req.TOEFLScore},
	}
	for _, sc := range scores {
		if sc.r.check(sc.value.Float()) != nil {
			return nil, invalid(sc.r.message())
		}
	}

	return &models.Teacher{
		IIN:                     iin,
		Email:                   email,
		FirstName:               firstName,
		LastName:                lastName,
		Phone:                   helpers.NullableString(req.Phone),
		DateOfBirth:             dateOfBirth,
		GraduatedSchool:         helpers.NullableString(req.GraduatedSchool),
		TotalExperienceYears:    req.TotalExperience.Int(),
		CurrentWorkplace:        helpers.NullableString(req.CurrentWorkplace),
		CurrentSchoolExperience: req.CurrentSchoolExperience.Int(),
		Subject:                 helpers.NullableString(req.Subject),
		Category:                helpers.NullableString(req.Category),
		CategoryExpiration:      categoryExpiration,
		IsHomeroomTeacher:       req.IsHomeroomTeacher.True(),
		AdvancedDegree:          helpers.NullableString(req.AdvancedDegree),
		Role:                    models.RoleTeacher,
	}, nil
}

// wholeYears accepts an absent value or a non-negative integer that fits an
// INTEGER column.
func wholeYears(n dto.OptionalNumber) bool {
	if !n.Set {
		return true
	}
	return n.Value >= 0 && n.Value <= math.MaxInt32 && n.Value == math.Trunc(n.Value)
}

// certificationFromRequest reports whether any certification field is present:
// a number was given or a flag is true.
func certificationFromRequest(req *dto.RegisterTeacherRequest) (*models.Certification, bool) {
	numbers := []dto.OptionalNumber{req.TAT2026, req.TAT2025, req.TAT2024, req.TORScore, req.IELTSScore, req.TOEFLScore}
	flags := []dto.OptionalFlag{req.TESOL, req.CELTA, req.IBCertificate, req.APCertificate}

	present := false
	for _, n := range numbers {
		present = present || n.Set
	}
	for _, f := range flags {
		present = present || f.True()
	}
	if !present {
		return nil, false
	}

	return &models.Certification{
		TAT2026:       req.TAT2026.Float(),
		TAT2025:       req.TAT2025.Float(),
		TAT2024:       req.TAT2024.Float(),
		TORScore:      req.TORScore.Float(),
		IELTSScore:    req.IELTSScore.Float(),
		TOEFLScore:    req.TOEFLScore.Float(),
		TESOL:         req.TESOL.True(),
		CELTA:         req.CELTA.True(),
		IBCertificate: req.IBCertificate.True(),
		APCertificate: req.APCertificate.True(),
	}, true
}

// resultsFromRequest builds one row per result tag carrying a non-empty value,
// stamped with the current year.
func (s *RegistrationService) resultsFromRequest(req *dto.RegisterTeacherRequest, teacherID uuid.UUID) []models.StudentResult {
	payloads := map[models.ResultType]json.RawMessage{
		models.ResultBTS:              req.BTS,
		models.ResultKBO:              req.KBO,
		models.ResultRegionalOlympiad: req.RegionalOlympiad,
		models.ResultNationalOlympiad: req.NationalOlympiad,
		models.ResultLabWork:          req.LabWork,
	}

	year := s.now().Year()
	var results []models.StudentResult
	for _, tag := range models.ResultTypes {
		raw := payloads[tag]
		if !HasResultValue(raw) {
			continue
		}
		results = append(results, models.StudentResult{
			TeacherID:  teacherID,
			ResultType: tag,
			Year:       year,
			Data:       json.RawMessage(bytes.TrimSpace(raw)),
		})
	}
	return results
}

// HasResultValue reports whether a result payload carries something: null,
// false, zero, blank strings, empty objects and empty arrays do not count.
func HasResultValue(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return false
	}

	var value interface{}
	if err := json.Unmarshal(trimmed, &value); err != nil {
		return false
	}

	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return strings.TrimSpace(v) != ""
	case map[string]interface{}:
		return len(v) > 0
	case []interface{}:
		return len(v) > 0
	default:
		return true
	}
}
