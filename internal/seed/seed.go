package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/yigit/teacherportfolio/internal/app/models"
	"github.com/yigit/teacherportfolio/internal/app/services"
	"github.com/yigit/teacherportfolio/internal/db"
	"github.com/yigit/teacherportfolio/internal/pkg/apperrors"
	"github.com/yigit/teacherportfolio/internal/pkg/auth"
	"github.com/yigit/teacherportfolio/internal/pkg/validation"
)

type catalogueSkill struct {
	name, category, description string
}

var defaultSkills = []catalogueSkill{
	{"Project-based learning", "Pedagogy", "Designing and running multi-week student projects"},
	{"Formative assessment", "Pedagogy", "Checking understanding during a unit, not only at its end"},
	{"Differentiated instruction", "Pedagogy", "Adapting tasks to mixed-ability classes"},
	{"Digital classroom tools", "Technology", "Running lessons with an LMS and interactive boards"},
	{"Olympiad preparation", "Enrichment", "Coaching students for subject olympiads"},
	{"Research supervision", "Enrichment", "Supervising student research and lab work"},
	{"English medium instruction", "Language", "Teaching the subject in English"},
}

var defaultGoals = []string{
	"Prepare students for the regional olympiad",
	"Complete a professional development course",
	"Publish a methodological article",
	"Run an open lesson for colleagues",
}

// CreateDefaultData inserts the starter skill catalogue and the current year's
// goals. Existing rows are left untouched, so it is safe on every start.
func CreateDefaultData(ctx context.Context, database *db.PostgresDB, lgr zerolog.Logger) error {
	sb := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	year := time.Now().Year()

	lgr.Info().Msg("Checking/Creating default data (skills/goals)...")

	var inserted int64
	err := database.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		for _, s := range defaultSkills {
			query, args, err := sb.Insert("skills").
				Columns("id", "name", "description", "category", "is_active").
				Values(uuid.New(), s.name, s.description, s.category, true).
				Suffix("ON CONFLICT (name) DO NOTHING").
				ToSql()
			if err != nil {
				return fmt.Errorf("error building skill insert: %w", err)
			}
			tag, err := tx.Exec(ctx, query, args...)
			if err != nil {
				return fmt.Errorf("error inserting skill %q: %w", s.name, err)
			}
			inserted += tag.RowsAffected()
		}

		for _, title := range defaultGoals {
			query, args, err := sb.Insert("yearly_goals").
				Columns("id", "title", "year", "is_active").
				Values(uuid.New(), title, year, true).
				Suffix("ON CONFLICT (title, year) DO NOTHING").
				ToSql()
			if err != nil {
				return fmt.Errorf("error building goal insert: %w", err)
			}
			tag, err := tx.Exec(ctx, query, args...)
			if err != nil {
				return fmt.Errorf("error inserting goal %q: %w", title, err)
			}
			inserted += tag.RowsAffected()
		}
		return nil
	})
	if err != nil {
		return err
	}

	lgr.Info().Int64("inserted", inserted).Msg("Default data checked")
	return nil
}

// Admin describes an administrator account to provision
type Admin struct {
	IIN       string
	Email     string
	FirstName string
	LastName  string
	// Password is generated when empty
	Password string
}

func (a Admin) validate() error {
	if !validation.ValidateIIN(a.IIN) {
		return apperrors.NewValidationError("Admin IIN must be 12 digits")
	}
	if !validation.ValidateEmail(a.Email) {
		return apperrors.NewValidationError("Admin email is invalid")
	}
	if strings.TrimSpace(a.FirstName) == "" || strings.TrimSpace(a.LastName) == "" {
		return apperrors.NewValidationError("Admin first and last name are required")
	}
	if a.Password != "" && len(a.Password) < validation.PasswordMinLength {
		return apperrors.NewValidationError(fmt.Sprintf("Admin password must be at least %d characters long", validation.PasswordMinLength))
	}
	return nil
}

// CreateAdmin provisions an admin account through the same path as registrations.
// It returns the password in effect, or created=false when the IIN is already
// taken by an active account.
func CreateAdmin(ctx context.Context, provisioner *services.Provisioner, a Admin) (password string, created bool, err error) {
	a.IIN = strings.TrimSpace(a.IIN)
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	if err := a.validate(); err != nil {
		return "", false, err
	}

	if err := provisioner.EnsureAvailable(ctx, a.IIN); err != nil {
		if errors.Is(err, apperrors.ErrIINAlreadyExists) {
			return "", false, nil
		}
		return "", false, err
	}

	password = a.Password
	if password == "" {
		if password, err = auth.GeneratePassword(auth.TemporaryPasswordLength); err != nil {
			return "", false, fmt.Errorf("error generating password: %w", err)
		}
	}

	admin := &models.Teacher{
		IIN:       a.IIN,
		Email:     a.Email,
		FirstName: strings.TrimSpace(a.FirstName),
		LastName:  strings.TrimSpace(a.LastName),
		Role:      models.RoleAdmin,
	}
	if _, err := provisioner.Provision(ctx, admin, password); err != nil {
		return "", false, err
	}
	return password, true, nil
}
