// Command createadmin provisions an administrator account. Admins cannot
// arrive through the registration webhook, which only creates teachers.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	appRepos "github.com/yigit/teacherportfolio/internal/app/repositories"
	"github.com/yigit/teacherportfolio/internal/bootstrap"
	"github.com/yigit/teacherportfolio/internal/db"
	"github.com/yigit/teacherportfolio/internal/pkg/logger"
	"github.com/yigit/teacherportfolio/internal/pkg/metrics"
	"github.com/yigit/teacherportfolio/internal/seed"
)

func main() {
	var admin seed.Admin
	flag.StringVar(&admin.IIN, "iin", "", "12-digit IIN of the admin (required)")
	flag.StringVar(&admin.Email, "email", "", "e-mail of the admin (required)")
	flag.StringVar(&admin.FirstName, "first", "", "first name (required)")
	flag.StringVar(&admin.LastName, "last", "", "last name (required)")
	flag.StringVar(&admin.Password, "password", "", "password; generated and printed when empty")
	flag.Parse()

	if err := run(admin); err != nil {
		logger.Error().Err(err).Msg("Failed to create admin")
		os.Exit(1)
	}
}

func run(admin seed.Admin) error {
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	repos := appRepos.NewRepositories(database.Pool)
	identities, closer := bootstrap.NewIdentityProvider(cfg, repos)
	if closer != nil {
		defer closer.Close()
	}
	provisioner := bootstrap.NewProvisioner(cfg, repos, identities, metrics.NewDefault())

	password, created, err := seed.CreateAdmin(ctx, provisioner, admin)
	if err != nil {
		return err
	}
	if !created {
		lgr.Warn().Str("iin", admin.IIN).Msg("An account with this IIN already exists, nothing to do")
		return nil
	}

	lgr.Info().Str("iin", admin.IIN).Str("email", admin.Email).Msg("Admin account created")
	if admin.Password == "" {
		fmt.Printf("Generated password (shown once): %s\n", password)
	}
	return nil
}
