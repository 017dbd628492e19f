package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	appAuth "github.com/yigit/teacherportfolio/internal/app/auth"
	appControllers "github.com/yigit/teacherportfolio/internal/app/controllers"
	appMigrations "github.com/yigit/teacherportfolio/internal/app/migrations"
	appRepos "github.com/yigit/teacherportfolio/internal/app/repositories"
	appRoutes "github.com/yigit/teacherportfolio/internal/app/routes"
	appServices "github.com/yigit/teacherportfolio/internal/app/services"
	"github.com/yigit/teacherportfolio/internal/config"
	"github.com/yigit/teacherportfolio/internal/db"
	appMiddleware "github.com/yigit/teacherportfolio/internal/middleware"
	pkgAuth "github.com/yigit/teacherportfolio/internal/pkg/auth"
	"github.com/yigit/teacherportfolio/internal/pkg/claims"
	"github.com/yigit/teacherportfolio/internal/pkg/email"
	"github.com/yigit/teacherportfolio/internal/pkg/filestorage"
	"github.com/yigit/teacherportfolio/internal/pkg/helpers"
	"github.com/yigit/teacherportfolio/internal/pkg/identity"
	"github.com/yigit/teacherportfolio/internal/pkg/logger"
	"github.com/yigit/teacherportfolio/internal/pkg/metrics"
	"github.com/yigit/teacherportfolio/internal/pkg/notify"
	"github.com/yigit/teacherportfolio/internal/seed"
)

// DefaultConfigPath is used when CONFIG_PATH is not set
const DefaultConfigPath = "configs/config.yaml"

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos       *appRepos.Repositories
	Metrics     *metrics.Metrics
	JWTService  *pkgAuth.JWTService
	Identities  identity.Provider
	ClaimStore  claims.Store
	Notifier    *notify.Dispatcher
	FileStorage *filestorage.LocalStorage

	Provisioner         *appServices.Provisioner
	RegistrationService *appServices.RegistrationService
	AuthService         *appServices.AuthService
	AuthzService        *appAuth.AuthorizationService
	ProfileService      *appServices.ProfileService
	AdminService        *appServices.AdminService
	Reconciler          *appServices.Reconciler

	AuthMiddleware *appMiddleware.AuthMiddleware
	Controllers    appRoutes.Controllers

	Logger  zerolog.Logger
	closers []io.Closer
}

// Close releases the HTTP clients and the Redis connection
func (d *Dependencies) Close() error {
	var errs error
	for i := len(d.closers) - 1; i >= 0; i-- {
		errs = errors.Join(errs, d.closers[i].Close())
	}
	return errs
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = DefaultConfigPath
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	lgr := logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: strings.ToLower(cfg.Logging.Format) == "text",
	})
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase connects, applies the migrations and seeds the starter catalogue.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	migrationsDir := cfg.Database.MigrationsDir
	if _, err := os.Stat(migrationsDir); err != nil {
		database.Close()
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	lgr.Info().Str("dir", migrationsDir).Msg("Running database migrations...")
	if err := appMigrations.NewMigrator(database.Pool).MigrateFromDirectory(ctx, migrationsDir); err != nil {
		database.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	if err := seed.CreateDefaultData(ctx, database, lgr); err != nil {
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	return database, nil
}

// NewRedisClient connects to Redis and checks it answers
func NewRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

// NewIdentityProvider returns the provider selected by identity.provider
func NewIdentityProvider(cfg *config.Config, repos *appRepos.Repositories) (identity.Provider, io.Closer) {
	if cfg.Identity.Provider == config.IdentityProviderHosted {
		hosted := identity.NewHostedProvider(identity.HostedConfig{
			BaseURL:    cfg.Identity.Hosted.URL,
			ServiceKey: cfg.Identity.Hosted.ServiceKey,
			Timeout:    helpers.ParseDuration(cfg.Identity.Hosted.Timeout, 10*time.Second),
		})
		return hosted, hosted
	}
	return identity.NewLocalProvider(repos.IdentityRepository), nil
}

// NewProvisioner builds the provisioner the server and the admin CLI share
func NewProvisioner(cfg *config.Config, repos *appRepos.Repositories, identities identity.Provider, m *metrics.Metrics) *appServices.Provisioner {
	return appServices.NewProvisioner(
		repos.TeacherRepository,
		identities,
		m,
		appServices.ProvisionerConfig{
			PendingGrace:         helpers.ParseDuration(cfg.Registration.PendingGrace, 10*time.Minute),
			CompensationAttempts: cfg.Registration.Compensation.MaxAttempts,
			CompensationInterval: helpers.ParseDuration(cfg.Registration.Compensation.InitialInterval, 200*time.Millisecond),
			CompensationTimeout:  helpers.ParseDuration(cfg.Registration.Compensation.Timeout, 15*time.Second),
		},
		logger.Component("provisioner"),
	)
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(ctx context.Context, cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}
	deps.Repos = appRepos.NewRepositories(database.Pool)
	deps.Metrics = metrics.NewDefault()

	var err error
	publicURL := strings.TrimRight(cfg.Server.PublicURL, "/")
	deps.FileStorage, err = filestorage.NewLocalStorage(cfg.Server.StoragePath, publicURL+"/uploads", filestorage.DefaultMaxSize)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	if cfg.Redis.Addr != "" {
		rdb, err := NewRedisClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		deps.closers = append(deps.closers, rdb)
		deps.ClaimStore = claims.NewRedisStore(rdb, helpers.ParseDuration(cfg.Notification.ClaimTTL, 72*time.Hour))
		lgr.Info().Str("addr", cfg.Redis.Addr).Msg("Claim links backed by Redis")
	}

	var closer io.Closer
	deps.Identities, closer = NewIdentityProvider(cfg, deps.Repos)
	if closer != nil {
		deps.closers = append(deps.closers, closer)
	}
	lgr.Info().Str("provider", cfg.Identity.Provider).Msg("Identity provider selected")

	deps.Notifier = notify.NewDispatcher(notify.DispatcherConfig{
		FunctionURL: cfg.Notification.FunctionURL,
		ServiceKey:  cfg.Notification.ServiceKey,
		Timeout:     helpers.ParseDuration(cfg.Notification.Timeout, 10*time.Second),
	}, logger.Component("notify"))
	deps.closers = append(deps.closers, deps.Notifier)

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 1*time.Hour),
		RefreshTokenExp: helpers.ParseDuration(cfg.JWT.RefreshTokenExpiration, 720*time.Hour),
		TokenIssuer:     cfg.JWT.Issuer,
	})

	// Services
	deps.Provisioner = NewProvisioner(cfg, deps.Repos, deps.Identities, deps.Metrics)

	deps.RegistrationService = appServices.NewRegistrationService(
		deps.Provisioner,
		deps.Repos.CertificationRepository,
		deps.Repos.StudentResultRepository,
		deps.Notifier,
		deps.ClaimStore,
		deps.Metrics,
		appServices.RegistrationConfig{
			CertificationStrictness: cfg.Registration.Strictness.Certification,
			ResultsStrictness:       cfg.Registration.Strictness.Results,
			NotificationStrictness:  cfg.Registration.Strictness.Notification,
			NotificationMode:        cfg.Notification.Mode,
			AppURL:                  cfg.Notification.AppURL,
		},
		logger.Component("registration"),
	)

	deps.AuthService = appServices.NewAuthService(
		deps.Repos.TeacherRepository,
		deps.Repos.SessionRepository,
		deps.Identities,
		deps.ClaimStore,
		deps.JWTService,
		deps.Metrics,
		logger.Component("auth"),
	)

	deps.AuthzService = appAuth.NewAuthorizationService(deps.Repos.SkillRepository, deps.Repos.GoalRepository)

	deps.ProfileService = appServices.NewProfileService(
		deps.Repos.TeacherRepository,
		deps.Repos.CertificationRepository,
		deps.Repos.StudentResultRepository,
		deps.Repos.SkillRepository,
		deps.Repos.GoalRepository,
		deps.AuthzService,
		deps.FileStorage,
		logger.Component("profile"),
	)

	deps.AdminService = appServices.NewAdminService(
		deps.Repos.TeacherRepository,
		deps.Repos.SkillRepository,
		deps.Repos.GoalRepository,
		deps.ProfileService,
		logger.Component("admin"),
	)

	deps.Reconciler = appServices.NewReconciler(
		deps.Provisioner,
		deps.Repos.TeacherRepository,
		deps.Repos.SessionRepository,
		appServices.ReconcilerConfig{
			Interval:     helpers.ParseDuration(cfg.Reconciler.Interval, 5*time.Minute),
			Timeout:      helpers.ParseDuration(cfg.Reconciler.Timeout, 30*time.Second),
			PendingGrace: helpers.ParseDuration(cfg.Registration.PendingGrace, 10*time.Minute),
		},
		logger.Component("reconciler"),
	)

	// Middleware and controllers
	if err := appMiddleware.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.AuthService, appMiddleware.CookieConfig{
		Secure: cfg.JWT.CookieSecure,
		Domain: cfg.JWT.CookieDomain,
	}, logger.Component("guard"))

	deps.Controllers = appRoutes.Controllers{
		Registration: appControllers.NewRegistrationController(deps.RegistrationService, cfg.Registration.WebhookSecret, logger.Component("webhook")),
		Auth:         appControllers.NewAuthController(deps.AuthService, deps.AuthMiddleware, lgr),
		Teacher:      appControllers.NewTeacherController(deps.ProfileService, lgr),
		Admin:        appControllers.NewAdminController(deps.AdminService, lgr),
		Notification: appControllers.NewNotificationController(
			notify.NewComposer(cfg.Notification.AppURL, cfg.Notification.FromAddress),
			email.NewLogMailer(logger.Component("mail"), cfg.Server.Mode == "development"),
			cfg.Notification.ServiceKey,
			logger.Component("welcome-function"),
		),
	}

	return deps, nil
}

// SeedAdmin provisions the admin account named in the seed section, if any.
// An existing account with the same IIN is left alone.
func SeedAdmin(ctx context.Context, cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) error {
	if cfg.Seed.AdminIIN == "" {
		return nil
	}

	_, created, err := seed.CreateAdmin(ctx, deps.Provisioner, seed.Admin{
		IIN:       cfg.Seed.AdminIIN,
		Email:     cfg.Seed.AdminEmail,
		FirstName: cfg.Seed.AdminFirstName,
		LastName:  cfg.Seed.AdminLastName,
		Password:  cfg.Seed.AdminPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}
	if created {
		lgr.Info().Str("iin", cfg.Seed.AdminIIN).Msg("Seed admin account created")
	}
	return nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		appMiddleware.RequestLogger(logger.Component("http")),
		deps.Metrics.GinMiddleware(),
	)

	appRoutes.SetupSwagger(router)
	router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router
}
