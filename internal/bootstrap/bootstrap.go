package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	appAuth "github.com/yigit/coursepath/internal/app/auth"
	"github.com/yigit/coursepath/internal/app/cache"
	appControllers "github.com/yigit/coursepath/internal/app/controllers"
	appMigrations "github.com/yigit/coursepath/internal/app/migrations"
	appRepos "github.com/yigit/coursepath/internal/app/repositories"
	appRoutes "github.com/yigit/coursepath/internal/app/routes"
	appServices "github.com/yigit/coursepath/internal/app/services"
	"github.com/yigit/coursepath/internal/config"
	"github.com/yigit/coursepath/internal/db"
	appMiddleware "github.com/yigit/coursepath/internal/middleware"
	pkgAuth "github.com/yigit/coursepath/internal/pkg/auth"
	"github.com/yigit/coursepath/internal/pkg/helpers"
	"github.com/yigit/coursepath/internal/pkg/logger"
	"github.com/yigit/coursepath/internal/pkg/metrics"
	"github.com/yigit/coursepath/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Database    *db.PostgresDB
	Redis       *redis.Client // nil when the cache is disabled
	Repos       *appRepos.Repositories
	JWTService  *pkgAuth.JWTService
	Gate        *appAuth.Gate
	Metrics     *metrics.Metrics
	CourseCache cache.CourseCache

	AuthService       appServices.AuthService
	CourseService     appServices.CourseService
	EnrollmentService appServices.EnrollmentService
	AnalyticsService  appServices.AnalyticsService

	AuthController       *appControllers.AuthController
	CourseController     *appControllers.CourseController
	EnrollmentController *appControllers.EnrollmentController
	AnalyticsController  *appControllers.AnalyticsController
	HealthController     *appControllers.HealthController
	AuthMiddleware       *appMiddleware.AuthMiddleware

	Logger zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	lgr := logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: cfg.Logging.Format == "text" || cfg.Logging.Format == "console",
	})

	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// ConnectDatabase opens the PostgreSQL pool.
func ConnectDatabase(cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Str("host", cfg.Database.Host).Str("dbname", cfg.Database.DBName).Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")
	return database, nil
}

// RunMigrations applies the embedded schema migrations.
func RunMigrations(ctx context.Context, database *db.PostgresDB, lgr zerolog.Logger) error {
	lgr.Info().Msg("Running database migrations...")
	if err := appMigrations.NewMigrator(database.Pool, lgr).Up(ctx); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")
	return nil
}

// SetupDatabase connects and migrates.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	database, err := ConnectDatabase(cfg, lgr)
	if err != nil {
		return nil, err
	}
	if err := RunMigrations(ctx, database, lgr); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

// BuildDependencies initializes application repositories, services, and controllers.
// An unreachable Redis disables the course cache instead of failing startup.
func BuildDependencies(ctx context.Context, cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Database: database,
		Logger:   lgr,
		Metrics:  metrics.New(),
	}

	deps.Repos = appRepos.NewRepositories(database)

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 24*time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})
	deps.Gate = appAuth.NewGate(deps.JWTService)

	deps.CourseCache = cache.NoopCourseCache{}
	if cfg.CacheEnabled() {
		client, err := cache.NewRedisClient(ctx, cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			lgr.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unavailable, course cache disabled")
		} else {
			deps.Redis = client
			ttl := helpers.ParseDuration(cfg.Redis.TTL, 10*time.Minute)
			deps.CourseCache = cache.NewRedisCourseCache(client, ttl, lgr, deps.Metrics)
			lgr.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", ttl).Msg("Course cache enabled")
		}
	}

	deps.AuthService = appServices.NewAuthService(
		deps.Repos.UserRepository,
		deps.Repos.EnrollmentRepository,
		pkgAuth.NewBcryptHasher(cfg.Auth.BcryptCost),
		deps.JWTService,
		lgr,
	)
	deps.CourseService = appServices.NewCourseService(
		deps.Repos.CourseRepository,
		deps.Repos.EnrollmentRepository,
		deps.CourseCache,
		lgr,
	)
	deps.EnrollmentService = appServices.NewEnrollmentService(
		deps.Repos.EnrollmentRepository,
		deps.Repos.CourseRepository,
		deps.Metrics,
		lgr,
	)
	deps.AnalyticsService = appServices.NewAnalyticsService(
		deps.Repos.CourseRepository,
		deps.Repos.EnrollmentRepository,
		lgr,
	)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.Gate, lgr)

	deps.AuthController = appControllers.NewAuthController(deps.AuthService, lgr)
	deps.CourseController = appControllers.NewCourseController(deps.CourseService, lgr)
	deps.EnrollmentController = appControllers.NewEnrollmentController(deps.EnrollmentService, lgr)
	deps.AnalyticsController = appControllers.NewAnalyticsController(deps.AnalyticsService)
	deps.HealthController = appControllers.NewHealthController(healthChecks(deps), lgr)

	return deps, nil
}

func healthChecks(deps *Dependencies) map[string]appControllers.HealthCheck {
	checks := map[string]appControllers.HealthCheck{
		"database": deps.Database.Ping,
	}
	if deps.Redis != nil {
		checks["cache"] = func(ctx context.Context) error {
			return deps.Redis.Ping(ctx).Err()
		}
	}
	return checks
}

// SeedDefaultData creates the default accounts and sample courses. Failures are
// logged and returned, never fatal for startup.
func SeedDefaultData(ctx context.Context, deps *Dependencies) error {
	if err := seed.CreateDefaultData(ctx, deps.AuthService, deps.CourseService, deps.Logger); err != nil {
		deps.Logger.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
		return err
	}
	return nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) (*gin.Engine, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	if err := appMiddleware.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	router := gin.New()
	router.Use(
		appMiddleware.RequestID(),
		appMiddleware.RequestLogger(lgr),
		appMiddleware.Metrics(deps.Metrics),
		appMiddleware.Recovery(lgr),
	)

	appRoutes.SetupSwagger(router)
	appRoutes.SetupOperationalRoutes(router, deps.HealthController, deps.Metrics.Handler())
	appRoutes.SetupRouter(router,
		deps.AuthController,
		deps.CourseController,
		deps.EnrollmentController,
		deps.AnalyticsController,
		deps.AuthMiddleware,
	)

	return router, nil
}

// Close releases the Redis client and the database pool.
func (d *Dependencies) Close() {
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error().Err(err).Msg("Error closing Redis client")
		}
	}
	if d.Database != nil {
		d.Database.Close()
	}
}
