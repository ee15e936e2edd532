package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appControllers "github.com/enlassist/backend/internal/app/controllers"
	appMigrations "github.com/enlassist/backend/internal/app/migrations"
	appRepos "github.com/enlassist/backend/internal/app/repositories"
	appRoutes "github.com/enlassist/backend/internal/app/routes"
	appServices "github.com/enlassist/backend/internal/app/services"
	"github.com/enlassist/backend/internal/config"
	"github.com/enlassist/backend/internal/db"
	appMiddleware "github.com/enlassist/backend/internal/middleware"
	pkgAuth "github.com/enlassist/backend/internal/pkg/auth"
	"github.com/enlassist/backend/internal/pkg/filestorage"
	"github.com/enlassist/backend/internal/pkg/helpers"
	"github.com/enlassist/backend/internal/pkg/logger"
	"github.com/enlassist/backend/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	AuthService            appServices.AuthService
	ApplicationService     appServices.ApplicationService
	DepartmentService      appServices.DepartmentService
	WorkLogService         appServices.WorkLogService
	PaymentService         appServices.PaymentService
	NotificationService    appServices.NotificationService
	ExportService          appServices.ExportService
	AuthController         *appControllers.AuthController
	ApplicationController  *appControllers.ApplicationController
	DepartmentController   *appControllers.DepartmentController
	WorkLogController      *appControllers.WorkLogController
	PaymentController      *appControllers.PaymentController
	NotificationController *appControllers.NotificationController
	AuthMiddleware         *appMiddleware.AuthMiddleware
	Repos                  *appRepos.Repositories
	JWTService             *pkgAuth.JWTService
	FileStorage            *filestorage.LocalStorage
	Logger                 zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and runs migrations.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	dbPool := database.Pool

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := dbPool.Ping(ctx); err != nil {
		lgr.Error().Err(err).Msg("Failed to ping database")
		dbPool.Close()
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(dbPool)

	migrationsDir := "migrations"
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	if err := migrator.MigrateFromDirectory(migrationsDir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}

	lgr.Info().Msg("Database migrations successfully applied.")

	// Seed failures are logged but never block startup
	if err := seed.CreateDefaultData(context.Background(), dbPool, cfg, lgr); err != nil {
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	return dbPool, nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(dbPool)

	// The base URL must match the static file serving path in the server
	var err error
	baseURL := "http://localhost:" + cfg.Server.Port
	fileStorageBaseURL := baseURL + "/uploads"
	deps.FileStorage, err = filestorage.NewLocalStorage(cfg.Server.StoragePath, fileStorageBaseURL)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize file storage")
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 1*time.Hour),
		RefreshTokenExp: helpers.ParseDuration(cfg.JWT.RefreshTokenExpiration, 720*time.Hour),
		TokenIssuer:     cfg.JWT.Issuer,
	})

	// Notifications feed every other service, so they come first
	deps.NotificationService = appServices.NewNotificationService(deps.Repos.NotificationRepository)

	deps.AuthService = appServices.NewAuthService(
		deps.Repos.UserRepository,
		deps.Repos.TokenRepository,
		deps.Repos.AssignmentRepository,
		deps.JWTService,
	)
	deps.ApplicationService = appServices.NewApplicationService(
		deps.Repos.ApplicationRepository,
		deps.Repos.DepartmentRepository,
		deps.NotificationService,
	)
	deps.DepartmentService = appServices.NewDepartmentService(
		deps.Repos.DepartmentRepository,
		deps.Repos.AssignmentRepository,
		deps.Repos.UserRepository,
		deps.Repos.ApplicationRepository,
		deps.NotificationService,
	)
	deps.WorkLogService = appServices.NewWorkLogService(
		deps.Repos.WorkLogRepository,
		deps.Repos.AssignmentRepository,
		deps.Repos.ApplicationRepository,
		deps.NotificationService,
	)
	deps.PaymentService = appServices.NewPaymentService(
		deps.Repos.PayRateRepository,
		deps.Repos.PaymentRepository,
		deps.Repos.WorkLogRepository,
		deps.Repos.AssignmentRepository,
		deps.Repos.ApplicationRepository,
		deps.NotificationService,
	)
	deps.ExportService = appServices.NewExportService(deps.PaymentService)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	deps.AuthController = appControllers.NewAuthController(deps.AuthService)
	deps.ApplicationController = appControllers.NewApplicationController(deps.ApplicationService, deps.FileStorage)
	deps.DepartmentController = appControllers.NewDepartmentController(deps.DepartmentService)
	deps.WorkLogController = appControllers.NewWorkLogController(deps.WorkLogService)
	deps.PaymentController = appControllers.NewPaymentController(deps.PaymentService, deps.ExportService, deps.DepartmentService)
	deps.NotificationController = appControllers.NewNotificationController(deps.NotificationService)

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.Default()

	appRoutes.SetupRouter(router,
		deps.AuthController,
		deps.ApplicationController,
		deps.DepartmentController,
		deps.WorkLogController,
		deps.PaymentController,
		deps.NotificationController,
		deps.AuthMiddleware,
	)

	// Test endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router
}
