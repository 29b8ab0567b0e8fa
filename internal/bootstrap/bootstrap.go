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

	appControllers "github.com/liuwen/courseadvisor/internal/app/controllers"
	"github.com/liuwen/courseadvisor/internal/app/extractor"
	appMigrations "github.com/liuwen/courseadvisor/internal/app/migrations"
	"github.com/liuwen/courseadvisor/internal/app/models"
	"github.com/liuwen/courseadvisor/internal/app/narrator"
	appRepos "github.com/liuwen/courseadvisor/internal/app/repositories"
	appRoutes "github.com/liuwen/courseadvisor/internal/app/routes"
	appServices "github.com/liuwen/courseadvisor/internal/app/services"
	"github.com/liuwen/courseadvisor/internal/config"
	"github.com/liuwen/courseadvisor/internal/db"
	appMiddleware "github.com/liuwen/courseadvisor/internal/middleware"
	pkgAuth "github.com/liuwen/courseadvisor/internal/pkg/auth"
	"github.com/liuwen/courseadvisor/internal/pkg/helpers"
	"github.com/liuwen/courseadvisor/internal/pkg/llm"
	"github.com/liuwen/courseadvisor/internal/pkg/logger"
	"github.com/liuwen/courseadvisor/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	AdvisorService         appServices.AdvisorService
	ConversationService    appServices.ConversationService
	CatalogService         appServices.CatalogService
	AdvisorController      *appControllers.AdvisorController
	ConversationController *appControllers.ConversationController
	CatalogController      *appControllers.CatalogController
	AuthMiddleware         *appMiddleware.AuthMiddleware
	Repos                  *appRepos.Repositories
	JWTService             *pkgAuth.JWTService
	LLMClient              llm.Client
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

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := dbPool.Ping(ctx); err != nil {
		lgr.Error().Err(err).Msg("Failed to ping database")
		dbPool.Close()
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	// Run migrations
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

	// Create Default Data (after migrations)
	if err := seed.CreateDefaultData(context.Background(), dbPool, lgr); err != nil {
		// Log the error but don't necessarily fail the startup
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	return dbPool, nil
}

// catalogStore adapts the catalog repositories to the single read surface the
// catalog service caches behind.
type catalogStore struct {
	courses   *appRepos.CourseRepository
	faculties *appRepos.FacultyRepository
	teachers  *appRepos.TeacherRepository
}

func (s *catalogStore) GetAllCourses(ctx context.Context) ([]*models.Course, error) {
	return s.courses.GetAllCourses(ctx)
}

func (s *catalogStore) GetCourseByID(ctx context.Context, id int64) (*models.Course, error) {
	return s.courses.GetCourseByID(ctx, id)
}

func (s *catalogStore) GetAllFaculties(ctx context.Context) ([]*models.Faculty, error) {
	return s.faculties.GetAllFaculties(ctx)
}

func (s *catalogStore) GetAllTeachers(ctx context.Context) ([]*models.Teacher, error) {
	return s.teachers.GetAllTeachers(ctx)
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(dbPool)

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 1*time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})

	deps.CatalogService = appServices.NewCatalogService(
		&catalogStore{
			courses:   deps.Repos.CourseRepository,
			faculties: deps.Repos.FacultyRepository,
			teachers:  deps.Repos.TeacherRepository,
		},
		helpers.ParseDuration(cfg.Catalog.CacheTTL, 5*time.Minute),
		lgr,
	)

	deps.ConversationService = appServices.NewConversationService(deps.Repos.ConversationRepository, lgr)

	deps.LLMClient = llm.NewClient(llm.Config{
		Enabled: cfg.LLM.Enabled,
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
	})

	advisorCfg := appServices.AdvisorConfig{
		Conversations:     deps.Repos.ConversationRepository,
		Catalog:           deps.CatalogService,
		FallbackExtractor: extractor.NewRuleExtractor(),
		FallbackNarrator:  narrator.NewTemplateNarrator(),
		LLMTimeout:        helpers.ParseDuration(cfg.LLM.Timeout, 30*time.Second),
		LLMAvailable:      deps.LLMClient.Available(),
		Model:             cfg.LLM.Model,
	}
	if deps.LLMClient.Available() {
		advisorCfg.PrimaryExtractor = extractor.NewLLMExtractor(deps.LLMClient, lgr)
		advisorCfg.PrimaryNarrator = narrator.NewLLMNarrator(deps.LLMClient, lgr)
		lgr.Info().Str("model", cfg.LLM.Model).Msg("LLM pipeline enabled")
	} else {
		lgr.Info().Msg("LLM pipeline disabled, using rule extraction and template narration")
	}
	deps.AdvisorService = appServices.NewAdvisorService(advisorCfg, lgr)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	deps.AdvisorController = appControllers.NewAdvisorController(deps.AdvisorService)
	deps.ConversationController = appControllers.NewConversationController(deps.ConversationService)
	deps.CatalogController = appControllers.NewCatalogController(deps.CatalogService)

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
		deps.AdvisorController,
		deps.ConversationController,
		deps.CatalogController,
		deps.AuthMiddleware,
	)

	// Test endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router
}
