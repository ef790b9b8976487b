package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	appAuth "github.com/yigit/kebele/internal/app/auth"
	appControllers "github.com/yigit/kebele/internal/app/controllers"
	appMigrations "github.com/yigit/kebele/internal/app/migrations"
	"github.com/yigit/kebele/internal/app/models"
	"github.com/yigit/kebele/internal/app/notification"
	appRepos "github.com/yigit/kebele/internal/app/repositories"
	appRoutes "github.com/yigit/kebele/internal/app/routes"
	"github.com/yigit/kebele/internal/app/rules"
	appServices "github.com/yigit/kebele/internal/app/services"
	"github.com/yigit/kebele/internal/config"
	"github.com/yigit/kebele/internal/db"
	appMiddleware "github.com/yigit/kebele/internal/middleware"
	pkgAuth "github.com/yigit/kebele/internal/pkg/auth"
	"github.com/yigit/kebele/internal/pkg/email"
	"github.com/yigit/kebele/internal/pkg/filestorage"
	"github.com/yigit/kebele/internal/pkg/helpers"
	"github.com/yigit/kebele/internal/pkg/logger"
	"github.com/yigit/kebele/internal/pkg/metrics"
	"github.com/yigit/kebele/internal/seed"
)

// DefaultConfigPath is used when CONFIG_PATH is not set
const DefaultConfigPath = "configs/config.yaml"

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos          *appRepos.Repositories
	Services       *appServices.Services
	Controllers    appRoutes.Controllers
	AuthMiddleware *appMiddleware.AuthMiddleware
	JWTService     *pkgAuth.JWTService
	AuthzService   *appAuth.AuthorizationService
	FileStorage    *filestorage.LocalStorage
	Metrics        *metrics.Metrics
	Registry       *prometheus.Registry
	Logger         zerolog.Logger
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

	logger.Configure(logger.Config{
		Level:  logger.LogLevel(strings.ToLower(cfg.Logging.Level)),
		Pretty: logger.ParseFormat(cfg.Logging.Format),
	})

	lgr := logger.Get()
	lgr.Info().Str("logLevel", cfg.Logging.Level).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection, runs migrations and
// seeds the default staff account.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(ctx, cfg, logger.Component("postgres"))
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
	if err := appMigrations.NewMigrator(database).MigrateFromDirectory(ctx, migrationsDir); err != nil {
		database.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	if err := seed.CreateDefaultAdmin(ctx, appRepos.NewUserRepository(database.Pool), cfg, lgr); err != nil {
		lgr.Error().Err(err).Msg("Failed to create default admin, proceeding anyway...")
	}

	return database, nil
}

// SetupRedis connects to Redis when an address is configured. A nil client
// means access tokens are not denylisted on logout.
func SetupRedis(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*redis.Client, error) {
	if cfg.Redis.Addr == "" {
		lgr.Warn().Msg("Redis not configured, access token denylist disabled")
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
	}

	lgr.Info().Str("addr", cfg.Redis.Addr).Msg("Redis connection established")
	return client, nil
}

// BuildDependencies initializes repositories, services, middleware and
// controllers. rdb may be nil.
func BuildDependencies(cfg *config.Config, database *db.PostgresDB, rdb *redis.Client, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(database.Pool)

	var err error
	deps.FileStorage, err = filestorage.NewLocalStorage(cfg.Storage.Path, cfg.Storage.PublicURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	deps.Registry = prometheus.NewRegistry()
	deps.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	deps.Metrics = metrics.New(deps.Registry)

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  helpers.DurationOr(cfg.JWT.AccessTokenExpiration, time.Hour),
		RefreshTokenExp: helpers.DurationOr(cfg.JWT.RefreshTokenExpiration, 720*time.Hour),
		TokenIssuer:     cfg.JWT.Issuer,
	})

	var denylist pkgAuth.Denylist
	if rdb != nil {
		denylist = pkgAuth.NewRedisDenylist(rdb)
	}

	if !cfg.SMTPEnabled() {
		lgr.Warn().Msg("SMTP credentials not configured, status emails will be skipped")
	}
	sender := email.NewSMTPSender(email.SMTPConfig{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		FromName:  cfg.SMTP.FromName,
		FromEmail: cfg.SMTP.FromEmail,
		UseTLS:    cfg.SMTP.UseTLS,
	}, config.NewCircuitBreaker("smtp", 30*time.Second, lgr), logger.Component("email"))

	deps.Services = appServices.NewServices(appServices.Dependencies{
		Repos:    deps.Repos,
		Storage:  deps.FileStorage,
		Notifier: notification.NewEmailNotifier(sender, deps.Metrics),
		JWT:      deps.JWTService,
		Denylist: denylist,
		Metrics:  deps.Metrics,
		PhotoLimits: rules.PhotoLimits{
			Min: cfg.Validation.PhotoMinDimension,
			Max: cfg.Validation.PhotoMaxDimension,
		},
		MaxUploadBytes: cfg.Storage.MaxUploadBytes,
		Logger:         lgr,
	})

	deps.AuthzService = appAuth.NewAuthorizationService(deps.Repos.UserRepository)
	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService, denylist, deps.AuthzService)

	deps.Controllers = appRoutes.Controllers{
		Auth:        appControllers.NewAuthController(deps.Services.AuthService, deps.Services.UserService.FileURL, logger.Component("auth")),
		User:        appControllers.NewUserController(deps.Services.UserService, logger.Component("users")),
		Application: appControllers.NewApplicationController(deps.Services.ApplicationService, logger.Component("applications")),
		File:        appControllers.NewFileController(deps.Services.ApplicationService, deps.Services.UserService, logger.Component("files")),
	}

	return deps, nil
}

// RequestBodyLimit is the largest multipart body accepted: every attachment
// slot at the per-file cap plus room for the text fields.
func RequestBodyLimit(cfg *config.Config) int64 {
	return int64(len(models.Attachments))*cfg.Storage.MaxUploadBytes + 1<<20
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, database *db.PostgresDB, lgr zerolog.Logger) *gin.Engine {
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
	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware, database.Ping, RequestBodyLimit(cfg))

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))

	return router
}
