package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	appControllers "github.com/yigit/collegeerp/internal/app/controllers"
	appMigrations "github.com/yigit/collegeerp/internal/app/migrations"
	appRepos "github.com/yigit/collegeerp/internal/app/repositories"
	appRoutes "github.com/yigit/collegeerp/internal/app/routes"
	appServices "github.com/yigit/collegeerp/internal/app/services"
	"github.com/yigit/collegeerp/internal/app/session"
	"github.com/yigit/collegeerp/internal/config"
	"github.com/yigit/collegeerp/internal/db"
	appMiddleware "github.com/yigit/collegeerp/internal/middleware"
	pkgAuth "github.com/yigit/collegeerp/internal/pkg/auth"
	"github.com/yigit/collegeerp/internal/pkg/breaker"
	"github.com/yigit/collegeerp/internal/pkg/cache"
	"github.com/yigit/collegeerp/internal/pkg/email"
	"github.com/yigit/collegeerp/internal/pkg/events"
	"github.com/yigit/collegeerp/internal/pkg/filestorage"
	"github.com/yigit/collegeerp/internal/pkg/logger"
	"github.com/yigit/collegeerp/internal/pkg/metrics"
	"github.com/yigit/collegeerp/internal/pkg/validation"
	"github.com/yigit/collegeerp/internal/pkg/websocket"
	"github.com/yigit/collegeerp/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Config         *config.Config
	Logger         zerolog.Logger
	DB             *pgxpool.Pool
	Repos          *appRepos.Repositories
	Cache          cache.Store
	Metrics        *metrics.Metrics
	Hub            *websocket.Hub
	JWTService     *pkgAuth.JWTService
	Views          *session.Views
	Resolver       *session.Resolver
	AuthMiddleware *appMiddleware.AuthMiddleware
	Controllers    appRoutes.Controllers
	FileStorage    *filestorage.LocalStorage

	closers []func() error
}

// Close releases the broker and cache connections. The database pool is owned
// by the caller of SetupDatabase.
func (d *Dependencies) Close() error {
	var err error
	for i := len(d.closers) - 1; i >= 0; i-- {
		err = errors.Join(err, d.closers[i]())
	}
	return err
}

// LoadConfigAndSetupLogger loads .env and the YAML configuration and
// initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		logger.Warn().Err(err).Msg("Failed to load .env file")
	}

	configPath := config.GetEnv("CONFIG_PATH", "configs/config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
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

// SetupDatabase establishes the database connection, runs migrations and
// creates the default data.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	dbPool, err := db.Connect(ctx, cfg, lgr)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	lgr.Info().Msg("Running database migrations...")
	migrationsDir := cfg.Database.MigrationsPath
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		dbPool.Close()
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	migrator := appMigrations.NewMigrator(dbPool, lgr)
	if err := migrator.MigrateFromDirectory(ctx, migrationsDir); err != nil {
		dbPool.Close()
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	seedOpts := seed.Options{
		SuperAdminEmail:    cfg.Seed.SuperAdminEmail,
		SuperAdminPassword: cfg.Seed.SuperAdminPassword,
	}
	if err := seed.CreateDefaultData(ctx, dbPool, seedOpts, lgr); err != nil {
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	return dbPool, nil
}

func breakerConfig(cfg *config.Config) breaker.Config {
	return breaker.Config{
		MaxRequests:         uint32(cfg.Breaker.MaxRequests),
		Interval:            config.Duration(cfg.Breaker.Interval),
		Timeout:             config.Duration(cfg.Breaker.Timeout),
		ConsecutiveFailures: uint32(cfg.Breaker.ConsecutiveFailures),
	}
}

// setupCache connects to Redis when configured and falls back to process
// memory otherwise.
func setupCache(ctx context.Context, cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) cache.Store {
	if cfg.Redis.Addr == "" {
		lgr.Info().Msg("Redis not configured, using in-memory cache")
		return cache.NewMemoryStore()
	}

	store, err := cache.NewRedisStore(ctx, cache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Prefix:   cfg.Redis.Prefix,
	})
	if err != nil {
		lgr.Warn().Err(err).Msg("Redis unavailable, using in-memory cache")
		return cache.NewMemoryStore()
	}
	deps.closers = append(deps.closers, store.Close)
	lgr.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis")
	return store
}

// setupPublisher delivers change events to the websocket hub and, when
// configured, to the AMQP exchange.
func setupPublisher(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) events.Publisher {
	fanout := events.Fanout{appServices.NewHubPublisher(deps.Hub, deps.Metrics)}
	if cfg.AMQP.URL == "" {
		return fanout
	}

	cb := breaker.New("amqp", breakerConfig(cfg), lgr)
	publisher, err := events.NewAMQPPublisher(events.AMQPConfig{URL: cfg.AMQP.URL, Exchange: cfg.AMQP.Exchange}, cb, lgr)
	if err != nil {
		lgr.Warn().Err(err).Msg("RabbitMQ unavailable, change events stay in process")
		return fanout
	}
	deps.closers = append(deps.closers, publisher.Close)
	return append(fanout, publisher)
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(ctx context.Context, cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Config: cfg, Logger: lgr, DB: dbPool}

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := validation.RegisterCustomValidators(v); err != nil {
			return nil, fmt.Errorf("failed to register validators: %w", err)
		}
	}

	deps.Repos = appRepos.NewRepositories(dbPool)
	deps.Metrics = metrics.New()
	deps.Hub = websocket.NewHub(logger.Component("websocket"))
	deps.Cache = setupCache(ctx, cfg, deps, lgr)
	publisher := setupPublisher(cfg, deps, lgr)

	var err error
	deps.FileStorage, err = filestorage.NewLocalStorage(cfg.Server.StoragePath, strings.TrimSuffix(cfg.Server.PublicBaseURL, "/")+"/storage")
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize file storage")
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  config.Duration(cfg.JWT.AccessTokenExpiration),
		RefreshTokenExp: config.Duration(cfg.JWT.RefreshTokenExpiration),
		TokenIssuer:     cfg.JWT.Issuer,
	})

	// Session resolution
	profileLookup := appServices.NewCachedProfileLookup(
		deps.Repos.UserRepository,
		deps.Cache,
		config.Duration(cfg.Session.RoleCacheTTL),
		breaker.New("profile-lookup", breakerConfig(cfg), lgr),
		deps.Metrics,
		logger.Component("profile-lookup"),
	)
	deps.Views = session.DefaultViews()
	deps.Resolver = session.NewResolver(profileLookup, session.ResolverConfig{
		LookupTimeout: config.Duration(cfg.Session.LookupTimeout),
	}, logger.Component("session"))
	denyList := appServices.NewTokenDenyList(deps.Cache)

	var google appServices.IdentityProvider
	if cfg.OAuthEnabled() {
		provider, err := pkgAuth.NewOIDCProvider(ctx, pkgAuth.OIDCConfig{
			IssuerURL:    cfg.OAuth.IssuerURL,
			ClientID:     cfg.OAuth.ClientID,
			ClientSecret: cfg.OAuth.ClientSecret,
			RedirectURL:  cfg.OAuth.RedirectURL,
		})
		if err != nil {
			lgr.Warn().Err(err).Msg("Google sign-in disabled, provider discovery failed")
		} else {
			google = provider
		}
	}

	mailer := email.NewEmailService(email.Config{
		APIKey:    cfg.SendGrid.APIKey,
		FromName:  cfg.SendGrid.FromName,
		FromEmail: cfg.SendGrid.FromEmail,
	}, logger.Component("email"))

	// Initialize services
	authService := appServices.NewAuthService(
		deps.Repos.UserRepository,
		deps.Repos.TokenRepository,
		denyList,
		deps.JWTService,
		deps.Resolver,
		google,
		publisher,
		logger.Component("auth"),
	)
	userService := appServices.NewUserService(deps.Repos.UserRepository, profileLookup, mailer, cfg.SendGrid.LoginURL, publisher, logger.Component("users"))
	departmentService := appServices.NewDepartmentService(deps.Repos.DepartmentRepository, publisher, lgr)
	courseService := appServices.NewCourseService(deps.Repos.CourseRepository, deps.Repos.DepartmentRepository, deps.Repos.UserRepository, publisher, lgr)
	attendanceService := appServices.NewAttendanceService(deps.Repos.AttendanceRepository, publisher, lgr)
	markService := appServices.NewMarkService(deps.Repos.MarkRepository, publisher, lgr)
	feeService := appServices.NewFeeService(deps.Repos.FeeRepository, publisher, lgr)
	odService := appServices.NewODService(deps.Repos.ODRequestRepository, deps.FileStorage, publisher, lgr)
	chatService := appServices.NewChatService(deps.Repos.ChatRepository, publisher, logger.Component("chat"))
	dashboardService := appServices.NewDashboardService(deps.Repos.StatsRepository)
	realtimeService := appServices.NewRealtimeService(deps.Hub, deps.Repos.StatsRepository, chatService, logger.Component("realtime"))

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService, denyList, deps.Resolver, deps.Views, deps.Metrics, logger.Component("auth-middleware"))

	upgrader := websocket.NewUpgrader(cfg.Server.CORSOrigins)
	deps.Controllers = appRoutes.Controllers{
		Auth:       appControllers.NewAuthController(authService, lgr),
		Navigation: appControllers.NewNavigationController(deps.Views),
		User:       appControllers.NewUserController(userService, lgr),
		Department: appControllers.NewDepartmentController(departmentService, lgr),
		Course:     appControllers.NewCourseController(courseService, lgr),
		Attendance: appControllers.NewAttendanceController(attendanceService, lgr),
		Mark:       appControllers.NewMarkController(markService, lgr),
		Fee:        appControllers.NewFeeController(feeService, lgr),
		OD:         appControllers.NewODController(odService, lgr),
		Chat:       appControllers.NewChatController(chatService, realtimeService, deps.Hub, upgrader, deps.Metrics, lgr),
		Dashboard:  appControllers.NewDashboardController(dashboardService, realtimeService, deps.Hub, upgrader, deps.Metrics, lgr),
		Health: appControllers.NewHealthController(map[string]appControllers.Pinger{
			"database": dbPool,
			"cache":    deps.Cache,
		}, lgr),
		Storage: appControllers.NewStorageController(deps.FileStorage),
	}

	return deps, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			cfg.AllowCredentials = false
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}

func oauthSessionStore(cfg *config.Config) (sessions.Store, error) {
	secret := cfg.Session.CookieSecret
	if secret == "" {
		// Google sign-in is off; nothing signed with this key outlives the process.
		generated, err := pkgAuth.GenerateState()
		if err != nil {
			return nil, err
		}
		secret = generated
	}
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{
		Path:     "/api/v1/auth/google",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
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

	router := gin.New()
	router.Use(
		gin.Recovery(),
		appMiddleware.RequestLogger(logger.Component("http")),
		appMiddleware.Metrics(deps.Metrics),
		cors.New(corsConfig(cfg.Server.CORSOrigins)),
	)

	store, err := oauthSessionStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create session store: %w", err)
	}

	if !cfg.IsProduction() {
		appRoutes.SetupSwagger(router)
	}
	router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware, sessions.Sessions(cfg.Session.CookieName, store))

	return router, nil
}
