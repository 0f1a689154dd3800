package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"tinysteps/internal/config"
	"tinysteps/internal/database"
	"tinysteps/internal/handlers"
	"tinysteps/internal/logger"
	"tinysteps/internal/metrics"
	"tinysteps/internal/oracle"
	"tinysteps/internal/repository"
	"tinysteps/internal/security"
	"tinysteps/internal/service"
)

const (
	stepDatabase   = "Database connection"
	stepMigrations = "Database migrations"
	stepSamples    = "Sample students"
	stepSessions   = "Suggestion sessions"
	stepOracle     = "AI oracle"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startup := handlers.NewStartupStatus(stepDatabase, stepMigrations, stepSamples, stepSessions, stepOracle)

	// Initialize database with config (supports sqlite, postgres, mysql)
	startup.SetCurrentStep(stepDatabase)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()
	log.Info("database connection established", zap.String("type", cfg.DatabaseType))
	startup.CompleteStep(stepDatabase)

	startup.SetCurrentStep(stepMigrations)
	applied, err := db.RunMigrations(ctx, cfg.MigrationsPath)
	if err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}
	log.Info("migrations completed", zap.Strings("applied", applied))
	startup.CompleteStep(stepMigrations)

	m := metrics.New()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	storyRepo := repository.NewStoryRepository(db)

	// Services
	startup.SetCurrentStep(stepSamples)
	students := service.NewStudentService(studentRepo, log.Named("students"))
	if err := students.SeedSamples(ctx); err != nil {
		log.Warn("failed to seed sample students", zap.Error(err))
	}
	startup.CompleteStep(stepSamples)

	emailService, err := service.NewEmailService(ctx, service.EmailConfig{
		Region:      cfg.AWSRegion,
		FromEmail:   cfg.EmailFrom,
		FromName:    cfg.EmailFromName,
		FrontendURL: cfg.FrontendURL,
		Debug:       cfg.EmailDebug,
	}, log.Named("email"))
	if err != nil {
		log.Fatal("failed to initialize email service", zap.Error(err))
	}

	tokens := security.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	authService := service.NewAuthService(userRepo, tokens, emailService, log.Named("auth"))
	activities := service.NewActivityService(activityRepo, m, log.Named("activities"))
	stories := service.NewStoryService(storyRepo, log.Named("stories"))

	checks := map[string]handlers.HealthCheck{"database": db.PingContext}

	startup.SetCurrentStep(stepSessions)
	var sessions service.SessionStore
	var memorySessions *service.MemorySessionStore
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal("failed to connect to redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		sessions = service.NewRedisSessionStore(rdb, cfg.SuggestionSessionTTL)
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		log.Info("suggestion sessions stored in redis", zap.String("addr", cfg.RedisAddr))
	} else {
		memorySessions = service.NewMemorySessionStore(cfg.SuggestionSessionTTL)
		sessions = memorySessions
		log.Info("suggestion sessions stored in memory")
	}
	startup.CompleteStep(stepSessions)

	startup.SetCurrentStep(stepOracle)
	var ai oracle.Oracle
	genaiCfg := oracle.GenAIConfig{
		APIKey:   cfg.GeminiAPIKey,
		Project:  cfg.GoogleCloudProject,
		Location: cfg.GoogleCloudLocation,
		Model:    cfg.GeminiModel,
	}
	if genaiCfg.Configured() {
		gemini, err := oracle.NewGenAIOracle(ctx, genaiCfg, log.Named("oracle"))
		if err != nil {
			log.Fatal("failed to initialize AI oracle", zap.Error(err))
		}
		ai = oracle.NewBreaker(gemini, config.NewCircuitBreaker("oracle", 30*time.Second, log))
	} else {
		log.Warn("AI oracle not configured: set GEMINI_API_KEY or GOOGLE_CLOUD_PROJECT")
	}
	startup.CompleteStep(stepOracle)

	generator := service.NewGenerationService(ai, cfg.OracleTimeout, m, log.Named("generation"))
	suggestions := service.NewSuggestionService(sessions, generator, activities, log.Named("suggestions"))

	oauthProviders := map[string]handlers.OAuthProvider{
		"google": {
			Name: "google",
			Config: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				Endpoint:     google.Endpoint,
				Scopes:       []string{"openid", "email", "profile"},
			},
			UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		},
	}

	// Ten attempts per minute per client on the public endpoints
	limiter := security.NewRateLimiter(ctx, 10, time.Minute)

	router := &handlers.Router{
		Middleware:  handlers.NewMiddleware(authService, limiter),
		Auth:        handlers.NewAuthHandler(authService, oauthProviders, cfg.OAuthRedirectBaseURL, cfg.FrontendURL, log.Named("auth")),
		Students:    handlers.NewStudentHandler(students),
		Activities:  handlers.NewActivityHandler(students, activities),
		Suggestions: handlers.NewSuggestionHandler(students, suggestions),
		Stories:     handlers.NewStoryHandler(students, stories),
		AI:          handlers.NewAIHandler(generator),
		Health:      handlers.NewHealthHandler(startup, checks),
		Metrics:     m,
	}

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	handler := handlers.Logging(log.Named("http"), m, corsHandler(router.Mux()))

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.OracleTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go cleanupExpired(ctx, log, authService, memorySessions)

	go func() {
		log.Info("server starting", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()
	startup.MarkReady()

	<-ctx.Done()
	log.Info("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}

// cleanupExpired periodically removes expired reset tokens and idle
// in-memory suggestion sessions
func cleanupExpired(ctx context.Context, log *zap.Logger, authService *service.AuthService, sessions *service.MemorySessionStore) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		removed, err := authService.CleanupExpiredPasswordResetTokens(ctx)
		if err != nil {
			log.Error("failed to clean up password reset tokens", zap.Error(err))
		} else {
			log.Debug("expired password reset tokens cleaned up", zap.Int64("removed", removed))
		}

		if sessions != nil {
			log.Debug("idle suggestion sessions pruned", zap.Int("removed", sessions.Prune()))
		}
	}
}
