package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/edutest-api/internal/config"
	"github.com/yourusername/edutest-api/internal/domain/entity"
	"github.com/yourusername/edutest-api/internal/domain/repository"
	"github.com/yourusername/edutest-api/internal/handler"
	"github.com/yourusername/edutest-api/internal/middleware"
	pgRepo "github.com/yourusername/edutest-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/edutest-api/internal/repository/redis"
	"github.com/yourusername/edutest-api/internal/service"
	"github.com/yourusername/edutest-api/internal/service/session"
	ws "github.com/yourusername/edutest-api/internal/websocket"
	"github.com/yourusername/edutest-api/pkg/auth"
	"github.com/yourusername/edutest-api/pkg/database"
)

func setupLogger() {
	zerolog.TimeFieldFormat = time.RFC3339
	if gin.Mode() == gin.ReleaseMode {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
}

func main() {
	setupLogger()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal().Err(err).Msg("[Main] Не удалось загрузить конфигурацию")
	}
	isProduction := gin.Mode() == gin.ReleaseMode

	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString(), database.DefaultPoolConfig(), !isProduction)
	if err != nil {
		log.Fatal().Err(err).Msg("[Main] Не удалось подключиться к PostgreSQL")
	}
	if err := database.MigrateDB(db, database.DefaultMigrationsSource); err != nil {
		log.Fatal().Err(err).Msg("[Main] Не удалось применить миграции")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Без Redis движок работает: кеш вопросов, блокировка отправки и лимиты отключаются
	var cacheRepo repository.CacheRepository
	redisClient, err := database.NewUniversalRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("[Main] Redis недоступен, кеш и блокировки отключены")
	} else {
		repo, err := redisRepo.NewCacheRepo(redisClient)
		if err != nil {
			log.Fatal().Err(err).Msg("[Main] Не удалось создать CacheRepo")
		}
		cacheRepo = repo
		log.Info().Str("mode", cfg.Redis.Mode).Msg("[Main] Подключение к Redis установлено")
	}

	userRepo := pgRepo.NewUserRepo(db)
	courseRepo := pgRepo.NewCourseRepo(db)
	enrollmentRepo := pgRepo.NewEnrollmentRepo(db)
	testRepo := pgRepo.NewTestRepo(db)
	questionRepo := pgRepo.NewQuestionRepo(db)
	attemptRepo := pgRepo.NewAttemptRepo(db)

	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationHrs)
	if err != nil {
		log.Fatal().Err(err).Msg("[Main] Не удалось создать JWTService")
	}

	var mailer session.Mailer = service.NoopResultMailer{}
	if cfg.Email.Enabled {
		resendMailer, err := service.NewResendResultMailer(cfg.Email.ResendAPIKey, cfg.Email.From)
		if err != nil {
			log.Fatal().Err(err).Msg("[Main] Не удалось создать почтовый клиент")
		}
		mailer = resendMailer
	}

	wsHub := ws.NewHub()
	wsManager := ws.NewManager(wsHub)

	sessionManager := session.NewManager(&session.Dependencies{
		QuestionRepo:   questionRepo,
		AttemptRepo:    attemptRepo,
		TestRepo:       testRepo,
		EnrollmentRepo: enrollmentRepo,
		UserRepo:       userRepo,
		CacheRepo:      cacheRepo,
		Notifier:       wsHub,
		Mailer:         mailer,
		Config: &session.Config{
			TickInterval:     cfg.Session.TickInterval(),
			QuestionCacheTTL: cfg.Session.QuestionCacheTTL(),
			SubmitTimeout:    cfg.Session.SubmitTimeout(),
			SendResultEmail:  cfg.Session.SendResultEmail && cfg.Email.Enabled,
		},
	})

	authService, err := service.NewAuthService(userRepo, jwtService)
	if err != nil {
		log.Fatal().Err(err).Msg("[Main] Не удалось создать AuthService")
	}
	userService := service.NewUserService(userRepo, jwtService)
	courseService := service.NewCourseService(courseRepo, enrollmentRepo, userRepo, testRepo)
	testService := service.NewTestService(testRepo, questionRepo, courseRepo, enrollmentRepo, sessionManager.Loader())
	attemptService := service.NewAttemptService(attemptRepo, testRepo, courseRepo, enrollmentRepo)

	if err := handler.RegisterValidators(); err != nil {
		log.Fatal().Err(err).Msg("[Main] Не удалось зарегистрировать валидаторы")
	}

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	courseHandler := handler.NewCourseHandler(courseService)
	testHandler := handler.NewTestHandler(testService, attemptService)
	sessionHandler := handler.NewSessionHandler(sessionManager)
	attemptHandler := handler.NewAttemptHandler(attemptService)
	wsHandler := handler.NewWSHandler(wsHub, wsManager, jwtService, cfg.Server.AllowedOrigins)

	authMiddleware := middleware.NewAuthMiddleware(jwtService)

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	trustedProxies := []string{"127.0.0.1", "::1"}
	if isProduction {
		trustedProxies = nil
	}
	if err := router.SetTrustedProxies(trustedProxies); err != nil {
		log.Warn().Err(err).Msg("[Main] Не удалось установить доверенные прокси")
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "active_sessions": sessionManager.ActiveCount(), "ws_clients": wsHub.ClientCount()})
	})

	requireAuth := authMiddleware.RequireAuth()
	teacherOnly := authMiddleware.RequireRole(entity.RoleTeacher, entity.RoleAdmin)
	studentOnly := authMiddleware.RequireRole(entity.RoleStudent)
	adminOnly := authMiddleware.RequireRole(entity.RoleAdmin)

	api := router.Group("/api")
	{
		authGroup := api.Group("/auth")
		if cacheRepo != nil {
			limiter := middleware.NewRateLimiter(cacheRepo)
			authGroup.Use(limiter.Limit(middleware.StrictAuthRateLimitConfig(cfg.RateLimit.AuthMaxRequests, cfg.RateLimit.AuthWindow())))
		}
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}

		api.GET("/users/me", requireAuth, authHandler.Me)

		admin := api.Group("/admin", requireAuth, adminOnly)
		{
			admin.GET("/users", userHandler.ListUsers)
			admin.PUT("/users/:id/role", middleware.ExtractUintParam("id", "userID"), userHandler.ChangeRole)
		}

		courses := api.Group("/courses", requireAuth)
		{
			courses.GET("", courseHandler.ListCourses)
			courses.POST("", teacherOnly, courseHandler.CreateCourse)
			courses.POST("/enroll", studentOnly, courseHandler.Enroll)

			courseWithID := courses.Group("/:id", middleware.ExtractUintParam("id", "courseID"))
			{
				courseWithID.GET("/tests", courseHandler.ListTests)
				courseWithID.POST("/tests", teacherOnly, testHandler.CreateTest)
				courseWithID.GET("/students", teacherOnly, courseHandler.ListStudents)
				courseWithID.POST("/students", teacherOnly, courseHandler.EnrollStudent)
			}
		}

		tests := api.Group("/tests/:id", requireAuth, middleware.ExtractUintParam("id", "testID"))
		{
			tests.GET("", testHandler.GetTest)
			tests.PUT("", teacherOnly, testHandler.UpdateTest)
			tests.DELETE("/questions/:questionId/options/:index", teacherOnly,
				middleware.ExtractUintParam("questionId", "questionID"), testHandler.RemoveOption)
			tests.GET("/attempts", teacherOnly, testHandler.ListAttempts)
			tests.GET("/attempts/export", teacherOnly, testHandler.ExportAttempts)
			tests.POST("/sessions", studentOnly, sessionHandler.StartSession)
		}

		sessions := api.Group("/sessions/:sid", requireAuth, studentOnly)
		{
			sessions.GET("", sessionHandler.GetSession)
			sessions.POST("/answers", sessionHandler.Answer)
			sessions.POST("/navigate", sessionHandler.Navigate)
			sessions.POST("/submit", sessionHandler.Submit)
			sessions.DELETE("", sessionHandler.Abandon)
		}

		attempts := api.Group("/attempts", requireAuth)
		{
			attempts.GET("/my", studentOnly, attemptHandler.ListMine)
			attempts.GET("/:id", middleware.ExtractUintParam("id", "attemptID"), attemptHandler.GetAttempt)
		}

		api.GET("/students/me/stats", requireAuth, studentOnly, attemptHandler.Stats)
	}

	router.GET("/ws", wsHandler.HandleConnection)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("[Main] Запуск HTTP сервера")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("[Main] Ошибка HTTP сервера")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("[Main] Остановка сервера...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("[Main] Принудительная остановка сервера")
	}

	// Незавершенные сессии не отправляются: таймеры останавливаются вместе с процессом
	sessionManager.Shutdown()
	wsHub.Close()

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error().Err(err).Msg("[Main] Ошибка закрытия Redis")
		}
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Info().Msg("[Main] Сервер остановлен")
}

// requestLogger пишет строку access-лога через zerolog
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		event := log.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			event = log.Error()
		}
		event.Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("ip", c.ClientIP()).
			Msg("[HTTP]")
	}
}
