package main

import (
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"reviewhub/database"
	"reviewhub/internal/config"
	"reviewhub/internal/http-api/cache"
	"reviewhub/internal/http-api/handler"
	"reviewhub/internal/http-api/middleware"
	"reviewhub/internal/http-api/repository"
	"reviewhub/internal/http-api/service"
	"reviewhub/internal/mail"
)

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := newLogger(cfg)

	db, err := database.ConnectDB(cfg, logger)
	if err != nil {
		log.Fatalf("could not connect to database: %v", err)
	}

	titleCache, err := cache.NewTitleCache(cfg.RedisURL, cfg.RedisPassword, time.Duration(cfg.CacheTTL)*time.Second)
	if err != nil {
		log.Fatalf("could not connect to redis: %v", err)
	}

	var mailer mail.Mailer
	if cfg.SMTPAddr != "" {
		mailer = mail.NewSMTPMailer(cfg.SMTPAddr, cfg.MailFrom)
	} else {
		mailer = mail.NewLogMailer(logger)
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepo(db)
	genreRepo := repository.NewGenreRepo(db)
	titleRepo := repository.NewTitleRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	// Services
	codes := service.NewCodeGenerator(cfg.JWTSecret, cfg.ConfirmationCodeTTL)
	authService := service.NewAuthService(userRepo, codes, mailer, logger, cfg)
	userService := service.NewUserService(userRepo)
	categoryService := service.NewCategoryService(categoryRepo)
	genreService := service.NewGenreService(genreRepo)
	titleService := service.NewTitleService(titleRepo, categoryRepo, genreRepo, titleCache)
	reviewService := service.NewReviewService(reviewRepo, titleRepo, titleCache)
	commentService := service.NewCommentService(commentRepo, reviewRepo, titleRepo)

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	categoryHandler := handler.NewCategoryHandler(categoryService)
	genreHandler := handler.NewGenreHandler(genreService)
	titleHandler := handler.NewTitleHandler(titleService)
	reviewHandler := handler.NewReviewHandler(reviewService)
	commentHandler := handler.NewCommentHandler(commentService)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	r.GET("/check-conn", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "API is alive and database connected"})
	})

	api := r.Group("/api/v1")

	// Signup/token handshake: anonymous, throttled per client IP.
	authLimiter := middleware.NewRateLimiter(rate.Every(time.Second), 10)
	defer authLimiter.Stop()
	auth := api.Group("/auth", authLimiter.Middleware())
	authHandler.RegisterRoutes(auth)

	// Users: /me for any authenticated caller, the rest admin-only.
	users := api.Group("/users", middleware.AuthMiddleware(authService))
	userHandler.RegisterRoutes(users)

	// Taxonomy and titles: open reads, admin writes.
	categories := api.Group("/categories", middleware.OptionalAuthMiddleware(authService))
	categoryHandler.RegisterRoutes(categories)
	genres := api.Group("/genres", middleware.OptionalAuthMiddleware(authService))
	genreHandler.RegisterRoutes(genres)
	titles := api.Group("/titles", middleware.OptionalAuthMiddleware(authService))
	titleHandler.RegisterRoutes(titles)

	// Reviews and comments nest under titles; reads are open.
	reviewHandler.RegisterRoutes(titles)
	commentHandler.RegisterRoutes(titles)

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	logger.Info("starting api server", "addr", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
