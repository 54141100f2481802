package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/renovo-dev/renovo/internal/config"
	"github.com/renovo-dev/renovo/internal/domain/blog"
	"github.com/renovo-dev/renovo/internal/domain/consultation"
	"github.com/renovo-dev/renovo/internal/domain/course"
	"github.com/renovo-dev/renovo/internal/domain/slider"
	"github.com/renovo-dev/renovo/internal/domain/testimonial"
	"github.com/renovo-dev/renovo/internal/domain/user"
	"github.com/renovo-dev/renovo/internal/platform/auth"
	"github.com/renovo-dev/renovo/internal/platform/blobstore"
	"github.com/renovo-dev/renovo/internal/platform/db"
	"github.com/renovo-dev/renovo/internal/platform/mailer"
	"github.com/renovo-dev/renovo/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "renovo-server",
		Short: "Renovo content site API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "" || os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Outbound email. Without an SMTP host the mock sender keeps the
	// fire-and-forget path exercised in development.
	var sender mailer.EmailSender
	if cfg.SMTPHost != "" {
		sender = &mailer.SMTPSender{Host: cfg.SMTPHost, Port: cfg.SMTPPort, From: cfg.SMTPFrom}
	} else {
		sender = &mailer.MockSender{}
		logger.Warn().Msg("SMTP not configured, using mock email sender")
	}
	mail := mailer.NewManager(sender, mailer.NewTemplateEngine(), logger)

	// Upload storage.
	uploads, err := blobstore.NewDiskStore(cfg.UploadDir, cfg.MaxUploadBytes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open upload storage")
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.BodyLimit(cfg.MaxUploadBytes + 1<<20))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// API groups. Public routes take no auth; authed routes require a
	// valid token; admin routes additionally require the admin role.
	api := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	api.Use(middleware.RateLimit(rateLimitCfg))

	public := api.Group("")
	var authMW echo.MiddlewareFunc
	if cfg.IsDev() && cfg.JWTSecret == "" {
		authMW = auth.DevAuthMiddleware()
		logger.Warn().Msg("JWT_SECRET not set, using development auth")
	} else {
		authMW = auth.JWTMiddleware([]byte(cfg.JWTSecret))
	}
	authed := api.Group("", authMW)
	admin := api.Group("/admin", authMW, auth.RequireAdmin())

	// Services
	userRepo := user.NewRepoPG(pool)
	userSvc := user.NewService(userRepo, mail, []byte(cfg.JWTSecret),
		time.Duration(cfg.JWTTTLMinutes)*time.Minute, logger)

	consultRepo := consultation.NewRepoPG(pool)
	consultSvc := consultation.NewService(consultRepo, mail, userSvc, logger)

	blogSvc := blog.NewService(blog.NewRepoPG(pool))
	courseSvc := course.NewService(course.NewRepoPG(pool))
	testimonialSvc := testimonial.NewService(testimonial.NewRepoPG(pool))
	sliderSvc := slider.NewService(slider.NewRepoPG(pool), uploads, logger)

	// Routes
	user.NewHandler(userSvc).RegisterRoutes(public, authed, admin)
	consultation.NewHandler(consultSvc).RegisterRoutes(authed, admin)
	blog.NewHandler(blogSvc).RegisterRoutes(public, admin)
	course.NewHandler(courseSvc).RegisterRoutes(public, admin)
	testimonial.NewHandler(testimonialSvc).RegisterRoutes(public, admin)
	slider.NewHandler(sliderSvc).RegisterRoutes(public, admin)
	blobstore.NewHandler(uploads).RegisterRoutes(public, admin)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}

	// Let in-flight notification emails finish before the pool closes.
	mail.Wait()
	logger.Info().Msg("server stopped")
	return nil
}
