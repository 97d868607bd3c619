package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"showtalk/internal/config"
	"showtalk/internal/db"
	"showtalk/internal/logging"
	"showtalk/internal/middleware"
	"showtalk/internal/router"
	"showtalk/internal/services"
	"showtalk/internal/views"
)

const version = "0.1.0"

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found, reading env vars from system")
	}

	app := &cli.App{
		Name:    "showtalk",
		Usage:   "Threaded discussions for shows, seasons and episodes",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE` (default: ./showtalk.toml, ~/.showtalk.toml)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP server",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "Create or update the database schema and seed reaction types",
				Action: migrate,
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("showtalk exited")
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Pretty)
	return cfg, nil
}

func migrate(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	conn, err := db.Open(cfg)
	if err != nil {
		return err
	}
	return db.Migrate(conn)
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	// Initialize Database
	conn, err := db.Init(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 初始化异步热度服务
	activity := services.NewActivityService(conn)
	activity.Start(ctx)

	mail := services.NewMailService(cfg)
	notifications := services.NewNotificationService(conn, mail, cfg.Site.URL)
	comments := services.NewCommentService(conn, activity, notifications)
	discussions := services.NewDiscussionService(conn)

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery(), logging.Middleware(), middleware.Metrics())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.Origins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: !containsWildcard(cfg.CORS.Origins),
	}))

	// Load Templates using Multitemplate to avoid collision and allow handler names
	renderer, err := views.Load(cfg.Server.TemplatesDir)
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}
	r.HTMLRender = renderer
	r.Static("/static", "./web/static")

	router.RegisterRoutes(r, router.Deps{
		DB:            conn,
		Auth:          middleware.NewAuthenticator(conn, cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.Audience),
		Limiter:       middleware.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst),
		Comments:      comments,
		Discussions:   discussions,
		Notifications: notifications,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("showtalk server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
