// @title TaskPilot Backend API
// @version 1.0
// @description TaskPilot Backend API for multi-user task tracking
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/cors"

	_ "TASKPILOT_BACK-END/docs" // This is required for swagger
	"TASKPILOT_BACK-END/internal/config"
	"TASKPILOT_BACK-END/internal/handlers"
	"TASKPILOT_BACK-END/internal/migrations"
	"TASKPILOT_BACK-END/internal/repository"
	"TASKPILOT_BACK-END/internal/routes"
	"TASKPILOT_BACK-END/internal/session"
	"TASKPILOT_BACK-END/internal/storage"
	"TASKPILOT_BACK-END/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// pgxpool + simple protocol (needed when connecting through PgBouncer)
	poolCfg, err := pgxpool.ParseConfig(cfg.GetDSN())
	if err != nil {
		log.Fatalf("parse dsn: %v", err)
	}
	poolCfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	poolCfg.ConnConfig.RuntimeParams["application_name"] = "taskpilot-backend"
	poolCfg.ConnConfig.RuntimeParams["statement_timeout"] = "30000" // 30s
	poolCfg.MaxConns = cfg.Database.MaxConns
	poolCfg.MinConns = cfg.Database.MinConns
	poolCfg.MaxConnLifetime = cfg.Database.MaxLifetime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	{
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			log.Fatalf("ping: %v", err)
		}
	}

	if err := runMigrations(cfg.GetDSN()); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	// Repositories and services
	userRepo := repository.NewPostgresUserRepository(pool)
	sessionRepo := repository.NewPostgresSessionRepository(pool)
	taskRepo := repository.NewPostgresTaskRepository(pool)
	verificationRepo := repository.NewPostgresVerificationRepository(pool)

	sessions := session.NewManager(sessionRepo, userRepo, cfg.Session.TTL, cfg.IsProduction())
	storageClient := storage.NewB2Client(&cfg.Storage)
	emailService := utils.NewEmailService(&cfg.Email)

	// HTTP handlers
	h := routes.Handlers{
		Auth:           handlers.NewAuthHandler(userRepo, sessions),
		GoogleAuth:     handlers.NewGoogleAuthHandler(userRepo, sessions, &cfg.GoogleOAuth),
		ForgotPassword: handlers.NewForgotPasswordHandler(userRepo, verificationRepo, emailService, &cfg.JWT),
		Tasks:          handlers.NewTasksHandler(taskRepo),
		Files:          handlers.NewFilesHandler(storageClient, &cfg.Storage),
		Health:         handlers.NewHealthHandler(pool),
	}

	mux := routes.SetupRoutes(h, sessions)

	// CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           c.Handler(mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("HTTP server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	// Wait for SIGINT/SIGTERM, then shut down gracefully
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped.")
}

// runMigrations applies the embedded goose migrations over a database/sql
// connection (goose needs *sql.DB, so we open a short-lived one via the pgx
// stdlib driver).
func runMigrations(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(db, ".")
}
