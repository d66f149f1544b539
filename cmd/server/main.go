package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/lib/pq"

	"github.com/todmy/project-grader/internal/api"
	"github.com/todmy/project-grader/internal/auth"
	"github.com/todmy/project-grader/internal/config"
	"github.com/todmy/project-grader/internal/grader"
	"github.com/todmy/project-grader/internal/history"
	"github.com/todmy/project-grader/internal/notify"
	"github.com/todmy/project-grader/internal/stats"
	"github.com/todmy/project-grader/internal/survey"
)

func main() {
	cfgPath := os.Getenv("CONFIG_FILE")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var (
		store history.Store
		users auth.UserRepository
	)

	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		db, err := sql.Open("postgres", cfg.Storage.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := db.Ping(); err != nil {
			log.Fatalf("Failed to ping database: %v", err)
		}

		store = history.NewPostgresStore(db)
		users = auth.NewPostgresRepository(db)
	default:
		store = history.NewJSONStore(cfg.Storage.HistoryFile)
		users = auth.NewJSONRepository(usersFilePath(cfg.Storage.HistoryFile))
	}

	authCfg := auth.DefaultConfig()
	if cfg.Auth.JWTSecret != "" {
		authCfg.SecretKey = cfg.Auth.JWTSecret
	}
	authService := auth.NewJWTService(authCfg, users)

	var graderOpts []grader.Option
	if cfg.AI.BaseURL != "" {
		graderOpts = append(graderOpts, grader.WithBaseURL(cfg.AI.BaseURL))
	}
	if cfg.AI.Model != "" {
		graderOpts = append(graderOpts, grader.WithModel(cfg.AI.Model))
	}
	graderOpts = append(graderOpts, grader.WithTimeout(90*time.Second))
	graderClient := grader.NewClient(cfg.AI.APIKey, graderOpts...)

	notifier := notify.NewNotifier(notify.EmailConfig{
		Host:     cfg.Email.Host,
		Port:     cfg.Email.Port,
		Sender:   cfg.Email.Sender,
		Password: cfg.Email.Password,
	})

	surveys := survey.NewStore(cfg.Storage.SurveyFile)
	statsService := stats.NewService(store)

	server := api.NewServer(store, statsService, graderClient, notifier, surveys, authService, users)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Starting project-grader server on %s (storage: %s)", addr, cfg.Storage.Backend)
	if err := server.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// usersFilePath puts users.json next to the history file.
func usersFilePath(historyFile string) string {
	return filepath.Join(filepath.Dir(historyFile), "users.json")
}
