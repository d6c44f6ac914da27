package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/creatoraide/configs"
	"github.com/maheshrc27/creatoraide/internal/api"
	job "github.com/maheshrc27/creatoraide/internal/jobs"
	"github.com/maheshrc27/creatoraide/internal/models"
	"github.com/maheshrc27/creatoraide/internal/queue"
	"github.com/maheshrc27/creatoraide/internal/repository"
	"github.com/maheshrc27/creatoraide/internal/service"
)

type repositories struct {
	users    repository.UserRepository
	keys     repository.ApiKeyRepository
	accounts repository.SocialAccountRepository
	drafts   repository.ContentDraftRepository
	media    repository.MediaFileRepository
	posts    repository.ScheduledPostRepository
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()
	setupLogger(cfg)

	if len(cfg.SecretKey) < 32 {
		log.Fatal("SECRET_KEY must be at least 32 characters")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var db *sql.DB
	var repos repositories
	if cfg.PostgresURI != "" {
		db = openDB(cfg.PostgresURI)
		defer closeDB(db)
		repos = repositories{
			users:    repository.NewUserRepository(db),
			keys:     repository.NewApiKeyRepository(db),
			accounts: repository.NewSocialAccountRepository(db),
			drafts:   repository.NewContentDraftRepository(db),
			media:    repository.NewMediaFileRepository(db),
			posts:    repository.NewScheduledPostRepository(db),
		}
	} else {
		slog.Warn("POSTGRES_URI is not set, using the in-memory store")
		repos = repositories{
			users:    repository.NewMemoryUserRepository(),
			keys:     repository.NewMemoryApiKeyRepository(),
			accounts: repository.NewMemorySocialAccountRepository(),
			drafts:   repository.NewMemoryContentDraftRepository(),
			media:    repository.NewMemoryMediaFileRepository(),
			posts:    repository.NewMemoryScheduledPostRepository(),
		}
	}

	var storage service.ObjectStorage
	if cfg.R2Enabled() {
		r2, err := service.NewR2Service(ctx, cfg.R2)
		if err != nil {
			log.Fatalf("Failed to configure R2: %v", err)
		}
		storage = r2
	} else {
		slog.Warn("R2 is not configured, media uploads are disabled")
	}

	tiktokService := service.NewTiktokService(*cfg, repos.accounts)
	youtubeService := service.NewYoutubeService(*cfg, repos.accounts)

	publishers := service.Publishers{
		models.PlatformTiktok:  service.WithBreaker(models.PlatformTiktok, tiktokService),
		models.PlatformYoutube: service.WithBreaker(models.PlatformYoutube, youtubeService),
	}
	connectors := map[string]service.AccountConnector{
		models.PlatformTiktok:  tiktokService,
		models.PlatformYoutube: youtubeService,
	}

	schedulerService := service.NewSchedulerService(
		repos.posts, repos.drafts, repos.media, repos.accounts, publishers,
		service.SchedulerOptions{
			PublishTimeout:     cfg.Scheduler.PublishTimeout,
			PublishConcurrency: cfg.Scheduler.PublishConcurrency,
			SweepBatchSize:     cfg.Scheduler.SweepBatchSize,
			StaleClaimAfter:    cfg.Scheduler.StaleClaimAfter,
			SimulatePublishing: cfg.Scheduler.SimulatePublishing,
		})
	platformService := service.NewPlatformService(repos.accounts, connectors)

	services := api.Services{
		Auth:      service.NewAuthService(*cfg, repos.users),
		User:      service.NewUserService(repos.users),
		ApiKeys:   service.NewApiKeyService(repos.keys),
		Platforms: platformService,
		Scheduler: schedulerService,
		Drafts:    service.NewDraftService(repos.drafts),
		Media:     service.NewMediaService(repos.media, repos.drafts, storage),
	}

	//queue
	var asynqServer *asynq.Server
	if cfg.RedisURI != "" {
		redisConn, err := asynq.ParseRedisURI(redisURI(cfg.RedisURI))
		if err != nil {
			log.Fatalf("Invalid REDIS_URI: %v", err)
		}
		client := asynq.NewClient(redisConn)
		defer client.Close()
		services.Queue = queue.NewQueue(client)

		asynqServer = asynq.NewServer(redisConn, asynq.Config{
			Concurrency: cfg.Scheduler.PublishConcurrency,
		})
		mux := asynq.NewServeMux()
		queue.NewWorker(schedulerService).Register(mux)

		go func() {
			slog.Info("Starting the Asynq server...")
			if err := asynqServer.Run(mux); err != nil {
				log.Fatalf("Could not start Asynq server: %v", err)
			}
		}()
	} else {
		slog.Warn("REDIS_URI is not set, posts are published by the sweep only")
	}

	// cron jobs
	c, err := job.NewCron(
		job.NewPublishSweepJob(ctx, schedulerService), cfg.Scheduler.SweepInterval,
		job.NewTokenRefreshJob(platformService, cfg.Scheduler.TokenRefreshWindow), 10*time.Minute,
	)
	if err != nil {
		log.Fatalf("Failed to schedule jobs: %v", err)
	}
	c.Start()

	app := api.NewApp(*cfg, services)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	slog.Info(fmt.Sprintf("Server is running on http://localhost:%s", cfg.Port))

	gracefulShutdown(app, cancel, func() {
		<-c.Stop().Done()
		if asynqServer != nil {
			asynqServer.Shutdown()
		}
	})
}

func setupLogger(cfg *config.Config) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func openDB(uri string) *sql.DB {
	db, err := sql.Open("postgres", uri)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	version, err := repository.RunMigrations(db)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("database migrated", "version", version)
	return db
}

// redisURI accepts both a bare host:port and a redis:// URI.
func redisURI(v string) string {
	if strings.Contains(v, "://") {
		return v
	}
	return "redis://" + v
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, cancel context.CancelFunc, stopWorkers func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	slog.Info("Shutting down server...")

	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		slog.Error("Failed to shut down server", "error", err)
	}

	stopWorkers()
	cancel()
	slog.Info("Server shutdown complete.")
}
