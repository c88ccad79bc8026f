package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron"

	config "github.com/velvetqueue/velvetqueue/configs"
	"github.com/velvetqueue/velvetqueue/internal/api/handlers"
	"github.com/velvetqueue/velvetqueue/internal/api/middleware"
	job "github.com/velvetqueue/velvetqueue/internal/jobs"
	"github.com/velvetqueue/velvetqueue/internal/queue"
	"github.com/velvetqueue/velvetqueue/internal/repository"
	"github.com/velvetqueue/velvetqueue/internal/scheduler"
	"github.com/velvetqueue/velvetqueue/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-API-Key",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	postRepo := repository.NewPostRepository(db)
	channelRepo := repository.NewChannelRepository(db)
	assetRepo := repository.NewAssetRepository(db)

	credResolver := service.NewCredentialResolver(*cfg, channelRepo)
	hostingService := service.NewHostingService(*cfg)
	instagramPublisher := service.NewInstagramPublisher(*cfg)
	publishService := service.NewPublishService(
		postRepo, assetRepo, channelRepo,
		credResolver, hostingService, instagramPublisher,
		cfg.ProcessingWaitDuration())
	postService := service.NewPostService(postRepo)
	channelService := service.NewChannelService(*cfg, channelRepo)
	r2Service := service.NewR2Service(*cfg)
	assetService := service.NewAssetService(*cfg, assetRepo, r2Service)
	assistantService := service.NewAssistantService(*cfg)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	if cfg.AdminAPIKey != "" {
		auth := handlers.NewAuthHandler(*cfg)
		app.Post("/auth/token", auth.IssueToken)
	}

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	post := handlers.NewPostHandler(postService, publishService)
	api.Post("/posts", post.CreatePost)
	api.Get("/posts", post.ListPosts)
	api.Get("/posts/calendar", post.Calendar)
	api.Get("/posts/:id", post.GetPost)
	api.Put("/posts/:id", post.UpdatePost)
	api.Post("/posts/:id/publish", post.PublishPost)
	api.Post("/posts/:id/schedule", post.SchedulePost)

	channel := handlers.NewChannelHandler(channelService)
	api.Get("/channels", channel.ListChannels)
	api.Post("/channels/connect", channel.ConnectChannel)

	asset := handlers.NewAssetHandler(assetService)
	api.Get("/assets", asset.ListAssets)
	api.Post("/assets/upload", asset.UploadAsset)

	ai := handlers.NewAIHandler(assistantService)
	api.Post("/ai/caption", ai.GenerateCaption)
	api.Post("/ai/hashtags", ai.SuggestHashtags)
	api.Post("/ai/repurpose", ai.Repurpose)

	// local media files, served for the compose UI
	app.Static("/"+cfg.MediaDir, cfg.MediaDir)

	c := cron.New()
	staleClaimJob := job.NewStaleClaimJob(postRepo, 30*time.Minute)
	if err := c.AddFunc("@every 0h10m0s", staleClaimJob.ReleaseStale); err != nil {
		log.Fatalf("Failed to register stale claim job: %v", err)
	}
	if cfg.SchedulerEnabled {
		sched := scheduler.New(postRepo, queue.NewDispatcher(client))
		spec := fmt.Sprintf("@every %ds", cfg.SchedulerInterval)
		if err := c.AddFunc(spec, sched.Tick); err != nil {
			log.Fatalf("Failed to register scheduler: %v", err)
		}
		log.Printf("Scheduler running every %ds", cfg.SchedulerInterval)
	} else {
		log.Println("Scheduler disabled via SCHEDULER_ENABLED")
	}
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		queueW := queue.NewQueue(publishService)
		mux.HandleFunc(queue.TaskTypePublishPost, queueW.HandlePublishPostTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(cfg.ListenAddr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on %s", cfg.ListenAddr)

	gracefulShutdown(app, db, c)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB, c *cron.Cron) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	c.Stop()
	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
