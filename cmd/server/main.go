package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/fanpost/fanpost/configs"
	"github.com/fanpost/fanpost/internal/api/handlers"
	"github.com/fanpost/fanpost/internal/api/middleware"
	job "github.com/fanpost/fanpost/internal/jobs"
	"github.com/fanpost/fanpost/internal/publisher"
	"github.com/fanpost/fanpost/internal/queue"
	"github.com/fanpost/fanpost/internal/repository"
	"github.com/fanpost/fanpost/internal/scheduler"
	"github.com/fanpost/fanpost/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron"
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

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatalf("Failed to create upload directory: %v", err)
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
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	app.Static("/uploads", cfg.UploadDir)

	userRepo := repository.NewUserRepository(db)
	intentRepo := repository.NewIntentRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	dispatcher := publisher.NewDispatcher(
		publisher.NewFacebookAdapter(cfg.MediaBaseURL()),
		publisher.NewTelegramAdapter(),
		publisher.NewTikTokAdapter(cfg.MediaBaseURL()),
		publisher.NewStubAdapter("instagram"),
		publisher.NewStubAdapter("youtube"),
	)

	authService := service.NewAuthService(*cfg, userRepo)
	userService := service.NewUserService(userRepo)
	r2Service := service.NewR2Service(cfg.R2)
	mediaService := service.NewMediaService(cfg.UploadDir, r2Service)
	settingsService := service.NewSettingsService(settingsRepo, cfg.SecretKey)
	postService := service.NewPostService(intentRepo, settingsService, mediaService, dispatcher)

	sched := scheduler.New(intentRepo, settingsService, dispatcher)
	sched.Start()
	defer sched.Stop()

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	auth := handlers.NewAuthHandler(*cfg, authService)
	app.Get("/login", auth.Login)
	app.Get("/login/callback", auth.LoginCallbackHandler)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	user := handlers.NewUserHandler(userService)
	api.Get("/user/info", user.GetUserInfo)

	settings := handlers.NewSettingsHandler(settingsService)
	api.Get("/settings/info", settings.GetSettingsInfo)
	api.Post("/settings/update", settings.UpdateCredentials)
	api.Post("/settings/remove", settings.RemoveCredentials)

	post := handlers.NewPostHandler(postService, client)
	api.Post("/posts/publish", post.PublishNow)
	api.Post("/posts/schedule", post.SchedulePost)
	api.Get("/posts/scheduled", post.ListScheduled)
	api.Post("/posts/scheduled/remove", post.CancelScheduled)

	// cron jobs
	cleanupJob := job.NewMediaCleanupJob(intentRepo, mediaService)

	c := cron.New()
	c.AddFunc("@every 00h10m00s", cleanupJob.Run)
	c.Start()

	go func() {
		worker := queue.NewWorker(sched)

		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypePublishIntent, worker.HandlePublishIntentTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, sched, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, sched *scheduler.Scheduler, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	sched.Stop()
	closeDB(db)
	log.Println("Server shutdown complete.")
}
