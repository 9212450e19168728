package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/threadflow/configs"
	"github.com/maheshrc27/threadflow/internal/api/handlers"
	"github.com/maheshrc27/threadflow/internal/api/middleware"
	job "github.com/maheshrc27/threadflow/internal/jobs"
	"github.com/maheshrc27/threadflow/internal/queue"
	"github.com/maheshrc27/threadflow/internal/repository"
	"github.com/maheshrc27/threadflow/internal/service"
	"github.com/maheshrc27/threadflow/internal/threads"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()
	switch len(cfg.SecretKey) {
	case 16, 24, 32:
	default:
		log.Fatal("SECRET_KEY must be 16, 24 or 32 bytes")
	}

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	version, err := repository.Migrate(db)
	if err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Printf("Database schema at version %d", version)

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Minute,
		WriteTimeout: 5 * time.Minute,
		BodyLimit:    10 * 1024 * 1024, // 10 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-API-Key",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	personaRepo := repository.NewPersonaRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)
	apiKeyRepo := repository.NewApiKeyRepository(db)
	autoReplyRepo := repository.NewAutoReplyRepository(db)
	threadReplyRepo := repository.NewThreadReplyRepository(db)

	threadsClient := threads.NewClient(cfg.Threads.APIBaseURL, nil)
	threadsOAuth := threads.OAuthConfig(cfg.Threads.AppID, cfg.Threads.AppSecret, cfg.Threads.RedirectURI)
	cipher := service.NewTokenCipher(cfg.SecretKey)

	activity := service.NewActivityLogger(activityRepo)
	scanner := service.NewScanner(postRepo, cipher)
	autoScheduler := service.NewAutoScheduler(postRepo, settingsRepo, activity)
	dispatcher := service.NewDispatcher(scanner, postRepo, settingsRepo, threadsClient, activity, autoScheduler, cfg.DispatchConcurrency)

	authService := service.NewAuthService(*cfg, userRepo)
	userService := service.NewUserService(userRepo, personaRepo, postRepo)
	apiKeyService := service.NewApiKeyService(apiKeyRepo)
	postService := service.NewPostService(postRepo, personaRepo)
	publishService := service.NewPublishService(postRepo, personaRepo, threadsClient, cipher, activity)
	personaService := service.NewPersonaService(personaRepo, threadsClient, threadsOAuth, cipher, activity, cfg.SecretKey)
	settingsService := service.NewSettingsService(settingsRepo, personaRepo)
	replyService := service.NewReplyService(personaRepo, autoReplyRepo, threadReplyRepo,
		newDecider(cfg), threadsClient, cipher, activity)

	authMiddleware := middleware.NewAuthMiddleware(*cfg, apiKeyService)

	auth := handlers.NewAuthHandler(*cfg, authService)
	app.Get("/login", auth.Login)
	app.Get("/login/callback", auth.LoginCallbackHandler)
	app.Post("/logout", auth.Logout)

	persona := handlers.NewPersonaHandler(personaService, *cfg)
	app.Get("/auth/threads", authMiddleware.AuthMiddleware(), persona.Connect)
	app.Get("/auth/threads/callback", persona.Callback)

	dispatch := handlers.NewDispatchHandler(dispatcher)
	app.Post("/internal/dispatch", middleware.ServiceKey(cfg.ServiceKey), dispatch.RunPass)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	user := handlers.NewUserHandler(userService)
	api.Get("/user/info", user.GetUserInfo)

	apiKeys := handlers.NewApiKeyHandler(apiKeyService)
	api.Post("/api_key/new", apiKeys.CreateApiKey)
	api.Get("/api_key/list", apiKeys.ListKeys)
	api.Post("/api_key/remove", apiKeys.RemoveAPIKey)

	post := handlers.NewPostHandler(postService, publishService)
	api.Post("/posts", post.CreatePost)
	api.Get("/posts", post.ListPosts)
	api.Get("/posts/:id", post.GetPost)
	api.Put("/posts/:id", post.UpdatePost)
	api.Delete("/posts/:id", post.RemovePost)
	api.Post("/posts/:id/publish", post.PublishPost)
	api.Post("/posts/:id/reset", post.ResetPost)

	api.Get("/personas", persona.ListPersonas)
	api.Post("/personas", persona.CreatePersona)
	api.Put("/personas/:id", persona.UpdatePersona)
	api.Delete("/personas/:id", persona.DeletePersona)
	api.Get("/personas/:id/profile", persona.GetProfile)
	api.Post("/personas/:id/disconnect", persona.Disconnect)

	settings := handlers.NewSettingsHandler(settingsService)
	api.Get("/personas/:id/settings", settings.GetSettingsInfo)
	api.Put("/personas/:id/settings", settings.UpdateSettings)

	activityHandler := handlers.NewActivityHandler(activity)
	api.Get("/activity", activityHandler.ListActivity)

	replies := handlers.NewReplyHandler(replyService, client)
	api.Post("/replies", replies.ReceiveReply)
	api.Get("/auto_replies", replies.ListRules)
	api.Post("/auto_replies", replies.CreateRule)
	api.Delete("/auto_replies/:id", replies.RemoveRule)

	if store, err := service.NewR2Store(context.Background(), cfg.R2); err != nil {
		log.Printf("Warning: media uploads disabled: %v", err)
	} else {
		media := handlers.NewMediaHandler(service.NewMediaService(store))
		api.Post("/media", media.UploadImage)
	}

	// cron jobs
	dispatchJob := job.NewDispatchJob(client, scheduleInterval(cfg.DispatchSchedule))
	refreshTokenJob := job.NewTokenRefreshJob(personaService)

	c := cron.New()
	if err := c.AddFunc(cfg.DispatchSchedule, dispatchJob.Tick); err != nil {
		log.Fatalf("Invalid DISPATCH_SCHEDULE %q: %v", cfg.DispatchSchedule, err)
	}
	c.AddFunc("@every 01h00m00s", refreshTokenJob.RefreshTokens)
	c.Start()

	//queue
	queueW := queue.NewQueue(dispatcher, replyService)

	server := asynq.NewServer(redisConn, asynq.Config{
		Concurrency: 10,
	})
	go func() {
		mux := asynq.NewServeMux()
		queueW.Register(mux)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on http://localhost:%s", cfg.Port)

	gracefulShutdown(app, server, c, db)
}

// newDecider puts keyword rules first and falls back to Gemini when a key is set.
func newDecider(cfg *config.Config) service.Decider {
	chain := service.DeciderChain{service.KeywordDecider{}}

	gen, err := service.NewGeminiGenerator(context.Background(), cfg.Gemini.APIKey, cfg.Gemini.Model)
	if err != nil {
		log.Printf("Warning: AI replies disabled: %v", err)
		return chain
	}
	return append(chain, service.NewGeminiDecider(gen))
}

// scheduleInterval reads the period of an "@every" cron spec. Other specs
// fall back to one minute.
func scheduleInterval(spec string) time.Duration {
	every, ok := strings.CutPrefix(spec, "@every ")
	if !ok {
		return time.Minute
	}
	d, err := time.ParseDuration(strings.TrimSpace(every))
	if err != nil || d <= 0 {
		return time.Minute
	}
	return d
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, server *asynq.Server, c *cron.Cron, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	c.Stop()
	server.Shutdown()

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
