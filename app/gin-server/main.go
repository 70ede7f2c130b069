package main

import (
	"context"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/openhire/jobboard/config"
	"github.com/openhire/jobboard/internal/api/handlers"
	"github.com/openhire/jobboard/internal/api/middleware"
	"github.com/openhire/jobboard/internal/api/routes"
	"github.com/openhire/jobboard/internal/cache"
	"github.com/openhire/jobboard/internal/logger"
	"github.com/openhire/jobboard/internal/mailer"
	"github.com/openhire/jobboard/internal/metrics"
	"github.com/openhire/jobboard/internal/queue"
	mongorepo "github.com/openhire/jobboard/internal/repositories/mongo"
	"github.com/openhire/jobboard/internal/services"
	"github.com/openhire/jobboard/internal/workers"
)

func main() {
	_ = godotenv.Load()

	log := logger.New()

	// Init MongoDB
	if err := config.InitMongo(); err != nil {
		log.WithError(err).Fatal("MongoDB init error")
	}
	if err := config.EnsureMongoIndexes(); err != nil {
		log.WithError(err).Fatal("MongoDB index error")
	}
	log.Info("MongoDB connected")

	// Init Redis
	if err := config.InitRedis(); err != nil {
		log.WithError(err).Fatal("Redis init error")
	}
	log.Info("Redis connected")

	db := config.MongoDatabase()
	users := mongorepo.NewUserRepo(db)
	jobs := mongorepo.NewJobRepo(db)
	apps := mongorepo.NewApplicationRepo(db)

	redisCache := cache.NewRedisCache(config.RedisClient)
	stats := metrics.NewCollector()

	// Mail
	mailCfg := mailer.ConfigFromEnv()
	var sender mailer.Sender
	if !mailCfg.DevMode() {
		s, err := mailer.NewResendSender()
		if err != nil {
			log.WithError(err).Fatal("mail sender init error")
		}
		sender = s
	}
	dispatcher := mailer.NewDispatcher(mailCfg, sender, log).WithMetrics(stats)

	// Outbound notifications go through the dispatcher directly, or
	// through the redis stream when the worker pool is enabled.
	var notifier services.Notifier = dispatcher
	if os.Getenv("MAIL_QUEUE_ENABLED") == "true" {
		notifier = queue.NewPublisher(config.RedisClient, "")

		n, _ := strconv.Atoi(os.Getenv("MAIL_QUEUE_WORKERS"))
		pool := &workers.MailWorkerPool{
			Redis:      config.RedisClient,
			Dispatcher: dispatcher,
			NumWorkers: n,
			Logger:     log,
		}
		if err := pool.Start(context.Background()); err != nil {
			log.WithError(err).Fatal("mail worker pool error")
		}
		log.Info("mail worker pool started")
	}

	userSvc := services.NewUserService(users, jobs, apps, redisCache, notifier, log)
	jobSvc := services.NewJobService(jobs, redisCache, log)
	appSvc := services.NewApplicationService(apps, jobs, users, notifier, log, stats)
	adminSvc := services.NewAdminService(users, jobs, apps, log)

	// Start Gin server
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))

	routes.RegisterRoutes(r, routes.Deps{
		Auth:         handlers.NewAuthHandler(userSvc),
		Users:        handlers.NewUserHandler(userSvc),
		Jobs:         handlers.NewJobHandler(jobSvc),
		Applications: handlers.NewApplicationHandler(appSvc),
		Admin:        handlers.NewAdminHandler(adminSvc),
		Metrics:      stats.Handler(),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.WithError(err).Fatal("server error")
	}
}
