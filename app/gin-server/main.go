package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/interviewer/config"
	"github.com/yoockh/interviewer/internal/api/handlers"
	"github.com/yoockh/interviewer/internal/api/middleware"
	"github.com/yoockh/interviewer/internal/api/routes"
	"github.com/yoockh/interviewer/internal/bootstrap"
	"github.com/yoockh/interviewer/internal/events"
	"github.com/yoockh/interviewer/internal/logger"
	"github.com/yoockh/interviewer/internal/providers/stt"
	"github.com/yoockh/interviewer/internal/services"
	"github.com/yoockh/interviewer/internal/storage"
	"github.com/yoockh/interviewer/internal/workers"
)

func main() {
	_ = godotenv.Load()
	log := logger.New()

	cfg, err := config.LoadApp()
	if err != nil {
		log.WithError(err).Fatal("config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := bootstrap.Postgres(cfg)
	if err != nil {
		log.WithError(err).Fatal("PostgreSQL init error")
	}
	log.Info("PostgreSQL connected")

	if bootstrap.NeedsRedis(cfg) {
		if err := config.InitRedis(); err != nil {
			log.WithError(err).Fatal("Redis init error")
		}
		defer config.RedisClient.Close()
		log.Info("Redis connected")
	}

	store, err := bootstrap.SessionStore(cfg)
	if err != nil {
		log.WithError(err).Fatal("session store init error")
	}
	if config.MongoClient != nil {
		defer func() { _ = config.MongoClient.Disconnect(context.Background()) }()
	}
	log.WithField("backend", cfg.SessionBackend).Info("session store ready")

	provider, err := bootstrap.LLM(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("completion provider init error")
	}
	defer provider.Close()

	repos := bootstrap.NewRepos(db)
	ratings := services.NewRatingService(provider, repos.Interviews, repos.Messages, log, services.RatingConfig{
		MaxAttempts: cfg.RatingMaxAttempts,
		Backoff:     cfg.RatingBackoff,
	})

	// rating workers outlive the request context so queued jobs can drain
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	var (
		dispatcher  services.RatingDispatcher
		stopWorkers func()
	)
	switch cfg.RatingQueue {
	case "redis":
		pool := &workers.RatingWorkerPool{
			Redis:      config.RedisClient,
			Ratings:    ratings,
			NumWorkers: cfg.RatingWorkers,
			Logger:     log,
		}
		if err := pool.Start(workerCtx); err != nil {
			log.WithError(err).Fatal("rating worker pool")
		}
		dispatcher = &workers.RedisStreamQueue{Redis: config.RedisClient}
		stopWorkers = func() {
			cancelWorkers()
			pool.Wait()
		}
	default:
		q := workers.NewInProcessQueue(ratings, cfg.RatingWorkers, 0, log)
		q.Start(workerCtx)
		dispatcher = q
		stopWorkers = q.Close
	}

	var bus events.Bus = events.NewMemoryBus()
	if config.RedisClient != nil {
		bus = events.NewRedisBus(config.RedisClient)
	}

	registry := services.NewSessionRegistry(store, repos.Employers, repos.Interviews, repos.Messages, repos.Roles, log)
	interviews := services.NewInterviewService(registry, repos.Interviews, repos.Messages, provider, services.MarkerParser{}, dispatcher, bus, log, services.InterviewConfig{
		StageLimits:     cfg.StageLimits,
		TurnMaxAttempts: cfg.TurnMaxAttempts,
		TurnRetryDelay:  cfg.TurnRetryDelay,
	})
	links := services.NewLinkService(repos.Employers, repos.Roles, repos.Interviews, bootstrap.LinkSecret(cfg, log), cfg.LinkTTL, cfg.PublicBaseURL)
	roles := services.NewRoleService(repos.Employers, repos.Roles, provider, log)
	admin := services.NewAdminService(repos.Employers, repos.Interviews, repos.Messages)

	var speech stt.Provider
	if cfg.SpeechEnabled {
		gs, err := stt.NewGoogleSpeech(ctx, cfg.GoogleCredentialsFile)
		if err != nil {
			log.WithError(err).Fatal("speech client init error")
		}
		defer gs.Close()
		speech = gs
	}
	var archive storage.Uploader
	if cfg.AudioBucket != "" {
		up, err := storage.NewGCSUploader(ctx, cfg.AudioBucket, cfg.GoogleCredentialsFile)
		if err != nil {
			log.WithError(err).Fatal("audio bucket init error")
		}
		defer up.Close()
		archive = up
	}

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))
	routes.RegisterRoutes(r, routes.Deps{
		Interview: handlers.NewInterviewHandler(interviews, links),
		Voice:     handlers.NewVoiceHandler(interviews, links, speech, archive, log),
		WS:        handlers.NewWSHandler(interviews, links, admin, bus, cfg.CORSOrigins, log),
		Admin:     handlers.NewAdminHandler(admin, links),
		Roles:     handlers.NewRoleHandler(roles),
		Limiter:   middleware.NewIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes.WithCORS(r, cfg.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"port":          cfg.Port,
			"llm_provider":  cfg.LLMProvider,
			"rating_queue":  cfg.RatingQueue,
			"voice_enabled": speech != nil,
		}).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("server shutdown")
	}

	drained := make(chan struct{})
	go func() {
		stopWorkers()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(30 * time.Second):
		log.Warn("rating workers did not drain in time")
		cancelWorkers()
		<-drained
	}
}
