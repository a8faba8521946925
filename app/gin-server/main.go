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

	"github.com/yoockh/intake/config"
	"github.com/yoockh/intake/internal/api/handlers"
	"github.com/yoockh/intake/internal/api/middleware"
	"github.com/yoockh/intake/internal/api/routes"
	"github.com/yoockh/intake/internal/cache"
	"github.com/yoockh/intake/internal/logger"
	"github.com/yoockh/intake/internal/providers/analyzer"
	"github.com/yoockh/intake/internal/providers/extractor"
	"github.com/yoockh/intake/internal/providers/llm"
	"github.com/yoockh/intake/internal/providers/stt"
	"github.com/yoockh/intake/internal/repositories"
	"github.com/yoockh/intake/internal/repositories/memory"
	mongorepo "github.com/yoockh/intake/internal/repositories/mongo"
	pgrepo "github.com/yoockh/intake/internal/repositories/postgres"
	redisrepo "github.com/yoockh/intake/internal/repositories/redis"
	"github.com/yoockh/intake/internal/services"
	"github.com/yoockh/intake/internal/storage"
	"github.com/yoockh/intake/internal/workers"
)

func main() {
	_ = godotenv.Load()

	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("config")
	}

	catalog, err := config.LoadCatalog(cfg.CatalogFile)
	if err != nil {
		log.WithError(err).Fatal("catalog")
	}
	if cfg.ClinicName != "" {
		catalog.ClinicName = cfg.ClinicName
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis is needed for the redis session backend and for async transcription.
	if cfg.RedisAddr != "" {
		if err := config.InitRedis(cfg.RedisAddr); err != nil {
			log.WithError(err).Fatal("Redis init error")
		}
		defer config.RedisClient.Close()
		log.Info("Redis connected")
	}

	var sessionRepo repositories.SessionRepository
	switch cfg.SessionBackend {
	case "redis":
		sessionRepo = redisrepo.NewSessionRepo(cache.NewRedisCache(config.RedisClient, "intake:"), cfg.SessionTTL)
	case "mongo":
		if err := config.InitMongo(cfg.MongoURI); err != nil {
			log.WithError(err).Fatal("MongoDB init error")
		}
		defer config.MongoClient.Disconnect(context.Background())
		if err := config.EnsureMongoIndexes(cfg.MongoDB, cfg.SessionTTL); err != nil {
			log.WithError(err).Fatal("MongoDB indexes")
		}
		sessionRepo = mongorepo.NewSessionRepo(config.MongoClient.Database(cfg.MongoDB), config.SessionsCollection)
		log.Info("MongoDB connected")
	default:
		sessionRepo = memory.NewSessionRepo()
	}

	var archive pgrepo.AnalysisRepository
	if cfg.PostgresURI != "" {
		if err := config.InitPostgres(cfg.PostgresURI); err != nil {
			log.WithError(err).Fatal("PostgreSQL init error")
		}
		archive = pgrepo.NewAnalysisRepo(config.PostgresDB)
		log.Info("PostgreSQL connected")
	}

	var artifacts storage.ArtifactStore
	switch cfg.ArtifactBackend {
	case "gcs":
		gs, err := storage.NewGCSStore(ctx, cfg.GCSBucket, "sessions/")
		if err != nil {
			log.WithError(err).Fatal("GCS init error")
		}
		defer gs.Close()
		artifacts = gs
	default:
		ls, err := storage.NewLocalStore(cfg.UploadDir)
		if err != nil {
			log.WithError(err).Fatal("upload dir")
		}
		artifacts = ls
	}

	sttProvider, err := stt.NewProvider(ctx, stt.Settings{
		Provider:    cfg.STTProvider,
		OpenAIKey:   cfg.OpenAIKey,
		OpenAIModel: cfg.OpenAISTTModel,
	})
	if err != nil {
		log.WithError(err).Fatal("STT provider")
	}
	defer sttProvider.Close()

	llmProvider, err := llm.NewProvider(ctx, llm.Settings{
		Provider:     cfg.LLMProvider,
		GCPProjectID: cfg.GCPProjectID,
		GCPLocation:  cfg.GCPLocation,
		VertexModel:  cfg.VertexModel,
		OpenAIKey:    cfg.OpenAIKey,
		OpenAIModel:  cfg.OpenAIModel,
	})
	if err != nil {
		log.WithError(err).Fatal("LLM provider")
	}
	defer llmProvider.Close()

	store := services.NewStore(sessionRepo)
	sessionSvc := services.NewSessionService(store, artifacts, catalog, log)
	pipelineSvc := services.NewPipelineService(
		store,
		artifacts,
		extractor.NewFFmpegExtractor(cfg.FFmpegPath, artifacts),
		&stt.ArtifactTranscriber{Store: artifacts, Provider: sttProvider, Language: cfg.STTLanguage},
		catalog,
		services.PipelineOptions{KeepAudio: cfg.KeepAudio, Concurrency: cfg.TranscribeConcurrency},
		log,
	)
	analysisSvc := services.NewAnalysisService(
		store,
		artifacts,
		analyzer.NewLLMAnalyzer(llmProvider, log),
		archive,
		catalog,
		services.AnalysisOptions{AllowReanalysis: cfg.AllowReanalysis},
		log,
	)

	var queue handlers.Enqueuer
	var ws *handlers.WSHandler
	if config.RedisClient != nil {
		pool := &workers.TranscriptionWorkerPool{
			Redis:      config.RedisClient,
			Pipeline:   pipelineSvc,
			NumWorkers: cfg.WorkerCount,
			Logger:     log,
		}
		if err := pool.Start(ctx); err != nil {
			log.WithError(err).Fatal("workers")
		}
		queue = workers.NewTranscriptionQueue(config.RedisClient)
		ws = handlers.NewWSHandler(sessionSvc, config.RedisClient, log)
	}

	if log.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.Recovery(log), middleware.RequestLogger(log))

	routes.RegisterRoutes(r, routes.Deps{
		Intake: handlers.NewIntakeHandler(sessionSvc, pipelineSvc, analysisSvc, queue, cfg.MaxVideoBytes),
		Meta:   handlers.NewMetaHandler(catalog, sttProvider.Name(), llmProvider.Name()),
		WS:     ws,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.WithFields(logrus.Fields{
		"port":             cfg.Port,
		"session_backend":  cfg.SessionBackend,
		"artifact_backend": cfg.ArtifactBackend,
		"stt":              sttProvider.Name(),
		"llm":              llmProvider.Name(),
	}).Info("intake server listening")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("server")
	}
}
