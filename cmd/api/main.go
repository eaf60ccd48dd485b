package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/phuslu/log"

	"github.com/govjobalert/govjobalert/internal/config"
	"github.com/govjobalert/govjobalert/internal/database"
	"github.com/govjobalert/govjobalert/internal/handlers"
	"github.com/govjobalert/govjobalert/internal/logging"
	"github.com/govjobalert/govjobalert/internal/middleware"
	"github.com/govjobalert/govjobalert/internal/scheduler"
	"github.com/govjobalert/govjobalert/internal/services"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	flag.Parse()

	// 1. Configuration and logging
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("loading configuration")
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	if err := cfg.ValidateAPI(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Database connection
	lifetime, err := cfg.ConnMaxLifetime()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	db, err := database.Connect(ctx, database.Config{
		DSN:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: lifetime,
		AutoMigrate:     cfg.Database.AutoMigrate,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connecting to database")
	}
	defer database.Close(db)

	// 3. Core services
	jobService := services.NewJobService(database.NewGormJobStore(db))

	var extractor services.ListingExtractor
	if cfg.LLM.GeminiAPIKey != "" {
		llmService, err := services.NewLLMService(ctx, cfg.LLM.GeminiAPIKey, cfg.LLM.GeminiModel)
		if err != nil {
			log.Fatal().Err(err).Msg("initializing LLM client")
		}
		extractor = llmService
	} else {
		log.Warn().Msg("GEMINI_API_KEY not set, extraction and scheduled scraping disabled")
	}

	// 4. Rate limiter for automation endpoints
	var limiter middleware.Limiter = middleware.NewMemoryLimiter()
	if cfg.Redis.URL != "" {
		rdb, err := middleware.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("connecting to redis")
		}
		defer rdb.Close()
		limiter = middleware.NewRedisLimiter(rdb, "govjobalert:ratelimit")
		log.Info().Msg("using redis rate limiter")
	}

	// 5. In-process scrape schedule
	if cfg.Scraper.Schedule != "" && extractor != nil {
		timeout, err := cfg.ScrapeTimeout()
		if err != nil {
			log.Fatal().Err(err).Msg("invalid configuration")
		}
		scraper := services.NewScrapeService(extractor, services.NewMatcherService(jobService), jobService, cfg.Scraper.TargetURL)
		sched := scheduler.New(cfg.Scraper.Schedule, scraper, timeout)
		if err := sched.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("starting scrape scheduler")
		}
		defer sched.Stop()
	}

	// 6. Router, middleware and CORS
	gin.SetMode(cfg.Server.GinMode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger())

	corsConfig := cors.DefaultConfig()
	if len(cfg.Server.CORSOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.Server.CORSOrigins
	}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{middleware.RequestIDHeader}
	r.Use(cors.New(corsConfig))

	// 7. Routes
	handlers.RegisterRoutes(r, handlers.NewJobHandler(jobService, extractor), handlers.RouteOptions{
		AutomationSecret: cfg.Automation.SecretKey,
		Limiter:          limiter,
		BulkPerMinute:    cfg.Automation.BulkRateLimitPerMin,
	})
	if cfg.Automation.SecretKey == "" {
		log.Warn().Msg("AUTOMATION_SECRET_KEY not set, bulk and extract endpoints will reject every request")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
