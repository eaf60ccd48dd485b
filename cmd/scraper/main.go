// Command scraper runs one scrape cycle against a running API server.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/phuslu/log"

	"github.com/govjobalert/govjobalert/internal/config"
	"github.com/govjobalert/govjobalert/internal/logging"
	"github.com/govjobalert/govjobalert/internal/services"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("loading configuration")
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	if err := cfg.ValidateScraper(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	timeout, err := cfg.ScrapeTimeout()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	llm, err := services.NewLLMService(ctx, cfg.LLM.GeminiAPIKey, cfg.LLM.GeminiModel)
	if err != nil {
		log.Fatal().Err(err).Msg("initializing LLM client")
	}
	api := services.NewAPIClient(cfg.Scraper.APIBaseURL, cfg.Automation.SecretKey)
	scraper := services.NewScrapeService(llm, services.NewMatcherService(api), api, cfg.Scraper.TargetURL)

	result, err := scraper.Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("scrape failed")
		os.Exit(1)
	}
	log.Info().
		Int("processed", result.Summary.Processed).
		Int("failed", result.Summary.Failed).
		Msg("jobs synced")
}
