// Command seed loads categories and locations from a TOML file.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/phuslu/log"

	"github.com/govjobalert/govjobalert/internal/config"
	"github.com/govjobalert/govjobalert/internal/database"
	"github.com/govjobalert/govjobalert/internal/logging"
	"github.com/govjobalert/govjobalert/internal/models"
)

type seedFile struct {
	Categories []struct {
		Name string `toml:"name"`
		Slug string `toml:"slug"`
	} `toml:"categories"`
	Locations []struct {
		City  string `toml:"city"`
		State string `toml:"state"`
		Slug  string `toml:"slug"`
	} `toml:"locations"`
}

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	seedPath := flag.String("file", "configs/seed.toml", "path to the TOML seed file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("loading configuration")
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	if err := cfg.ValidateAPI(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	data, err := os.ReadFile(*seedPath)
	if err != nil {
		log.Fatal().Err(err).Str("file", *seedPath).Msg("reading seed file")
	}
	var seed seedFile
	if err := toml.Unmarshal(data, &seed); err != nil {
		log.Fatal().Err(err).Str("file", *seedPath).Msg("parsing seed file")
	}

	categories := make([]models.Category, 0, len(seed.Categories))
	for _, c := range seed.Categories {
		categories = append(categories, models.Category{Name: c.Name, Slug: c.Slug})
	}
	locations := make([]models.Location, 0, len(seed.Locations))
	for _, l := range seed.Locations {
		locations = append(locations, models.Location{City: l.City, State: l.State, Slug: l.Slug})
	}

	ctx := context.Background()
	lifetime, err := cfg.ConnMaxLifetime()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	db, err := database.Connect(ctx, database.Config{
		DSN:             cfg.Database.URL,
		ConnMaxLifetime: lifetime,
		AutoMigrate:     true,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connecting to database")
	}
	defer database.Close(db)

	nc, nl, err := database.SeedCatalog(ctx, db, categories, locations)
	if err != nil {
		log.Fatal().Err(err).Msg("seeding catalog")
	}
	log.Info().Int64("categories", nc).Int64("locations", nl).Msg("seed complete")
}
