package main

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"

	"github.com/todmy/keyphrase-extractor/internal/api"
	"github.com/todmy/keyphrase-extractor/internal/auth"
	"github.com/todmy/keyphrase-extractor/internal/config"
	"github.com/todmy/keyphrase-extractor/internal/logging"
	"github.com/todmy/keyphrase-extractor/internal/pipeline"
	"github.com/todmy/keyphrase-extractor/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.NewLogger("info").Fatal("Failed to load config: ", err)
	}
	logger := logging.NewLogger(cfg.App.LogLevel)

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid config: ", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var db *sql.DB
	if cfg.Database.URL != "" {
		db, err = sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			logger.Fatal("Failed to connect to database: ", err)
		}
		defer db.Close()

		if err := db.PingContext(ctx); err != nil {
			logger.Fatal("Failed to ping database: ", err)
		}
		if err := storage.Migrate(ctx, db); err != nil {
			logger.Fatal("Failed to migrate database: ", err)
		}
		logger.Info("Connected to database")
	}

	res, err := loadResources(ctx, cfg, db, logger)
	if err != nil {
		logger.Fatal("Failed to load resources: ", err)
	}

	serverCfg := api.ServerConfig{
		Auth: auth.NewJWTService(auth.Config{
			SecretKey:     cfg.Auth.SecretKey,
			PasswordHash:  cfg.Auth.PasswordHash,
			TokenDuration: cfg.Auth.TokenDuration,
		}),
		Resources:      res,
		DefaultVariant: pipeline.Variant(cfg.Extraction.DefaultVariant),
		TopN:           cfg.Extraction.TopN,
		Workers:        cfg.Extraction.Workers,
		Logger:         logger,
	}
	if db != nil {
		models := storage.NewPostgresModelRepository(db)
		serverCfg.Models = models
		serverCfg.History = models
		serverCfg.Training = storage.NewPostgresTrainingRepository(db)
	} else {
		serverCfg.Models = storage.NewFileModelStore(cfg.Extraction.ModelDir)
	}
	if cfg.Auth.PasswordHash == "" {
		logger.Info("OPERATOR_PASSWORD_HASH not set, training routes are disabled")
	}

	server := api.NewServer(serverCfg)

	logger.Info("Starting keyphrase extractor on port %s", cfg.App.ServerPort)
	if err := server.Run(":" + cfg.App.ServerPort); err != nil {
		logger.Fatal("Failed to start server: ", err)
	}
}

// loadResources reads document frequencies and the gazetteer from files when
// configured, otherwise from the database.
func loadResources(ctx context.Context, cfg *config.Config, db *sql.DB, logger *logging.Logger) (pipeline.Resources, error) {
	res := pipeline.DefaultResources()
	res.N = cfg.Extraction.CorpusSize
	res.MostFrequentUnigrams = cfg.Extraction.MostFrequentUnigrams
	res.MostFrequentNonUnigrams = cfg.Extraction.MostFrequentNonUnigrams

	var table *storage.FrequencyTable
	var err error
	switch {
	case cfg.Extraction.FrequencyPath != "":
		table, err = storage.LoadFrequencyFile(cfg.Extraction.FrequencyPath)
	case db != nil:
		table, err = storage.NewPostgresFrequencyRepository(db).Load(ctx)
	}
	if err != nil {
		return res, err
	}
	if table != nil {
		res.DF = table
		if table.NumDocuments() > 0 {
			res.N = table.NumDocuments()
		}
		logger.Info("Loaded %d document frequencies over %d documents", table.Len(), res.N)
	}

	switch {
	case cfg.Extraction.GazetteerPath != "":
		res.Gazetteer, err = storage.LoadGazetteerFile(cfg.Extraction.GazetteerPath)
	case db != nil:
		res.Gazetteer, err = storage.NewPostgresGazetteerRepository(db).Load(ctx)
	}
	if err != nil {
		return res, err
	}
	logger.Info("Loaded gazetteer with %d entries", len(res.Gazetteer))

	return res, nil
}
