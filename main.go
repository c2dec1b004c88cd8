package main

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dcgray/scriptle/internal/bible"
	"github.com/dcgray/scriptle/internal/config"
	"github.com/dcgray/scriptle/internal/httpserver"
	"github.com/dcgray/scriptle/internal/repo"
	"github.com/dcgray/scriptle/internal/session"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	bibleDB, err := openDB(cfg.BibleDB)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.BibleDB).Msg("failed to open corpus db")
	}
	if err := migrate(bibleDB, "sql/bible"); err != nil {
		log.Fatal().Err(err).Msg("corpus migrations failed")
	}
	if err := seedSampleCorpus(bibleDB); err != nil {
		log.Fatal().Err(err).Msg("sample corpus seed failed")
	}

	dataDB, err := openDB(cfg.DataDB)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DataDB).Msg("failed to open game db")
	}
	if err := migrate(dataDB, "sql/data"); err != nil {
		log.Fatal().Err(err).Msg("game migrations failed")
	}

	verses := bible.NewStore(bibleDB)
	games := repo.New(dataDB, verses)
	sessions := session.New(games, verses)
	srv := httpserver.New(cfg, dataDB, verses, games, sessions)

	log.Info().Str("port", cfg.Port).Msg("starting scriptle server")
	if err := srv.Start(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
