package main

import (
	"context"
	"flag"
	"time"

	"examforge"

	"github.com/rs/zerolog/log"
)

func main() {
	var (
		dbPath       = flag.String("db", "", "Database path (default from config)")
		topicsPath   = flag.String("topics", "", "Syllabus topics JSON (default from config)")
		mappingsPath = flag.String("mappings", "", "Topic page mapping JSON (default from config)")
		verbose      = flag.Bool("verbose", false, "Enable verbose debugging output")
	)
	flag.Parse()

	cfg := examforge.LoadConfig()
	examforge.InitLogger("syllabusloader", cfg.Env)
	examforge.SetVerbose(*verbose || cfg.Verbose)

	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *topicsPath != "" {
		cfg.SyllabusTopicsPath = *topicsPath
	}
	if *mappingsPath != "" {
		cfg.SyllabusMappingsPath = *mappingsPath
	}

	db, err := examforge.OpenDB(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.CloseDB()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := db.CreateTables(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to create tables")
	}

	result, err := db.ImportSyllabus(ctx, cfg.SyllabusTopicsPath, cfg.SyllabusMappingsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to import syllabus")
	}

	log.Info().
		Int("topics", result.Topics).
		Int("mappings", result.Mappings).
		Str("db", cfg.DBPath).
		Msg("syllabus import complete")
}
