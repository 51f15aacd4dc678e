package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"examforge"

	"github.com/gorilla/sessions"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg := examforge.LoadConfig()
	examforge.InitLogger("examforge-web", cfg.Env)
	examforge.SetVerbose(cfg.Verbose)

	if cfg.APIKey == "" {
		log.Warn().Msg("no API key configured; generation requests will fail until OPENAI_API_KEY is set")
	}

	db, err := examforge.OpenDB(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("failed to open database")
	}
	defer db.CloseDB()

	if err := db.CreateTables(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to create tables")
	}

	gen := examforge.NewGenerator(cfg, db, examforge.NewBookContent(cfg), examforge.NewQuestionMaker(cfg))

	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewServer(db, gen, store).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
	log.Info().Msg("server stopped")
}
