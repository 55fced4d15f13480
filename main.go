package main

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/http"

	"github.com/gorilla/csrf"

	"journal/auth"
	"journal/config"
	"journal/handlers"
	"journal/logger"
	"journal/store"
)

func main() {
	log := logger.New("server")

	cfg, err := config.Load("config.json")
	if err != nil {
		log.Fatal().Err(err).Msg("loading config")
	}

	st, err := store.Open(context.Background(), cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("opening store")
	}
	defer st.Close()

	// Default to secure cookies unless running on the dev port
	secure := cfg.ListenPort != 8000
	sessions := auth.NewManager(cfg.SessionKey, secure)

	h := handlers.New(cfg, st, sessions, log)

	// Anti-forgery protection wraps the whole router; every mutating form
	// carries a token via csrf.TemplateField.
	csrfKey := sha256.Sum256([]byte(cfg.SessionKey + "csrf"))
	csrfMiddleware := csrf.Protect(
		csrfKey[:],
		csrf.Secure(secure),
		csrf.Path("/"),
	)

	addr := fmt.Sprintf("%s:%d", cfg.ListenIP, cfg.ListenPort)
	log.Info().Str("addr", addr).Str("app", cfg.AppName).Msg("server starting")

	if err := http.ListenAndServe(addr, csrfMiddleware(h.Routes())); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
