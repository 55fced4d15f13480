package config

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppName      string `json:"app_name" env:"JOURNAL_APP_NAME"`
	ListenIP     string `json:"listen_ip" env:"JOURNAL_LISTEN_IP"`
	ListenPort   int    `json:"listen_port" env:"JOURNAL_LISTEN_PORT"`
	DatabasePath string `json:"database_path" env:"JOURNAL_DATABASE_PATH"`
	SessionKey   string `json:"session_key" env:"JOURNAL_SESSION_KEY"`
	Captcha      bool   `json:"captcha" env:"JOURNAL_CAPTCHA"`
}

// Load reads the JSON config file, then applies environment variable
// overrides (JOURNAL_* tags above) on top of it.
func Load(path string) (Config, error) {
	var cfg Config

	file, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, err
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}

	if cfg.AppName == "" {
		cfg.AppName = "Learning Journal"
	}
	if cfg.ListenIP == "" {
		cfg.ListenIP = "0.0.0.0"
	}
	if cfg.ListenPort == 0 {
		cfg.ListenPort = 8000
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = "./journal.db"
	}

	// If no key is provided or it's the placeholder, generate a secure random one
	if cfg.SessionKey == "" || cfg.SessionKey == "CHANGE_ME_IN_PRODUCTION" {
		log.Warn().Msg("no session key configured, generating a random key; sessions will be invalidated on restart")
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err != nil {
			return cfg, err
		}
		cfg.SessionKey = hex.EncodeToString(randomKey)
	}

	return cfg, nil
}
