package app

import (
	_ "github.com/joho/godotenv/autoload"

	"github.com/adanyl0v/go-task-tree/internal/config"
)

// MustReadEnv reads the configuration from the environment, with a
// .env file in the working directory loaded first.
func MustReadEnv() {
	mustReadConfig(config.NewEnvReader())
}

func mustReadConfig(r config.Reader) {
	cfg, err := r.Read()
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to read config")
		panic(err)
	}

	globalLogger.Info().
		Str("env", cfg.Env).
		Str("storage_driver", cfg.Storage.Driver).
		Str("http_addr", cfg.HTTP.Host+":"+cfg.HTTP.Port).
		Dur("access_token_ttl", cfg.JWT.AccessTokenTTL).
		Msg("read config")
	config.SetGlobal(cfg)
}
