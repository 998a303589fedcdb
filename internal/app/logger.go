package app

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-task-tree/internal/config"
)

var globalLogger zerolog.Logger

// InitDefaultLogger sets up a JSON logger for the time before
// the configuration is read.
func InitDefaultLogger() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	zerolog.TimestampFieldName = "timestamp"

	globalLogger = zerolog.New(os.Stdout).
		With().
		Timestamp().
		Caller().
		Int("pid", os.Getpid()).
		Logger()
	globalLogger.Debug().Msg("initialized default logger")
}

func MustInitApplicationLogger() {
	cfg := config.Global()

	level, err := logLevel(cfg)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Str("level", cfg.Log.Level).
			Msg("invalid log level")
		panic(err)
	}
	zerolog.SetGlobalLevel(level)

	globalLogger = globalLogger.Output(logWriter(cfg.Env)).
		With().
		Str("env", cfg.Env).
		Logger()
	globalLogger.Info().
		Str("level", level.String()).
		Msg("initialized application logger")
}

func logLevel(cfg *config.Config) (zerolog.Level, error) {
	if cfg.Log.Level != "" {
		return zerolog.ParseLevel(cfg.Log.Level)
	}

	switch cfg.Env {
	case config.EnvDev:
		return zerolog.DebugLevel, nil
	case config.EnvLocal:
		return zerolog.TraceLevel, nil
	default:
		return zerolog.InfoLevel, nil
	}
}

// logWriter prints human readable lines when running locally.
func logWriter(env string) io.Writer {
	if env != config.EnvLocal {
		return os.Stdout
	}

	consoleWriter := zerolog.NewConsoleWriter()
	consoleWriter.TimeFormat = time.DateTime
	consoleWriter.Out = os.Stdout
	return consoleWriter
}
