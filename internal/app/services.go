package app

import (
	"github.com/adanyl0v/go-task-tree/internal/config"
	"github.com/adanyl0v/go-task-tree/internal/services"
)

var (
	globalAuthService services.AuthService
	globalTaskService services.TaskService
)

// InitServices must run after MustInitStorage.
func InitServices() {
	jwtCfg := config.Global().JWT

	globalAuthService = services.NewAuthService(
		globalLogger.With().Str("service", "auth").Logger(),
		globalUserStore,
		jwtCfg.Issuer,
		[]byte(jwtCfg.SigningKey),
		jwtCfg.AccessTokenTTL,
	)
	globalTaskService = services.NewTaskService(
		globalLogger.With().Str("service", "tasks").Logger(),
		globalTaskStore,
	)
	globalLogger.Info().Msg("initialized services")
}
