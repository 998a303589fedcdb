package app

import (
	"github.com/adanyl0v/go-task-tree/internal/config"
	"github.com/adanyl0v/go-task-tree/internal/services"
	"github.com/adanyl0v/go-task-tree/internal/storage/memory"
	"github.com/adanyl0v/go-task-tree/internal/storage/postgres"
)

var (
	globalTaskStore services.TaskStore
	globalUserStore services.UserStore
)

// MustInitStorage opens the stores selected by STORAGE_DRIVER.
func MustInitStorage() {
	driver := config.Global().Storage.Driver
	switch driver {
	case config.StorageDriverMemory:
		globalTaskStore = memory.NewTaskStore()
		globalUserStore = memory.NewUserStore()
	default:
		MustConnectPostgres()
		globalTaskStore = postgres.NewTaskStore(globalPostgresPool)
		globalUserStore = postgres.NewUserStore(globalPostgresPool)
	}
	globalLogger.Info().
		Str("driver", driver).
		Msg("initialized storage")
}

func CloseStorage() {
	if globalPostgresPool != nil {
		DisconnectPostgres()
	}
}
