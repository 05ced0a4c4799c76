package providers

import (
	"github.com/samber/do/v2"

	"github.com/stageupapp/stageup-server/internal/config"
	"github.com/stageupapp/stageup-server/internal/logger"
	"github.com/stageupapp/stageup-server/internal/media/storage"
)

// ProvideLocalStorage provides the local storage manager for maintenance
// tooling that needs filesystem operations below the facade (migration).
func ProvideLocalStorage(i do.Injector) (*storage.Local, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return storage.NewLocal(cfg.Storage.Local, log.Logger)
}
