package providers

import (
	"github.com/samber/do/v2"

	"github.com/stageupapp/stageup-server/internal/config"
	"github.com/stageupapp/stageup-server/internal/logger"
	"github.com/stageupapp/stageup-server/internal/service"
)

// ProvideFileServiceFactory provides the provider registry.
func ProvideFileServiceFactory(i do.Injector) (*service.Factory, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewFactory(log.Logger), nil
}

// ProvideFileService resolves the configured storage provider to its
// concrete implementation.
func ProvideFileService(i do.Injector) (service.FileService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	factory := do.MustInvoke[*service.Factory](i)

	return factory.Get(cfg)
}
