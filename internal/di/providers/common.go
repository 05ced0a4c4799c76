package providers

import (
	"github.com/samber/do/v2"

	"github.com/stageupapp/stageup-server/internal/config"
	"github.com/stageupapp/stageup-server/internal/logger"
)

// ProvideLogger provides the application logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return logger.New(logger.Config{
		Environment: cfg.App.Environment,
		Level:       logger.ParseLevel(cfg.Logger.Level),
	}), nil
}
