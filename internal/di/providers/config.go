// Package providers contains the dependency injection providers for the StageUp media core.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/stageupapp/stageup-server/internal/config"
)

// ProvideConfig loads and validates configuration once for the process.
func ProvideConfig(do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}
