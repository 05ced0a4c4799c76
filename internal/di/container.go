// Package di provides dependency injection configuration for the StageUp media core.
package di

import (
	"github.com/samber/do/v2"

	"github.com/stageupapp/stageup-server/internal/config"
	"github.com/stageupapp/stageup-server/internal/di/providers"
	"github.com/stageupapp/stageup-server/internal/logger"
	"github.com/stageupapp/stageup-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Storage layer
	do.Provide(injector, providers.ProvideLocalStorage)

	// File service
	do.Provide(injector, providers.ProvideFileServiceFactory)
	do.Provide(injector, providers.ProvideFileService)

	return injector
}

// Bootstrap initializes all services eagerly so configuration problems
// surface at startup, not on first request.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*logger.Logger](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*service.Factory](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[service.FileService](injector); err != nil {
		return err
	}
	return nil
}
