package service

import (
	"log/slog"
	"sync"

	"github.com/stageupapp/stageup-server/internal/config"
	"github.com/stageupapp/stageup-server/internal/domain"
	domainerrors "github.com/stageupapp/stageup-server/internal/errors"
)

// Constructor builds a FileService for one storage provider.
type Constructor func(cfg *config.Config, logger *slog.Logger) (FileService, error)

// Factory maps the configured storage provider tag to a concrete
// implementation and caches one instance per distinct configuration, so
// repeated calls with identical config reuse state instead of
// re-initializing storage.
type Factory struct {
	logger   *slog.Logger
	registry map[domain.StorageProvider]Constructor

	mu    sync.Mutex
	cache map[domain.StorageConfig]FileService
}

// NewFactory creates a factory with the default provider registry.
// Only the local provider has a complete implementation; s3 and memory are
// registered extension points.
func NewFactory(logger *slog.Logger) *Factory {
	f := &Factory{
		logger:   logger,
		registry: make(map[domain.StorageProvider]Constructor),
		cache:    make(map[domain.StorageConfig]FileService),
	}

	f.Register(domain.ProviderLocal, NewLocalFileService)
	f.Register(domain.ProviderS3, newS3FileService)
	f.Register(domain.ProviderMemory, newMemoryFileService)
	return f
}

// Register adds or replaces a provider constructor.
func (f *Factory) Register(provider domain.StorageProvider, ctor Constructor) {
	f.registry[provider] = ctor
}

// Get returns the FileService for the configuration's provider, reusing a
// cached instance when an identical configuration was seen before.
func (f *Factory) Get(cfg *config.Config) (FileService, error) {
	ctor, ok := f.registry[cfg.Storage.Provider]
	if !ok {
		return nil, domainerrors.Configurationf("unknown storage provider: %s", cfg.Storage.Provider)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if svc, ok := f.cache[cfg.Storage]; ok {
		return svc, nil
	}

	svc, err := ctor(cfg, f.logger)
	if err != nil {
		return nil, err
	}

	f.cache[cfg.Storage] = svc
	f.logger.Debug("initialized file service", "provider", cfg.Storage.Provider)
	return svc, nil
}

// newS3FileService is the S3 extension point. The configuration shape is
// validated at load time; the backend itself is not implemented.
func newS3FileService(*config.Config, *slog.Logger) (FileService, error) {
	return nil, domainerrors.ServiceUnavailable("s3 storage provider is not implemented")
}

// newMemoryFileService is the in-memory extension point, reserved for a
// future test double.
func newMemoryFileService(*config.Config, *slog.Logger) (FileService, error) {
	return nil, domainerrors.ServiceUnavailable("memory storage provider is not implemented")
}
