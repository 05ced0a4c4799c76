package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stageupapp/stageup-server/internal/domain"
)

func validConfig() *Config {
	return &Config{
		App: AppConfig{
			Environment: "development",
		},
		Logger: LoggerConfig{
			Level: "info",
		},
		Storage: domain.StorageConfig{
			Provider: domain.ProviderLocal,
			Local: domain.LocalStorageConfig{
				UploadPath: "/data/uploads",
				PublicPath: "/uploads",
			},
		},
		Upload: UploadConfig{
			MaxFileSize:      10 * 1024 * 1024,
			AllowedMIMETypes: []string{"image/jpeg", "image/png"},
			MaxWidth:         8000,
			MaxHeight:        8000,
			SecurityScan:     true,
		},
		Processing: ProcessingConfig{
			MaxWidth:       2048,
			MaxHeight:      2048,
			JPEGQuality:    85,
			PNGCompression: 6,
		},
		Signing: SigningConfig{
			Secret: []byte("0123456789abcdef0123456789abcdef"),
			TTL:    15 * time.Minute,
		},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	err := validConfig().Validate()
	assert.NoError(t, err)
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_AllLogLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"debug", true},
		{"info", true},
		{"warn", true},
		{"error", true},
		{"trace", false}, // not supported
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := validConfig()
			cfg.Logger.Level = tt.level

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_UploadBounds(t *testing.T) {
	t.Run("zero max file size", func(t *testing.T) {
		cfg := validConfig()
		cfg.Upload.MaxFileSize = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("empty mime allow-list", func(t *testing.T) {
		cfg := validConfig()
		cfg.Upload.AllowedMIMETypes = nil
		assert.Error(t, cfg.Validate())
	})

	t.Run("zero dimension caps", func(t *testing.T) {
		cfg := validConfig()
		cfg.Upload.MaxWidth = 0
		assert.Error(t, cfg.Validate())
	})
}

func TestValidate_ProcessingBounds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"quality at lower bound", func(c *Config) { c.Processing.JPEGQuality = 1 }, true},
		{"quality at upper bound", func(c *Config) { c.Processing.JPEGQuality = 100 }, true},
		{"quality zero", func(c *Config) { c.Processing.JPEGQuality = 0 }, false},
		{"quality above range", func(c *Config) { c.Processing.JPEGQuality = 101 }, false},
		{"compression at upper bound", func(c *Config) { c.Processing.PNGCompression = 9 }, true},
		{"compression above range", func(c *Config) { c.Processing.PNGCompression = 10 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_Signing(t *testing.T) {
	t.Run("short secret", func(t *testing.T) {
		cfg := validConfig()
		cfg.Signing.Secret = []byte("short")
		assert.Error(t, cfg.Validate())
	})

	t.Run("zero ttl", func(t *testing.T) {
		cfg := validConfig()
		cfg.Signing.TTL = 0
		assert.Error(t, cfg.Validate())
	})
}

func TestValidate_StorageProviders(t *testing.T) {
	t.Run("local requires an upload path", func(t *testing.T) {
		cfg := validConfig()
		cfg.Storage.Local.UploadPath = ""

		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "upload path")
	})

	t.Run("s3 requires bucket and region", func(t *testing.T) {
		cfg := validConfig()
		cfg.Storage.Provider = domain.ProviderS3

		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "S3_BUCKET")
	})

	t.Run("s3 requires credentials", func(t *testing.T) {
		cfg := validConfig()
		cfg.Storage.Provider = domain.ProviderS3
		cfg.Storage.S3.Bucket = "bucket"
		cfg.Storage.S3.Region = "us-east-1"

		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "S3_ACCESS_KEY_ID")
	})

	t.Run("fully specified s3 passes", func(t *testing.T) {
		cfg := validConfig()
		cfg.Storage.Provider = domain.ProviderS3
		cfg.Storage.S3 = domain.S3StorageConfig{
			Bucket:          "bucket",
			Region:          "us-east-1",
			AccessKeyID:     "key",
			SecretAccessKey: "secret",
		}

		assert.NoError(t, cfg.Validate())
	})

	t.Run("memory needs no settings", func(t *testing.T) {
		cfg := validConfig()
		cfg.Storage.Provider = domain.ProviderMemory
		cfg.Storage.Local = domain.LocalStorageConfig{}

		assert.NoError(t, cfg.Validate())
	})

	t.Run("unknown provider", func(t *testing.T) {
		cfg := validConfig()
		cfg.Storage.Provider = "ftp"

		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unknown storage provider")
	})
}

func TestExpandUploadPath_EmptyUsesDefault(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Local.UploadPath = ""

	err := cfg.expandUploadPath()
	require.NoError(t, err)

	homeDir, _ := os.UserHomeDir() //nolint:errcheck // Test setup
	expected := filepath.Join(homeDir, "StageUp", "uploads")
	assert.Equal(t, expected, cfg.Storage.Local.UploadPath)
}

func TestExpandUploadPath_TildeExpansion(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Local.UploadPath = "~/my-uploads"

	err := cfg.expandUploadPath()
	require.NoError(t, err)

	homeDir, _ := os.UserHomeDir() //nolint:errcheck // Test setup
	expected := filepath.Join(homeDir, "my-uploads")
	assert.Equal(t, expected, cfg.Storage.Local.UploadPath)
}

func TestExpandUploadPath_AbsolutePath(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Local.UploadPath = "/absolute/path/to/uploads"

	err := cfg.expandUploadPath()
	require.NoError(t, err)

	assert.Equal(t, "/absolute/path/to/uploads", cfg.Storage.Local.UploadPath)
}

func TestExpandUploadPath_RelativePath(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Local.UploadPath = "relative/uploads"

	err := cfg.expandUploadPath()
	require.NoError(t, err)

	// Should be converted to absolute path.
	assert.True(t, filepath.IsAbs(cfg.Storage.Local.UploadPath))
	assert.Contains(t, cfg.Storage.Local.UploadPath, "relative/uploads")
}

func TestGetConfigValue_Precedence(t *testing.T) {
	// Test flag value takes priority.
	result := getConfigValue("flag-value", "ENV_KEY", "default-value")
	assert.Equal(t, "flag-value", result)

	// Test env var when flag is empty.
	os.Setenv("TEST_ENV_KEY", "env-value") //nolint:errcheck // Test setup
	defer os.Unsetenv("TEST_ENV_KEY")      //nolint:errcheck // Test cleanup

	result = getConfigValue("", "TEST_ENV_KEY", "default-value")
	assert.Equal(t, "env-value", result)

	// Test default when both are empty.
	result = getConfigValue("", "NONEXISTENT_KEY", "default-value")
	assert.Equal(t, "default-value", result)
}

func TestGetListConfigValue(t *testing.T) {
	os.Setenv("TEST_LIST_KEY", "image/jpeg, image/png ,,image/gif") //nolint:errcheck // Test setup
	defer os.Unsetenv("TEST_LIST_KEY")                              //nolint:errcheck // Test cleanup

	result := getListConfigValue("", "TEST_LIST_KEY", []string{"fallback"})
	assert.Equal(t, []string{"image/jpeg", "image/png", "image/gif"}, result)

	result = getListConfigValue("", "NONEXISTENT_LIST_KEY", []string{"fallback"})
	assert.Equal(t, []string{"fallback"}, result)
}

func TestLoadEnvFile_ValidFile(t *testing.T) {
	// Create temp .env file.
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")

	content := `# Test env file
ENV=staging
LOG_LEVEL=debug
UPLOAD_PATH=/test/path
# Comment line
QUOTED_VALUE="some value"
SINGLE_QUOTED='another value'
`
	err := os.WriteFile(envFile, []byte(content), 0o644)
	require.NoError(t, err)

	// Clear any existing env vars.
	os.Unsetenv("ENV")           //nolint:errcheck // Test cleanup
	os.Unsetenv("LOG_LEVEL")     //nolint:errcheck // Test cleanup
	os.Unsetenv("UPLOAD_PATH")   //nolint:errcheck // Test cleanup
	os.Unsetenv("QUOTED_VALUE")  //nolint:errcheck // Test cleanup
	os.Unsetenv("SINGLE_QUOTED") //nolint:errcheck // Test cleanup
	defer func() {
		os.Unsetenv("ENV")           //nolint:errcheck // Test cleanup
		os.Unsetenv("LOG_LEVEL")     //nolint:errcheck // Test cleanup
		os.Unsetenv("UPLOAD_PATH")   //nolint:errcheck // Test cleanup
		os.Unsetenv("QUOTED_VALUE")  //nolint:errcheck // Test cleanup
		os.Unsetenv("SINGLE_QUOTED") //nolint:errcheck // Test cleanup
	}()

	// Load the file.
	err = loadEnvFile(envFile)
	require.NoError(t, err)

	// Verify values were loaded.
	assert.Equal(t, "staging", os.Getenv("ENV"))
	assert.Equal(t, "debug", os.Getenv("LOG_LEVEL"))
	assert.Equal(t, "/test/path", os.Getenv("UPLOAD_PATH"))
	assert.Equal(t, "some value", os.Getenv("QUOTED_VALUE"))
	assert.Equal(t, "another value", os.Getenv("SINGLE_QUOTED"))
}

func TestLoadEnvFile_InvalidFormat(t *testing.T) {
	// Create temp .env file with invalid format.
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")

	content := `VALID_KEY=valid_value
INVALID LINE WITHOUT EQUALS
ANOTHER_VALID=value
`
	err := os.WriteFile(envFile, []byte(content), 0o644)
	require.NoError(t, err)

	// Should return error.
	err = loadEnvFile(envFile)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestLoadEnvFile_NonExistentFile(t *testing.T) {
	err := loadEnvFile("/nonexistent/file/.env")
	assert.Error(t, err)
}

func TestLoadEnvFile_ExistingEnvVarsNotOverwritten(t *testing.T) {
	// Set env var first.
	os.Setenv("TEST_VAR", "original-value") //nolint:errcheck // Test setup
	defer os.Unsetenv("TEST_VAR")           //nolint:errcheck // Test cleanup

	// Create temp .env file that tries to override it.
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")

	content := `TEST_VAR=new-value`
	err := os.WriteFile(envFile, []byte(content), 0o644)
	require.NoError(t, err)

	// Load the file.
	err = loadEnvFile(envFile)
	require.NoError(t, err)

	// Original value should be preserved.
	assert.Equal(t, "original-value", os.Getenv("TEST_VAR"))
}
