// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/stageupapp/stageup-server/internal/domain"
	domainerrors "github.com/stageupapp/stageup-server/internal/errors"
	"github.com/stageupapp/stageup-server/internal/validation"
)

// Config holds the application configuration.
type Config struct {
	App        AppConfig
	Logger     LoggerConfig
	Storage    domain.StorageConfig
	Upload     UploadConfig
	Processing ProcessingConfig
	Signing    SigningConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string `validate:"oneof=development staging production"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string `validate:"oneof=debug info warn error"`
}

// UploadConfig bounds what the validator admits.
type UploadConfig struct {
	// MaxFileSize is the maximum accepted upload in bytes.
	MaxFileSize int64 `validate:"gt=0"`
	// AllowedMIMETypes is the declared-type allow-list.
	AllowedMIMETypes []string `validate:"min=1"`
	// MaxWidth and MaxHeight cap decoded dimensions.
	MaxWidth  int `validate:"gt=0"`
	MaxHeight int `validate:"gt=0"`
	// SecurityScan enables the byte-pattern scan (default: true).
	SecurityScan bool
}

// ProcessingConfig holds transcoding settings.
type ProcessingConfig struct {
	// MaxWidth and MaxHeight bound stored images; larger inputs are downscaled.
	MaxWidth  int `validate:"gt=0"`
	MaxHeight int `validate:"gt=0"`
	// JPEGQuality is the lossy encoding quality (default: 85).
	JPEGQuality int `validate:"gte=1,lte=100"`
	// PNGCompression is the lossless compression level (default: 6).
	PNGCompression int `validate:"gte=0,lte=9"`
	// PreserveMetadata keeps embedded EXIF/ICC when no re-encode is needed.
	PreserveMetadata bool
}

// SigningConfig holds signed URL settings.
type SigningConfig struct {
	// Secret is the HMAC key for URL signatures (min 32 bytes).
	Secret []byte `validate:"min=32"`
	// TTL is the default signed URL lifetime (default: 15m).
	TTL time.Duration `validate:"gt=0"`
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	provider := flag.String("storage-provider", "", "Storage provider (local, s3, memory)")
	uploadPath := flag.String("upload-path", "", "Root directory for stored uploads")
	publicPath := flag.String("public-path", "", "Public URL base for stored files")
	maxFileSize := flag.String("max-file-size", "", "Maximum upload size in bytes (default: 10485760)")
	signedURLTTL := flag.String("signed-url-ttl", "", "Signed URL lifetime (e.g., 15m)")
	envFile := flag.String("env-file", ".env", "Path to .env file")

	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Storage: domain.StorageConfig{
			Provider: domain.StorageProvider(getConfigValue(*provider, "STORAGE_PROVIDER", "local")),
			Local: domain.LocalStorageConfig{
				UploadPath:        getConfigValue(*uploadPath, "UPLOAD_PATH", ""),
				PublicPath:        getConfigValue(*publicPath, "PUBLIC_PATH", "/uploads"),
				CreateDirectories: getBoolConfigValue("", "CREATE_DIRECTORIES", true),
			},
			S3: domain.S3StorageConfig{
				Bucket:          getConfigValue("", "S3_BUCKET", ""),
				Region:          getConfigValue("", "S3_REGION", ""),
				AccessKeyID:     getConfigValue("", "S3_ACCESS_KEY_ID", ""),
				SecretAccessKey: getConfigValue("", "S3_SECRET_ACCESS_KEY", ""),
				PublicURLBase:   getConfigValue("", "S3_PUBLIC_URL_BASE", ""),
			},
		},
		Upload: UploadConfig{
			MaxFileSize:      getInt64ConfigValue(*maxFileSize, "MAX_FILE_SIZE", 10*1024*1024),
			AllowedMIMETypes: getListConfigValue("", "ALLOWED_MIME_TYPES", []string{"image/jpeg", "image/png", "image/webp", "image/gif", "image/bmp"}),
			MaxWidth:         getIntConfigValue("", "MAX_IMAGE_WIDTH", 8000),
			MaxHeight:        getIntConfigValue("", "MAX_IMAGE_HEIGHT", 8000),
			SecurityScan:     getBoolConfigValue("", "SECURITY_SCAN", true),
		},
		Processing: ProcessingConfig{
			MaxWidth:         getIntConfigValue("", "OUTPUT_MAX_WIDTH", 2048),
			MaxHeight:        getIntConfigValue("", "OUTPUT_MAX_HEIGHT", 2048),
			JPEGQuality:      getIntConfigValue("", "JPEG_QUALITY", 85),
			PNGCompression:   getIntConfigValue("", "PNG_COMPRESSION", 6),
			PreserveMetadata: getBoolConfigValue("", "PRESERVE_METADATA", false),
		},
	}

	// Parse signing settings.
	ttlStr := getConfigValue(*signedURLTTL, "SIGNED_URL_TTL", "15m")
	ttl, err := time.ParseDuration(ttlStr)
	if err != nil {
		return nil, domainerrors.Configurationf("invalid signed URL TTL %q: %v", ttlStr, err)
	}
	cfg.Signing.TTL = ttl

	secret := getConfigValue("", "URL_SIGNING_SECRET", "")
	if secret == "" {
		if cfg.App.Environment != "development" {
			return nil, domainerrors.Configuration("URL_SIGNING_SECRET is required outside development")
		}
		// Development convenience: generate an ephemeral secret. Signed URLs
		// won't survive a restart, which is fine for local work.
		secret, err = generateSecret()
		if err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeConfiguration, "generate signing secret")
		}
	}
	cfg.Signing.Secret = []byte(secret)

	// Expand and validate the upload path.
	if err := cfg.expandUploadPath(); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeConfiguration, "invalid upload path")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
// Invalid configuration fails fast here, not on first request. Per-field
// constraints are expressed as struct tags and checked through the
// validation wrapper; cross-field rules follow by hand.
func (c *Config) Validate() error {
	if err := validation.New().Validate(c); err != nil {
		return err
	}

	switch c.Storage.Provider {
	case domain.ProviderLocal:
		if c.Storage.Local.UploadPath == "" {
			return domainerrors.Configuration("upload path cannot be empty after expansion")
		}
	case domain.ProviderS3:
		if c.Storage.S3.Bucket == "" || c.Storage.S3.Region == "" {
			return domainerrors.Configuration("s3 provider requires S3_BUCKET and S3_REGION")
		}
		if c.Storage.S3.AccessKeyID == "" || c.Storage.S3.SecretAccessKey == "" {
			return domainerrors.Configuration("s3 provider requires S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY")
		}
	case domain.ProviderMemory:
		// No settings required.
	default:
		return domainerrors.Configurationf("unknown storage provider: %s", c.Storage.Provider)
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandUploadPath expands ~ and makes the upload path absolute, defaulting
// to ~/StageUp/uploads.
func (c *Config) expandUploadPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "StageUp", "uploads")

	expanded, err := expandPath(c.Storage.Local.UploadPath, defaultPath)
	if err != nil {
		return err
	}
	c.Storage.Local.UploadPath = expanded
	return nil
}

// generateSecret produces a random hex secret for development use.
func generateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return result
}

// getInt64ConfigValue returns an int64 from flag, env var, or default.
func getInt64ConfigValue(flagValue, envKey string, defaultValue int64) int64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.ParseInt(strValue, 10, 64)
	if err != nil {
		return defaultValue
	}
	return result
}

// getListConfigValue returns a comma-separated list from flag, env var, or default.
func getListConfigValue(flagValue, envKey string, defaultValue []string) []string {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	parts := strings.Split(strValue, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		value = strings.Trim(value, `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
