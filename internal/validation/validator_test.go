package validation_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	domainerrors "github.com/stageupapp/stageup-server/internal/errors"
	"github.com/stageupapp/stageup-server/internal/validation"
)

type TestSettings struct {
	Environment string   `json:"environment" validate:"oneof=development staging production"`
	MaxFileSize int64    `json:"max_file_size" validate:"gt=0"`
	MIMETypes   []string `json:"mime_types" validate:"min=1"`
	Quality     int      `json:"quality" validate:"gte=1,lte=100"`
}

func validSettings() TestSettings {
	return TestSettings{
		Environment: "development",
		MaxFileSize: 1024,
		MIMETypes:   []string{"image/jpeg"},
		Quality:     85,
	}
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	err := v.Validate(validSettings())
	assert.NoError(t, err)
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		mutate    func(*TestSettings)
		wantField string
	}{
		{
			name:      "environment outside the allowed set",
			mutate:    func(s *TestSettings) { s.Environment = "test" },
			wantField: "environment",
		},
		{
			name:      "size must be positive",
			mutate:    func(s *TestSettings) { s.MaxFileSize = 0 },
			wantField: "max_file_size",
		},
		{
			name:      "list must not be empty",
			mutate:    func(s *TestSettings) { s.MIMETypes = nil },
			wantField: "mime_types",
		},
		{
			name:      "quality below range",
			mutate:    func(s *TestSettings) { s.Quality = 0 },
			wantField: "quality",
		},
		{
			name:      "quality above range",
			mutate:    func(s *TestSettings) { s.Quality = 101 },
			wantField: "quality",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := validSettings()
			tt.mutate(&settings)

			err := v.Validate(settings)
			assert.Error(t, err)

			var domainErr *domainerrors.Error
			if assert.True(t, errors.As(err, &domainErr)) {
				assert.Equal(t, domainerrors.CodeConfiguration, domainErr.Code)
				assert.Equal(t, http.StatusInternalServerError, domainErr.HTTPStatus())

				fields, ok := domainErr.Details.(map[string]string)
				if assert.True(t, ok, "details should carry the field map") {
					assert.Contains(t, fields, tt.wantField)
				}
			}
		})
	}
}

func TestValidator_JSONFieldNames(t *testing.T) {
	v := validation.New()

	settings := validSettings()
	settings.MaxFileSize = -1

	err := v.Validate(settings)
	assert.Error(t, err)

	// Details use the JSON tag name, not the struct field name.
	var domainErr *domainerrors.Error
	if assert.True(t, errors.As(err, &domainErr)) {
		fields := domainErr.Details.(map[string]string)
		assert.Contains(t, fields, "max_file_size")
		assert.NotContains(t, fields, "MaxFileSize")
	}
}
