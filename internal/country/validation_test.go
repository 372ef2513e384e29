package country

//go:generate mockgen -source=country.go -destination=mocks/mocks.go -package=mocks

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "creditflow/pkg/domain-errors"
)

type testInner struct {
	Value *float64 `json:"value" validate:"required,gte=0"`
}

type testPayload struct {
	Inner *testInner `json:"inner" validate:"required"`
}

func TestStructPayload_Validate(t *testing.T) {
	v := NewStructPayload[testPayload]()

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, v.Validate(map[string]any{"inner": map[string]any{"value": 1.5}}))
	})

	t.Run("empty", func(t *testing.T) {
		err := v.Validate(nil)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("missing nested object", func(t *testing.T) {
		err := v.Validate(map[string]any{"other": true})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.Contains(t, err.Error(), "inner (required)")
	})

	t.Run("field rule uses json names", func(t *testing.T) {
		err := v.Validate(map[string]any{"inner": map[string]any{"value": -1.0}})
		var coded *dErrors.Error
		require.True(t, errors.As(err, &coded))
		assert.Equal(t, []string{"inner.value (gte)"}, coded.Details["fields"])
	})

	t.Run("wrong type", func(t *testing.T) {
		err := v.Validate(map[string]any{"inner": "text"})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestPatternDocument_Validate(t *testing.T) {
	d := NewPatternDocument("code", `^[A-Z]{3}\d{2}$`)
	assert.Equal(t, "code", d.DocumentType())
	assert.NoError(t, d.Validate(" abc12 "))
	assert.True(t, dErrors.HasCode(d.Validate(""), dErrors.CodeInvalidInput))
	assert.True(t, dErrors.HasCode(d.Validate("AB123"), dErrors.CodeInvalidInput))
}
