package country_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creditflow/internal/country"
	"creditflow/internal/country/colombia"
	"creditflow/internal/country/mexico"
	"creditflow/internal/platform/config"
	"creditflow/internal/platform/httpclient"
	id "creditflow/pkg/domain"
	dErrors "creditflow/pkg/domain-errors"
)

func bundles(t *testing.T) (country.Bundle, country.Bundle) {
	t.Helper()
	poster := httpclient.New(time.Second)
	mx, err := mexico.New(config.Provider{BaseURL: "http://mx.invalid"}, "https://hooks.example", poster)
	require.NoError(t, err)
	co, err := colombia.New(config.Provider{BaseURL: "http://co.invalid"}, "https://hooks.example", poster)
	require.NoError(t, err)
	return mx, co
}

func TestRegistry(t *testing.T) {
	mx, co := bundles(t)

	t.Run("get registered bundles", func(t *testing.T) {
		reg, err := country.NewRegistry(co, mx)
		require.NoError(t, err)

		got, err := reg.Get(id.CountryMexico)
		require.NoError(t, err)
		assert.Equal(t, "Mexico", got.Name)
		assert.Equal(t, "buro_de_credito", got.Provider.Name())

		assert.Equal(t, []id.CountryCode{"CO", "MX"}, reg.Codes())
		list := reg.List()
		require.Len(t, list, 2)
		assert.Equal(t, id.CountryColombia, list[0].Code)
	})

	t.Run("unknown country carries supported codes", func(t *testing.T) {
		reg, err := country.NewRegistry(mx, co)
		require.NoError(t, err)

		_, err = reg.Get("AR")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeCountryNotSupported))

		var coded *dErrors.Error
		require.True(t, errors.As(err, &coded))
		assert.Equal(t, "AR", coded.Details["country"])
		assert.Equal(t, []string{"CO", "MX"}, coded.Details["supported"])
	})

	t.Run("duplicate registration fails", func(t *testing.T) {
		_, err := country.NewRegistry(mx, mx)
		assert.EqualError(t, err, "country MX already registered")
	})

	t.Run("incomplete bundle fails", func(t *testing.T) {
		partial := mx
		partial.Payload = nil
		_, err := country.NewRegistry(partial)
		assert.EqualError(t, err, "country bundle MX is incomplete")
	})
}
