package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewService(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		svc, err := NewService("", "")
		assert.Nil(t, svc)
		assert.ErrorIs(t, err, ErrMissingKey)
	})

	t.Run("default endpoint", func(t *testing.T) {
		svc, err := NewService("sk-test", "")
		require.NoError(t, err)
		assert.NotNil(t, svc.GetClient())
	})

	t.Run("custom endpoint", func(t *testing.T) {
		svc, err := NewService("sk-test", "http://localhost:9999/v1")
		require.NoError(t, err)
		assert.NotNil(t, svc.GetClient())
	})
}
