package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReturnsSharedInstance(t *testing.T) {
	first, err := New(Config{Env: "development"})
	require.NoError(t, err)
	require.NotNil(t, first)

	// the preset is fixed on first use; later calls share the instance
	second, err := New(Config{Env: "production"})
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestNopDiscards(t *testing.T) {
	l := Nop()
	require.NotNil(t, l)
	l.Infow("discarded", "k", "v")
}
