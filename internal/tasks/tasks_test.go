package tasks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogTaskWritesMessage(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := Default(zap.New(core))

	require.NoError(t, r.Run(LogTask, "Page France Culture chargée"))
	r.Log("Menu principal trouvé")

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, "Page France Culture chargée", entries[0].Message)
	assert.Equal(t, "Menu principal trouvé", entries[1].Message)
}

func TestUnknownTask(t *testing.T) {
	r := NewRegistry()
	err := r.Run("seed", "")
	assert.ErrorIs(t, err, ErrUnknownTask)

	// Log without a registered hook is a no-op.
	r.Log("ignored")
}

func TestRegisterReplaces(t *testing.T) {
	r := NewRegistry()
	var got []string
	r.Register("log", func(arg string) error { got = append(got, "a:"+arg); return nil })
	r.Register("log", func(arg string) error { got = append(got, "b:"+arg); return nil })

	r.Log("x")
	assert.Equal(t, []string{"b:x"}, got)
}
