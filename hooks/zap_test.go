package hooks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestZapHooksDoesNotPanic(t *testing.T) {
	h, err := NewZapHooks(zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		h.Redirected("req1", "MOVED", 12182, "10.0.0.2:6380")
		h.BatchFlushed("req1", "10.0.0.1:6379", 2)
		h.ShardMapRefreshed("req1")
	})
}
