package hooks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestIDIsUnique(t *testing.T) {
	a := RequestID()
	b := RequestID()
	assert.NotEmpty(t, a)
	assert.NotEmpty(t, b)
	assert.NotEqual(t, a, b)
}

func TestNoopHooksDoesNotPanic(t *testing.T) {
	var h Hooks = NoopHooks{}
	assert.NotPanics(t, func() {
		h.Redirected("req1", "MOVED", 12182, "10.0.0.2:6380")
		h.BatchFlushed("req1", "10.0.0.1:6379", 3)
		h.ShardMapRefreshed("req1")
	})
}

func TestLogHooksDoesNotPanic(t *testing.T) {
	var h Hooks = LogHooks{}
	assert.NotPanics(t, func() {
		h.Redirected("req1", "ASK", 555, "10.0.0.3:6381")
		h.BatchFlushed("req1", "10.0.0.1:6379", 1)
		h.ShardMapRefreshed("req1")
	})
}
