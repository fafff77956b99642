package hashslot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlotKnownVectors(t *testing.T) {
	cases := []struct {
		key  string
		slot uint16
	}{
		{"foo", 12182},
		{"{foo}.bar", 12182},
		{"foo{bar}baz", 5061},
	}
	for _, c := range cases {
		assert.Equal(t, c.slot, Slot([]byte(c.key)), "key %q", c.key)
	}
}

func TestEmptyTagHashesFullKey(t *testing.T) {
	assert.Equal(t, []byte("{}abc"), tagged([]byte("{}abc")))
	// An empty tag ("{}") must not be treated as a hashtag: it should
	// hash differently than a real tag would once one is present.
	assert.NotEqual(t, Slot([]byte("{}abc")), Slot([]byte("{x}abc")))
}

func TestTagExtractsSubstring(t *testing.T) {
	assert.Equal(t, Slot([]byte("bar")), Slot([]byte("foo{bar}baz")))
}

func TestSlotInRange(t *testing.T) {
	for _, k := range []string{"a", "b", "somewhat-longer-key", "{tag}rest", ""} {
		s := Slot([]byte(k))
		assert.Less(t, s, uint16(Count))
	}
}
