package cmdinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeysForRequestSingleKey(t *testing.T) {
	m := Default()
	keys, known := m.KeysForRequest([][]byte{[]byte("GET"), []byte("foo")})
	assert.True(t, known)
	assert.Equal(t, [][]byte{[]byte("foo")}, keys)
}

func TestKeysForRequestIsCaseInsensitive(t *testing.T) {
	m := Default()
	keys, known := m.KeysForRequest([][]byte{[]byte("get"), []byte("foo")})
	assert.True(t, known)
	assert.Equal(t, [][]byte{[]byte("foo")}, keys)
}

func TestKeysForRequestAllKeys(t *testing.T) {
	m := Default()
	keys, known := m.KeysForRequest([][]byte{[]byte("DEL"), []byte("a"), []byte("b"), []byte("c")})
	assert.True(t, known)
	assert.Equal(t, [][]byte{[]byte("a"), []byte("b"), []byte("c")}, keys)
}

func TestKeysForRequestInterleaved(t *testing.T) {
	m := Default()
	keys, known := m.KeysForRequest([][]byte{
		[]byte("MSET"), []byte("k1"), []byte("v1"), []byte("k2"), []byte("v2"),
	})
	assert.True(t, known)
	assert.Equal(t, [][]byte{[]byte("k1"), []byte("k2")}, keys)
}

func TestKeysForRequestNoKeys(t *testing.T) {
	m := Default()
	keys, known := m.KeysForRequest([][]byte{[]byte("PING")})
	assert.True(t, known)
	assert.Nil(t, keys)
}

func TestKeysForRequestUnknownCommand(t *testing.T) {
	m := Default()
	keys, known := m.KeysForRequest([][]byte{[]byte("FROBNICATE"), []byte("x")})
	assert.False(t, known)
	assert.Nil(t, keys)
}

func TestKeysForRequestEmptyArgs(t *testing.T) {
	m := Default()
	keys, known := m.KeysForRequest(nil)
	assert.False(t, known)
	assert.Nil(t, keys)
}
