package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderRequest(t *testing.T) {
	got := RenderRequest([][]byte{[]byte("SET"), []byte("k"), []byte("v")})
	assert.Equal(t, "*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$1\r\nv\r\n", string(got))
}

func TestParseSimpleString(t *testing.T) {
	rest, reply, ok, err := ParseReply([]byte("+OK\r\n"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, rest)
	assert.Equal(t, SimpleString, reply.Kind)
	assert.Equal(t, "OK", reply.Str)
}

func TestParseError(t *testing.T) {
	_, reply, ok, err := ParseReply([]byte("-MOVED 12182 10.0.0.2:6380\r\n"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, reply.IsError())
	assert.Equal(t, "MOVED 12182 10.0.0.2:6380", reply.Str)
}

func TestParseBulkStringAndNil(t *testing.T) {
	_, reply, ok, err := ParseReply([]byte("$3\r\nbar\r\n"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, BulkString, reply.Kind)
	assert.Equal(t, []byte("bar"), reply.Bulk)

	_, reply, ok, err = ParseReply([]byte("$-1\r\n"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Nil, reply.Kind)
}

func TestParseIncompleteReturnsMore(t *testing.T) {
	buf := []byte("$5\r\nhel")
	rest, _, ok, err := ParseReply(buf)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, buf, rest, "an incomplete parse must not consume any bytes")
}

func TestParseArrayNestedAndIncomplete(t *testing.T) {
	full := []byte("*2\r\n$3\r\nfoo\r\n:42\r\n")
	rest, reply, ok, err := ParseReply(full)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, rest)
	require.Len(t, reply.Array, 2)
	assert.Equal(t, []byte("foo"), reply.Array[0].Bulk)
	assert.Equal(t, int64(42), reply.Array[1].Int)

	partial := []byte("*2\r\n$3\r\nfoo\r\n:4")
	rest, _, ok, err = ParseReply(partial)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, partial, rest)
}

func TestParseAcrossTwoChunks(t *testing.T) {
	first := []byte("$5\r\nhel")
	_, _, ok, err := ParseReply(first)
	require.NoError(t, err)
	require.False(t, ok)

	full := append(first, []byte("lo\r\n")...)
	rest, reply, ok, err := ParseReply(full)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, rest)
	assert.Equal(t, []byte("hello"), reply.Bulk)
}

func TestParseUnknownTypeFails(t *testing.T) {
	_, _, ok, err := ParseReply([]byte("!oops\r\n"))
	assert.False(t, ok)
	assert.Error(t, err)
}
