package clusterpipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clusterpipe/topology"
	"clusterpipe/transport"
)

// clusterSlotsReply encodes a two-shard CLUSTER SLOTS response: slots
// 0-8191 owned by 10.0.0.1:6379 (with one replica), 8192-16383 by
// 10.0.0.2:6379 (no replicas).
const clusterSlotsReply = "*2\r\n" +
	"*4\r\n:0\r\n:8191\r\n" +
	"*3\r\n$8\r\n10.0.0.1\r\n:6379\r\n$5\r\nnode1\r\n" +
	"*3\r\n$8\r\n10.0.0.3\r\n:6379\r\n$5\r\nnode3\r\n" +
	"*3\r\n:8192\r\n:16383\r\n" +
	"*3\r\n$8\r\n10.0.0.2\r\n:6379\r\n$5\r\nnode2\r\n"

func TestDiscoverShardMapParsesSlotsReply(t *testing.T) {
	fake := transport.NewFake([]byte(clusterSlotsReply))
	sm, err := DiscoverShardMap(fake)
	require.NoError(t, err)

	sent := fake.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "*2\r\n$7\r\nCLUSTER\r\n$5\r\nSLOTS\r\n", string(sent[0]))

	shard0 := sm.ShardForSlot(0)
	assert.Equal(t, topology.NodeID("node1"), shard0.Master.ID)
	require.Len(t, shard0.Replicas, 1)
	assert.Equal(t, topology.NodeID("node3"), shard0.Replicas[0].ID)

	shard8191 := sm.ShardForSlot(8191)
	assert.Equal(t, topology.NodeID("node1"), shard8191.Master.ID)

	shard8192 := sm.ShardForSlot(8192)
	assert.Equal(t, topology.NodeID("node2"), shard8192.Master.ID)
	assert.Empty(t, shard8192.Replicas)

	shardLast := sm.ShardForSlot(16383)
	assert.Equal(t, topology.NodeID("node2"), shardLast.Master.ID)
}

func TestDiscoverShardMapRejectsErrorReply(t *testing.T) {
	fake := transport.NewFake([]byte("-ERR unknown command 'CLUSTER'\r\n"))
	_, err := DiscoverShardMap(fake)
	assert.Error(t, err)
}

func TestDiscoverShardMapHandlesChunkedReply(t *testing.T) {
	full := clusterSlotsReply
	mid := len(full) / 2
	fake := transport.NewFake([]byte(full[:mid]), []byte(full[mid:]))
	sm, err := DiscoverShardMap(fake)
	require.NoError(t, err)
	assert.Equal(t, topology.NodeID("node2"), sm.ShardForSlot(9000).Master.ID)
}
