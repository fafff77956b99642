package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clusterpipe/hashslot"
)

func flatMap(t *testing.T, sh Shard) *ShardMap {
	t.Helper()
	slots := make([]Shard, hashslot.Count)
	for i := range slots {
		slots[i] = sh
	}
	return NewShardMap(slots)
}

func TestNewShardMapRejectsWrongSize(t *testing.T) {
	assert.Panics(t, func() {
		NewShardMap(make([]Shard, 3))
	})
}

func TestShardForSlotAndNodes(t *testing.T) {
	master := Node{ID: "n1", Role: Master, Host: "10.0.0.1", Port: 6379}
	replica := Node{ID: "n2", Role: Replica, Host: "10.0.0.2", Port: 6379}
	m := flatMap(t, Shard{Master: master, Replicas: []Node{replica}})

	got := m.ShardForSlot(1000)
	assert.Equal(t, master, got.Master)
	require.Len(t, got.Replicas, 1)
	assert.Equal(t, replica, got.Replicas[0])

	nodes := m.Nodes()
	assert.Len(t, nodes, 2)
	assert.Len(t, m.Masters(), 1)
}

func TestNodeByHostPort(t *testing.T) {
	master := Node{ID: "n1", Role: Master, Host: "10.0.0.1", Port: 6379}
	m := flatMap(t, Shard{Master: master})

	found, ok := m.NodeByHostPort("10.0.0.1", 6379)
	assert.True(t, ok)
	assert.Equal(t, master, found)

	_, ok = m.NodeByHostPort("10.0.0.9", 6379)
	assert.False(t, ok)
}

func TestCellSwapIsWholesale(t *testing.T) {
	m1 := flatMap(t, Shard{Master: Node{ID: "a"}})
	m2 := flatMap(t, Shard{Master: Node{ID: "b"}})

	cell := NewCell(m1)
	assert.Equal(t, NodeID("a"), cell.Get().ShardForSlot(0).Master.ID)

	cell.Store(m2)
	assert.Equal(t, NodeID("b"), cell.Get().ShardForSlot(0).Master.ID)
	// m1 itself must be untouched by the swap.
	assert.Equal(t, NodeID("a"), m1.ShardForSlot(0).Master.ID)
}
