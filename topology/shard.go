package topology

import (
	"fmt"
	"sort"

	"clusterpipe/hashslot"
)

// Shard is one master plus its replicas, all serving the same set of hash
// slots at a given point in time.
type Shard struct {
	Master   Node
	Replicas []Node
}

// ShardMap is a dense, immutable mapping of every hash slot to the shard
// that currently owns it. Build one with NewShardMap and never mutate it
// afterward; refresh by constructing a new one and swapping it into a Cell.
type ShardMap struct {
	slots [hashslot.Count]Shard
}

// NewShardMap builds a ShardMap from a slot->shard table. It panics if slots
// does not have exactly hashslot.Count entries, since every slot in
// [0, Count) must resolve to exactly one shard.
func NewShardMap(slots []Shard) *ShardMap {
	if len(slots) != hashslot.Count {
		panic(fmt.Sprintf("topology: NewShardMap needs %d slots, got %d", hashslot.Count, len(slots)))
	}
	m := &ShardMap{}
	copy(m.slots[:], slots)
	return m
}

// ShardForSlot returns the shard owning slot in O(1).
func (m *ShardMap) ShardForSlot(slot uint16) Shard {
	return m.slots[slot]
}

// Nodes returns every distinct master and replica across all shards,
// ordered by ID for deterministic iteration.
func (m *ShardMap) Nodes() []Node {
	seen := make(map[NodeID]Node)
	for _, sh := range m.slots {
		seen[sh.Master.ID] = sh.Master
		for _, r := range sh.Replicas {
			seen[r.ID] = r
		}
	}
	out := make([]Node, 0, len(seen))
	for _, n := range seen {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Masters returns every distinct master across all shards, ordered by ID.
func (m *ShardMap) Masters() []Node {
	seen := make(map[NodeID]Node)
	for _, sh := range m.slots {
		seen[sh.Master.ID] = sh.Master
	}
	out := make([]Node, 0, len(seen))
	for _, n := range seen {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// NodeByHostPort linearly scans for the node bound to host:port. Only used
// on ASK redirection, which is rare enough that a scan is fine.
func (m *ShardMap) NodeByHostPort(host string, port uint16) (Node, bool) {
	for _, sh := range m.slots {
		if sh.Master.Host == host && sh.Master.Port == port {
			return sh.Master, true
		}
		for _, r := range sh.Replicas {
			if r.Host == host && r.Port == port {
				return r, true
			}
		}
	}
	return Node{}, false
}
