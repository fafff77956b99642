package cluster

import (
	"strings"

	"clusterpipe/hashslot"
	"clusterpipe/topology"
)

var broadcastCommands = map[string]bool{
	"FLUSHALL": true,
	"FLUSHDB":  true,
	"QUIT":     true,
	"UNWATCH":  true,
}

func isBroadcast(request [][]byte) bool {
	if len(request) == 0 {
		return false
	}
	return broadcastCommands[strings.ToUpper(string(request[0]))]
}

// nodeConnectionsFor resolves the NodeConnection(s) a single raw request
// must be sent to: one for ordinary keyed commands, or one per distinct
// master for broadcast commands.
func (c *Connection) nodeConnectionsFor(shardMap *topology.ShardMap, request [][]byte) ([]*NodeConnection, error) {
	if isBroadcast(request) {
		masters := shardMap.Masters()
		conns := make([]*NodeConnection, 0, len(masters))
		for _, m := range masters {
			nc, ok := c.getNodeConn(m.ID)
			if !ok {
				return nil, ErrMissingNode
			}
			conns = append(conns, nc)
		}
		return conns, nil
	}

	slot, err := c.slotForRequest(request)
	if err != nil {
		return nil, err
	}
	shard := shardMap.ShardForSlot(slot)
	nc, ok := c.getNodeConn(shard.Master.ID)
	if !ok {
		return nil, ErrMissingNode
	}
	return []*NodeConnection{nc}, nil
}

// slotForRequest extracts the request's keys via the InfoMap and collapses
// them to a single slot. Key-less commands route to slot 0.
func (c *Connection) slotForRequest(request [][]byte) (uint16, error) {
	keys, known := c.infoMap.KeysForRequest(request)
	if !known {
		return 0, ErrUnsupportedCommand
	}
	return slotForKeys(keys)
}

// slotForKeys collapses a set of keys to the single slot they all share,
// or fails with ErrCrossSlot. No keys collapses to slot 0.
func slotForKeys(keys [][]byte) (uint16, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	slot := hashslot.Slot(keys[0])
	for _, k := range keys[1:] {
		if hashslot.Slot(k) != slot {
			return 0, ErrCrossSlot
		}
	}
	return slot, nil
}
