package clusterpipe

import (
	"fmt"
	"net"
	"strconv"

	"clusterpipe/hashslot"
	"clusterpipe/topology"
	"clusterpipe/transport"
	"clusterpipe/wire"
)

// DiscoverShardMap sends CLUSTER SLOTS over ctx and builds a ShardMap from
// the reply. This is the concrete implementation of the topology discovery
// collaborator the core treats as an opaque refreshShardMap callback.
func DiscoverShardMap(ctx transport.ConnectionContext) (*topology.ShardMap, error) {
	req := wire.RenderRequest([][]byte{[]byte("CLUSTER"), []byte("SLOTS")})
	if err := ctx.Send(req); err != nil {
		return nil, fmt.Errorf("clusterpipe: send CLUSTER SLOTS: %w", err)
	}
	if err := ctx.Flush(); err != nil {
		return nil, fmt.Errorf("clusterpipe: flush CLUSTER SLOTS: %w", err)
	}

	var buf []byte
	for {
		_, reply, ok, err := wire.ParseReply(buf)
		if err != nil {
			return nil, fmt.Errorf("clusterpipe: parse CLUSTER SLOTS reply: %w", err)
		}
		if ok {
			return shardMapFromSlotsReply(reply)
		}
		chunk, err := ctx.Recv()
		if err != nil {
			return nil, fmt.Errorf("clusterpipe: recv CLUSTER SLOTS reply: %w", err)
		}
		if len(chunk) == 0 {
			return nil, fmt.Errorf("clusterpipe: CLUSTER SLOTS: %w", transport.ErrConnClosed)
		}
		buf = append(buf, chunk...)
	}
}

func shardMapFromSlotsReply(reply wire.Reply) (*topology.ShardMap, error) {
	if reply.Kind == wire.Error {
		return nil, fmt.Errorf("clusterpipe: CLUSTER SLOTS: %s", reply.Str)
	}
	if reply.Kind != wire.Array {
		return nil, fmt.Errorf("clusterpipe: CLUSTER SLOTS: expected an array reply")
	}

	slots := make([]topology.Shard, hashslot.Count)
	for _, entry := range reply.Array {
		if len(entry.Array) < 3 {
			continue
		}
		start := entry.Array[0].Int
		end := entry.Array[1].Int

		master, err := nodeFromTriplet(entry.Array[2], topology.Master)
		if err != nil {
			return nil, err
		}
		replicas := make([]topology.Node, 0, len(entry.Array)-3)
		for _, r := range entry.Array[3:] {
			replica, err := nodeFromTriplet(r, topology.Replica)
			if err != nil {
				return nil, err
			}
			replicas = append(replicas, replica)
		}

		shard := topology.Shard{Master: master, Replicas: replicas}
		for s := start; s <= end; s++ {
			slots[s] = shard
		}
	}

	return topology.NewShardMap(slots), nil
}

func nodeFromTriplet(entry wire.Reply, role topology.NodeRole) (topology.Node, error) {
	if len(entry.Array) < 2 {
		return topology.Node{}, fmt.Errorf("clusterpipe: malformed node entry in CLUSTER SLOTS reply")
	}
	host := entry.Array[0].String()
	port := uint16(entry.Array[1].Int)

	id := topology.NodeID(net.JoinHostPort(host, strconv.Itoa(int(port))))
	if len(entry.Array) >= 3 {
		if nodeID := entry.Array[2].String(); nodeID != "" {
			id = topology.NodeID(nodeID)
		}
	}

	return topology.Node{ID: id, Role: role, Host: host, Port: port}, nil
}
