package cluster

import (
	"fmt"
	"sync"

	"clusterpipe/topology"
	"clusterpipe/transport"
	"clusterpipe/wire"
)

// NodeConnection is a single TCP stream to one cluster node, plus the
// receive-buffer remainder incremental parsing leaves behind between
// requestNode calls. One instance lives for the life of a Connection per
// distinct node; a refresh adds instances for newly named nodes and never
// drops or re-creates existing ones, even for nodes no longer in the map.
//
// mu serializes requestNode end to end (send+flush+read). Multiple cells
// can flush concurrently to the same node — dispatchGroups only guarantees
// one goroutine per node within a single batch, not across batches from
// different, concurrently-resolving pipeline cells — so without this lock
// two requestNode calls could interleave writes on ctx or race on
// recvRemainder.
type NodeConnection struct {
	ID   topology.NodeID
	Addr string

	mu            sync.Mutex
	ctx           transport.ConnectionContext
	recvRemainder []byte
}

// NewNodeConnection wraps an already-dialed ConnectionContext.
func NewNodeConnection(id topology.NodeID, addr string, ctx transport.ConnectionContext) *NodeConnection {
	return &NodeConnection{ID: id, Addr: addr, ctx: ctx}
}

// Equal compares NodeConnections by node ID only, matching topology.Node.
func (n *NodeConnection) Equal(other *NodeConnection) bool { return n.ID == other.ID }

// requestNode sends every request in order, flushes once, then reads
// exactly len(requests) replies off the stream, in order. Safe to call
// concurrently on the same NodeConnection: mu is held for the full
// send+flush+read sequence, so concurrently-flushing pipeline cells
// routed to the same node still see requestNode calls fully serialized
// against one another.
func (n *NodeConnection) requestNode(requests []RawRequest) ([]wire.Reply, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, req := range requests {
		if err := n.ctx.Send(wire.RenderRequest(req)); err != nil {
			return nil, err
		}
	}
	if err := n.ctx.Flush(); err != nil {
		return nil, err
	}

	replies := make([]wire.Reply, 0, len(requests))
	buf := n.recvRemainder
	for i := 0; i < len(requests); i++ {
		reply, rest, err := n.readOneReply(buf)
		if err != nil {
			return nil, err
		}
		buf = rest
		replies = append(replies, reply)
	}
	n.recvRemainder = buf
	return replies, nil
}

// readOneReply loops recv-ing chunks and feeding them to the incremental
// parser until it reports Done, an EOF-after-short-read (connection
// closed), or a parse failure.
func (n *NodeConnection) readOneReply(seed []byte) (wire.Reply, []byte, error) {
	buf := seed
	for {
		rest, reply, ok, err := wire.ParseReply(buf)
		if err != nil {
			return wire.Reply{}, nil, fmt.Errorf("cluster: parse reply from %s: %w", n.Addr, err)
		}
		if ok {
			return reply, rest, nil
		}

		chunk, err := n.ctx.Recv()
		if err != nil {
			return wire.Reply{}, nil, fmt.Errorf("cluster: recv from %s: %w", n.Addr, err)
		}
		if len(chunk) == 0 {
			// The parser wanted more input and the socket has nothing left.
			// A "more" result with no bytes available means the peer closed
			// mid-frame: surface the canonical closed-stream error rather
			// than looping forever.
			if len(buf) == 0 {
				return wire.Reply{}, nil, fmt.Errorf("cluster: read reply from %s: %w", n.Addr, transport.ErrConnClosed)
			}
			return wire.Reply{}, nil, fmt.Errorf("cluster: short read from %s: %w", n.Addr, transport.ErrConnClosed)
		}
		buf = append(buf, chunk...)
	}
}

func (n *NodeConnection) close() error {
	return n.ctx.Close()
}
