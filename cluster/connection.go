// Package cluster implements the cluster-aware pipelining engine: hash
// slot routing, per-node pipelined connections, implicit batching with a
// lazy reply-handle front end, and MOVED/ASK redirection handling.
package cluster

import (
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"clusterpipe/cmdinfo"
	"clusterpipe/hooks"
	"clusterpipe/topology"
	"clusterpipe/transport"
	"clusterpipe/wire"
)

// DialFunc opens a ConnectionContext to one node. Connect uses
// transport.Dial by default; tests supply a fake.
type DialFunc func(host string, port uint16, timeout time.Duration) (transport.ConnectionContext, error)

// Connection is the live handle applications hold: one pipeline, one
// shard map cell, and one NodeConnection per known node.
type Connection struct {
	nodeConnsMu sync.RWMutex
	nodeConns   map[topology.NodeID]*NodeConnection

	pipeline *Pipeline
	shardMap *topology.Cell

	infoMap   cmdinfo.InfoMap
	hooksImpl hooks.Hooks

	dial    DialFunc
	timeout time.Duration
}

// Connect dials every node named in the current contents of shardMapCell
// and returns a ready Connection. dial defaults to transport.Dial and h
// defaults to hooks.NoopHooks when nil.
func Connect(infoMap cmdinfo.InfoMap, shardMapCell *topology.Cell, timeout time.Duration, h hooks.Hooks, dial DialFunc) (*Connection, error) {
	if h == nil {
		h = hooks.NoopHooks{}
	}
	if dial == nil {
		dial = transport.Dial
	}

	sm := shardMapCell.Get()
	nodeConns := make(map[topology.NodeID]*NodeConnection, len(sm.Nodes()))
	for _, n := range sm.Nodes() {
		ctx, err := dial(n.Host, n.Port, timeout)
		if err != nil {
			for _, nc := range nodeConns {
				nc.close()
			}
			return nil, fmt.Errorf("cluster: connect to %s: %w", n.Addr(), err)
		}
		nodeConns[n.ID] = NewNodeConnection(n.ID, n.Addr(), ctx)
	}

	return &Connection{
		nodeConns: nodeConns,
		pipeline:  newPipeline(),
		shardMap:  shardMapCell,
		infoMap:   infoMap,
		hooksImpl: h,
		dial:      dial,
		timeout:   timeout,
	}, nil
}

// Disconnect closes every NodeConnection.
func Disconnect(c *Connection) error {
	c.nodeConnsMu.Lock()
	defer c.nodeConnsMu.Unlock()
	var firstErr error
	for _, nc := range c.nodeConns {
		if err := nc.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// RequestPipelined enqueues request per the pipeline state machine and
// returns a lazy handle for its eventual reply. refresh is invoked, at
// most once per batch, if the batch's replies reveal a MOVED redirect.
func RequestPipelined(refresh RefreshFunc, c *Connection, request RawRequest) LazyReply {
	target, idx := c.pipeline.submit(c, refresh, request)
	return LazyReply{target: target, index: idx}
}

// Nodes returns every distinct node, master and replica, in the
// connection's current shard map.
func Nodes(c *Connection) []topology.Node {
	return c.shardMap.Get().Nodes()
}

// Hooks returns the connection's telemetry sink.
func Hooks(c *Connection) hooks.Hooks {
	return c.hooksImpl
}

func (c *Connection) getNodeConn(id topology.NodeID) (*NodeConnection, bool) {
	c.nodeConnsMu.RLock()
	defer c.nodeConnsMu.RUnlock()
	nc, ok := c.nodeConns[id]
	return nc, ok
}

// afterRefresh dials any node present in the just-refreshed shard map but
// absent from nodeConns, satisfying the invariant that nodeConns covers
// every node the shard map names.
func (c *Connection) afterRefresh() {
	sm := c.shardMap.Get()
	for _, n := range sm.Nodes() {
		if _, ok := c.getNodeConn(n.ID); ok {
			continue
		}
		ctx, err := c.dial(n.Host, n.Port, c.timeout)
		if err != nil {
			continue
		}
		c.nodeConnsMu.Lock()
		if _, ok := c.nodeConns[n.ID]; !ok {
			c.nodeConns[n.ID] = NewNodeConnection(n.ID, n.Addr(), ctx)
		} else {
			ctx.Close()
		}
		c.nodeConnsMu.Unlock()
	}
}

func (c *Connection) collectKeys(requests []RawRequest) ([][]byte, error) {
	var keys [][]byte
	for _, r := range requests {
		ks, known := c.infoMap.KeysForRequest(r)
		if !known {
			return nil, ErrUnsupportedCommand
		}
		keys = append(keys, ks...)
	}
	return keys, nil
}

// retryBatch implements the redirection recovery routine of section 4.9,
// inspecting only the last reply of the batch. requests and replies must
// have the same length as what was actually sent (for the ASK branch,
// requests is the original, un-prefixed batch). requestID correlates the
// hooks this call fires back to the batch that triggered it.
func (c *Connection) retryBatch(requestID string, requests []RawRequest, replies []wire.Reply, refresh RefreshFunc, retryCount int) ([]wire.Reply, error) {
	if len(replies) == 0 {
		return replies, nil
	}
	last := replies[len(replies)-1]

	if reportedSlot, addr, ok := parseMoved(last); ok {
		keys, err := c.collectKeys(requests)
		if err != nil {
			return nil, err
		}
		slot, err := slotForKeys(keys)
		if err != nil {
			return nil, err
		}
		sm := c.shardMap.Get()
		shard := sm.ShardForSlot(slot)
		nc, found := c.getNodeConn(shard.Master.ID)
		if !found {
			return nil, &RedirectError{Kind: "MOVED", Slot: reportedSlot, Addr: addr}
		}
		c.hooksImpl.Redirected(requestID, "MOVED", reportedSlot, addr)
		return nc.requestNode(requests)
	}

	if reportedSlot, host, port, ok := parseAsk(last); ok {
		addr := net.JoinHostPort(host, strconv.Itoa(int(port)))
		sm := c.shardMap.Get()
		node, found := sm.NodeByHostPort(host, port)
		if found {
			nc, ok := c.getNodeConn(node.ID)
			if !ok {
				return nil, ErrMissingNode
			}
			c.hooksImpl.Redirected(requestID, "ASK", reportedSlot, addr)
			full := append([]RawRequest{{[]byte("ASKING")}}, requests...)
			replies2, err := nc.requestNode(full)
			if err != nil {
				return nil, err
			}
			return replies2[1:], nil
		}
		if retryCount == 0 {
			if refresh != nil {
				refresh()
				c.afterRefresh()
				c.hooksImpl.ShardMapRefreshed(requestID)
			}
			return c.retryBatch(requestID, requests, replies, refresh, 1)
		}
		return nil, &RedirectError{Kind: "ASK", Slot: reportedSlot, Addr: addr}
	}

	return replies, nil
}
