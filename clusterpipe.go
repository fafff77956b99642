// Package clusterpipe is the connection-string front end over the
// cluster package: dial a handful of seed addresses, discover the shard
// map, and hand back a Client whose Request method is safe for
// concurrent use.
package clusterpipe

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"clusterpipe/cluster"
	"clusterpipe/hooks"
	"clusterpipe/topology"
	"clusterpipe/transport"
)

// Client is a bootstrapped handle to a cluster: a live Connection plus
// enough state to re-run discovery on demand.
type Client struct {
	conn         *cluster.Connection
	shardMapCell *topology.Cell
	dial         cluster.DialFunc
	discover     DiscoverFunc
	timeout      time.Duration
}

// NewClient dials seedAddrs in order until one answers CLUSTER SLOTS,
// builds the initial shard map from that reply, and connects to every
// node it names.
func NewClient(seedAddrs []string, opts ...Option) (*Client, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	dial := o.dial
	if dial == nil {
		dial = transport.Dial
	}

	sm, err := bootstrapShardMap(seedAddrs, dial, o.discover, o.dialTimeout)
	if err != nil {
		return nil, err
	}

	cell := topology.NewCell(sm)
	conn, err := cluster.Connect(o.infoMap, cell, o.dialTimeout, o.hooks, dial)
	if err != nil {
		return nil, err
	}

	return &Client{
		conn:         conn,
		shardMapCell: cell,
		dial:         dial,
		discover:     o.discover,
		timeout:      o.dialTimeout,
	}, nil
}

func bootstrapShardMap(seedAddrs []string, dial cluster.DialFunc, discover DiscoverFunc, timeout time.Duration) (*topology.ShardMap, error) {
	var lastErr error
	for _, addr := range seedAddrs {
		host, port, err := splitHostPort(addr)
		if err != nil {
			lastErr = err
			continue
		}
		ctx, err := dial(host, port, timeout)
		if err != nil {
			lastErr = err
			continue
		}
		sm, err := discover(ctx)
		ctx.Close()
		if err != nil {
			lastErr = err
			continue
		}
		return sm, nil
	}
	return nil, fmt.Errorf("clusterpipe: no seed address reachable, last error: %w", lastErr)
}

func splitHostPort(addr string) (string, uint16, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("clusterpipe: seed address %q: %w", addr, err)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return "", 0, fmt.Errorf("clusterpipe: seed address %q: %w", addr, err)
	}
	return host, uint16(port), nil
}

// refreshShardMap re-runs discovery against the first reachable node in
// the current shard map and stores the result, satisfying the pipeline's
// at-most-once-per-batch refresh contract. Failures are silent: the next
// MOVED reply will simply trigger another attempt.
func (cl *Client) refreshShardMap() {
	for _, n := range cl.shardMapCell.Get().Nodes() {
		ctx, err := cl.dial(n.Host, n.Port, cl.timeout)
		if err != nil {
			continue
		}
		sm, err := cl.discover(ctx)
		ctx.Close()
		if err != nil {
			continue
		}
		cl.shardMapCell.Store(sm)
		return
	}
}

// Request enqueues a single command into the client's implicit pipeline
// and returns a lazy handle for its reply.
func (cl *Client) Request(request cluster.RawRequest) cluster.LazyReply {
	return cluster.RequestPipelined(cl.refreshShardMap, cl.conn, request)
}

// Nodes returns every node, master and replica, in the client's current
// shard map.
func (cl *Client) Nodes() []topology.Node {
	return cluster.Nodes(cl.conn)
}

// Hooks returns the client's telemetry sink.
func (cl *Client) Hooks() hooks.Hooks {
	return cluster.Hooks(cl.conn)
}

// Close disconnects every node connection the client holds.
func (cl *Client) Close() error {
	return cluster.Disconnect(cl.conn)
}
