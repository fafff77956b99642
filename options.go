package clusterpipe

import (
	"time"

	"clusterpipe/cluster"
	"clusterpipe/cmdinfo"
	"clusterpipe/hooks"
	"clusterpipe/topology"
	"clusterpipe/transport"
)

// DiscoverFunc executes the wire-level equivalent of CLUSTER SLOTS against
// one already-connected node and returns the resulting ShardMap. NewClient
// uses it once to bootstrap, and again every time the pipeline core asks
// for a refresh.
type DiscoverFunc func(ctx transport.ConnectionContext) (*topology.ShardMap, error)

// Options configures a Client. NewClient starts from defaults (5s dial
// timeout, cmdinfo.Default(), no-op hooks, DiscoverShardMap) and applies each
// Option passed to it; the With* functions below build those Options.
type Options struct {
	dialTimeout time.Duration
	infoMap     cmdinfo.InfoMap
	hooks       hooks.Hooks
	dial        cluster.DialFunc
	discover    DiscoverFunc
}

// Option mutates an Options value.
type Option func(*Options)

func defaultOptions() Options {
	return Options{
		dialTimeout: 5 * time.Second,
		infoMap:     cmdinfo.Default(),
		hooks:       hooks.NoopHooks{},
		discover:    DiscoverShardMap,
	}
}

// WithDialTimeout bounds how long connecting to any single node may take.
func WithDialTimeout(d time.Duration) Option {
	return func(o *Options) { o.dialTimeout = d }
}

// WithInfoMap overrides the default command-to-key table, for callers
// extending or replacing it with cluster-specific commands.
func WithInfoMap(m cmdinfo.InfoMap) Option {
	return func(o *Options) { o.infoMap = m }
}

// WithHooks installs a telemetry sink other than the default no-op.
func WithHooks(h hooks.Hooks) Option {
	return func(o *Options) { o.hooks = h }
}

// WithDialFunc overrides how node connections are established, mainly for
// tests that need a fake transport.
func WithDialFunc(d cluster.DialFunc) Option {
	return func(o *Options) { o.dial = d }
}

// WithDiscoverFunc overrides how NewClient and subsequent refreshes learn
// the cluster's shard map, mainly for tests that fake CLUSTER SLOTS.
func WithDiscoverFunc(d DiscoverFunc) Option {
	return func(o *Options) { o.discover = d }
}
