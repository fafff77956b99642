// Package hooks defines the telemetry seam the cluster core calls out
// through: request IDs, redirection notices, and per-batch sizes. The core
// never logs or measures anything itself, it only calls a Hooks value.
package hooks

import (
	"log"

	"github.com/google/uuid"
)

// Hooks receives telemetry from the cluster core. Every method must be
// cheap and non-blocking; the core calls these synchronously on the
// submission and evaluation paths.
type Hooks interface {
	// Redirected fires whenever a reply carries a MOVED or ASK error and
	// the core is about to retry it.
	Redirected(requestID string, kind string, slot uint16, addr string)
	// BatchFlushed fires once per node batch dispatched to the wire.
	BatchFlushed(requestID string, node string, size int)
	// ShardMapRefreshed fires after each topology refresh the core triggers:
	// on a MOVED reply, or on an ASK reply whose target is not in the map.
	ShardMapRefreshed(requestID string)
}

// RequestID mints a correlation ID for one flushed batch (one
// evaluatePipeline or evaluateTransaction call in the cluster core), the same
// role uuid.New().String() plays for one bus message in the wire protocol
// this package's sibling packages are modeled on.
func RequestID() string {
	return uuid.New().String()
}

// NoopHooks discards everything. It is the default when a caller supplies
// no Hooks.
type NoopHooks struct{}

func (NoopHooks) Redirected(string, string, uint16, string) {}
func (NoopHooks) BatchFlushed(string, string, int)          {}
func (NoopHooks) ShardMapRefreshed(string)                  {}

// LogHooks writes each event through the standard library logger, in the
// terse Printf style the rest of this codebase uses for its own
// diagnostics.
type LogHooks struct{}

func (LogHooks) Redirected(requestID, kind string, slot uint16, addr string) {
	log.Printf("cluster: request %s redirected (%s) slot %d -> %s", requestID, kind, slot, addr)
}

func (LogHooks) BatchFlushed(requestID, node string, size int) {
	log.Printf("cluster: request %s flushed %d commands to %s", requestID, size, node)
}

func (LogHooks) ShardMapRefreshed(requestID string) {
	log.Printf("cluster: request %s triggered a shard map refresh", requestID)
}
