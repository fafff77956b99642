package cluster

import (
	"strings"
	"sync"

	"clusterpipe/wire"
)

// flushThreshold is the backpressure policy from the state machine table:
// enqueuing the 1001st request without an observed reply forces a flush.
const flushThreshold = 1000

type cellKind int

const (
	kindPending cellKind = iota
	kindTransactionPending
	kindExecuted
)

// RawRequest is one unrendered command: its name and arguments.
type RawRequest = [][]byte

// RefreshFunc fetches a fresh ShardMap from the cluster and installs it in
// the Connection's shard map cell. Supplied by the caller of
// requestPipelined and carried by whichever pipeline cell that call last
// touched, since it flushes later, out of band from the call that
// submitted it.
type RefreshFunc func()

// cell is one PipelineState instance: Pending or TransactionPending while
// accumulating requests, Executed once flushed. It is guarded by its own
// mutex (CMutex in the locking discipline) so that contention between
// reply handles resolving the same batch is independent of the
// connection-wide pipeline lock.
type cell struct {
	mu       sync.Mutex
	kind     cellKind
	queue    []RawRequest
	refresh  RefreshFunc
	replies  []wire.Reply
	err      error
	conn     *Connection
	pipeline *Pipeline
}

// resolve flushes the cell if it has not already been flushed. Safe to
// call more than once; only the first call does any work.
//
// Before flushing, it detaches the cell from Pipeline.current if it is
// still the live cell there. Without this, a cell reachable through both
// a caller's LazyReply and Pipeline.current could be read by flushLocked
// (under CMutex) while a concurrent submit appends to its queue (under
// PMutex), racing on the same slice and desyncing queue length from the
// already-captured reply vector.
func (c *cell) resolve() {
	c.pipeline.detachIfCurrent(c)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushLocked()
}

func (c *cell) flushLocked() {
	if c.kind == kindExecuted {
		return
	}
	switch c.kind {
	case kindPending:
		c.replies, c.err = c.conn.evaluatePipeline(c.queue, c.refresh)
	case kindTransactionPending:
		c.replies, c.err = c.conn.evaluateTransaction(c.queue, c.refresh)
	}
	c.kind = kindExecuted
}

func (c *cell) replyAt(index int) (wire.Reply, error) {
	c.pipeline.detachIfCurrent(c)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushLocked()
	if c.err != nil {
		return wire.Reply{}, c.err
	}
	return c.replies[index], nil
}

// Pipeline is the connection-level mutable cell reference, protected by
// PMutex. Submitting a request only ever touches this lock briefly to
// decide the next state and, for the transitions that must flush inline
// (MULTI arriving mid-batch, EXEC closing a transaction, the size
// threshold), to detach the outgoing cell before releasing the lock. The
// detached cell is flushed afterward holding only its own CMutex, per the
// lock order PMutex -> CMutex -> shard map mutex.
type Pipeline struct {
	mu      sync.Mutex
	current *cell
}

func newPipeline() *Pipeline { return &Pipeline{} }

// detachIfCurrent replaces p.current with a fresh Pending cell if c is
// still the live cell, under PMutex. Called before any flush, whether
// triggered by a sealing transition (submit already did this detach
// itself, so this is a no-op there) or by a LazyReply lazily observing a
// cell that submit never sealed. Once this returns, no future submit can
// append to c: it is no longer reachable as p.current.
func (p *Pipeline) detachIfCurrent(c *cell) {
	p.mu.Lock()
	if p.current == c {
		p.current = &cell{kind: kindPending, conn: c.conn, pipeline: p}
	}
	p.mu.Unlock()
}

// submit applies one arriving request to the state machine and returns
// the cell that will hold its reply along with its index in that cell's
// eventual batch. If the transition must flush a sealed batch inline, it
// is flushed here, after PMutex is released.
func (p *Pipeline) submit(conn *Connection, refresh RefreshFunc, request RawRequest) (*cell, int) {
	p.mu.Lock()

	if p.current == nil {
		p.current = &cell{kind: kindPending, conn: conn, pipeline: p}
	}
	cur := p.current

	switch cur.kind {
	case kindExecuted:
		kind := kindPending
		if isMultiCommand(request) {
			kind = kindTransactionPending
		}
		fresh := &cell{kind: kind, queue: []RawRequest{request}, refresh: refresh, conn: conn, pipeline: p}
		p.current = fresh
		p.mu.Unlock()
		return fresh, 0

	case kindPending:
		if isMultiCommand(request) {
			sealed := cur
			sealed.refresh = refresh
			fresh := &cell{kind: kindTransactionPending, queue: []RawRequest{request}, refresh: refresh, conn: conn, pipeline: p}
			p.current = fresh
			p.mu.Unlock()
			sealed.resolve()
			return fresh, 0
		}
		cur.queue = append(cur.queue, request)
		cur.refresh = refresh
		idx := len(cur.queue) - 1
		if len(cur.queue) > flushThreshold {
			sealed := cur
			p.current = &cell{kind: kindPending, conn: conn, pipeline: p}
			p.mu.Unlock()
			sealed.resolve()
			return sealed, idx
		}
		p.mu.Unlock()
		return cur, idx

	default: // kindTransactionPending
		cur.queue = append(cur.queue, request)
		cur.refresh = refresh
		idx := len(cur.queue) - 1
		if isExecCommand(request) {
			sealed := cur
			p.current = &cell{kind: kindPending, conn: conn, pipeline: p}
			p.mu.Unlock()
			sealed.resolve()
			return sealed, idx
		}
		p.mu.Unlock()
		return cur, idx
	}
}

func isMultiCommand(r RawRequest) bool {
	return len(r) > 0 && strings.EqualFold(string(r[0]), "MULTI")
}

func isExecCommand(r RawRequest) bool {
	return len(r) > 0 && strings.EqualFold(string(r[0]), "EXEC")
}

// LazyReply is a deferred reply handle returned by requestPipelined. It
// resolves, and memoizes, on first observation via Get.
type LazyReply struct {
	target *cell
	index  int
}

// Get blocks until this handle's batch has executed and returns its
// reply. Calling Get more than once returns the same value without
// re-sending anything.
func (h LazyReply) Get() (wire.Reply, error) {
	return h.target.replyAt(h.index)
}
