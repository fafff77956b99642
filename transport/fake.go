package transport

import "sync"

// Fake is an in-memory ConnectionContext for tests: Send appends to a sent
// log, and Recv drains a queue of byte chunks the test pre-loads, so
// partial-read and EOF framing edge cases can be driven deterministically
// without a real socket.
type Fake struct {
	mu         sync.Mutex
	sent       [][]byte
	flushCount int
	chunks     [][]byte
	closed     bool
}

// NewFake returns a Fake whose Recv calls will yield chunks in order, then
// empty slices (simulating EOF) once exhausted.
func NewFake(chunks ...[]byte) *Fake {
	return &Fake{chunks: append([][]byte(nil), chunks...)}
}

func (f *Fake) Send(b []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, append([]byte(nil), b...))
	return nil
}

func (f *Fake) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushCount++
	return nil
}

// FlushCount returns how many times Flush was called, letting tests verify
// that requests bound for one node share a single flush.
func (f *Fake) FlushCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flushCount
}

func (f *Fake) Recv() ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.chunks) == 0 {
		return nil, nil
	}
	c := f.chunks[0]
	f.chunks = f.chunks[1:]
	return c, nil
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Sent returns every byte slice passed to Send, in order.
func (f *Fake) Sent() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.sent...)
}

// Closed reports whether Close was called.
func (f *Fake) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
