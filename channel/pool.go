// Package channel provides the bounded pool of real audio output channels
// that the mixer schedules sources onto. A Handle is one physical channel;
// the pool guarantees at most one borrower per handle at a time.
package channel

import (
	"errors"
	"sync"
	"time"
)

var ErrExhausted = errors.New("channel: pool exhausted")

// Handle is one pooled output channel. A borrower owns the handle
// exclusively until it is released back to the pool.
type Handle interface {
	Duration() time.Duration
	Play(pitchVariance bool)
	Pause(paused bool)
	Stop()
	Mute(muted bool)
	SetVolume(v float64)
	SetLoop(loop bool)
	SetStream(c Content) error
	// Progress is the playback position in seconds of stream time.
	// Writes wrap modulo the stream duration.
	Progress() time.Duration
	SetProgress(d time.Duration)
	Playing() bool
}

// Content is a loadable clip resolved by a Catalog.
type Content interface {
	ID() string
	Duration() time.Duration
}

// Catalog maps a content id to clip metadata and a loadable stream.
type Catalog interface {
	Load(id string) (Content, error)
}

// Pool hands out Handles up to a fixed capacity and reuses them on release.
type Pool interface {
	Acquire() (Handle, bool)
	Release(h Handle)
	Cap() int
}

// FixedPool is a bounded Pool over a fixed set of handles.
type FixedPool struct {
	mu   sync.Mutex
	free []Handle
	size int
}

func NewFixedPool(handles ...Handle) *FixedPool {
	free := make([]Handle, len(handles))
	copy(free, handles)
	return &FixedPool{free: free, size: len(handles)}
}

func (p *FixedPool) Acquire() (Handle, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.free) == 0 {
		return nil, false
	}
	h := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	return h, true
}

// Release stops the handle and returns it to the free list. Releasing a
// handle that was never acquired from this pool grows it past capacity;
// callers must return only what they borrowed.
func (p *FixedPool) Release(h Handle) {
	if h == nil {
		return
	}
	h.Stop()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.free = append(p.free, h)
}

func (p *FixedPool) Cap() int {
	return p.size
}
