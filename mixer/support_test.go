package mixer

import (
	"fmt"
	"time"

	"github.com/jakecoffman/cp"

	"github.com/milk9111/soundscape/channel"
)

// fakeClock is a manually advanced wall clock.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1000, 0)}
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

type fakeListener struct {
	pos     cp.Vector
	level   int
	surface int
	indoors bool
}

func (l *fakeListener) Position() cp.Vector { return l.pos }
func (l *fakeListener) Level() int          { return l.level }
func (l *fakeListener) SurfaceLevel() int   { return l.surface }
func (l *fakeListener) Indoors() bool       { return l.indoors }

type fakeContent struct {
	id  string
	dur time.Duration
}

func (c *fakeContent) ID() string              { return c.id }
func (c *fakeContent) Duration() time.Duration { return c.dur }

type fakeCatalog struct {
	clips map[string]time.Duration
}

func (c *fakeCatalog) Load(id string) (channel.Content, error) {
	dur, ok := c.clips[id]
	if !ok {
		return nil, fmt.Errorf("no clip %q", id)
	}
	return &fakeContent{id: id, dur: dur}, nil
}

type fakeHandle struct {
	content  channel.Content
	playing  bool
	paused   bool
	muted    bool
	loop     bool
	volume   float64
	progress time.Duration
	pitch    bool
	stops    int
}

func (h *fakeHandle) Duration() time.Duration {
	if h.content == nil {
		return 0
	}
	return h.content.Duration()
}

func (h *fakeHandle) Play(pitchVariance bool) {
	h.playing = true
	h.paused = false
	h.pitch = pitchVariance
}

func (h *fakeHandle) Pause(paused bool) { h.paused = paused }

func (h *fakeHandle) Stop() {
	h.playing = false
	h.progress = 0
	h.stops++
}

func (h *fakeHandle) Mute(muted bool)     { h.muted = muted }
func (h *fakeHandle) SetVolume(v float64) { h.volume = v }
func (h *fakeHandle) SetLoop(loop bool)   { h.loop = loop }

func (h *fakeHandle) SetStream(c channel.Content) error {
	h.content = c
	h.loop = false
	h.progress = 0
	return nil
}

func (h *fakeHandle) Progress() time.Duration { return h.progress }

func (h *fakeHandle) SetProgress(d time.Duration) {
	if dur := h.Duration(); dur > 0 {
		d = d % dur
	}
	h.progress = d
}

func (h *fakeHandle) Playing() bool { return h.playing && !h.paused }

// testRig bundles a mixer environment over fakes.
type testRig struct {
	clock    *fakeClock
	listener *fakeListener
	handles  []*fakeHandle
	pool     *channel.FixedPool
	env      Env
}

func newTestRig(nHandles int, clips map[string]time.Duration) *testRig {
	r := &testRig{
		clock:    newFakeClock(),
		listener: &fakeListener{},
	}
	hs := make([]channel.Handle, 0, nHandles)
	for i := 0; i < nHandles; i++ {
		h := &fakeHandle{volume: 1}
		r.handles = append(r.handles, h)
		hs = append(hs, h)
	}
	r.pool = channel.NewFixedPool(hs...)
	r.env = Env{
		Listener: r.listener,
		Pool:     r.pool,
		Catalog:  &fakeCatalog{clips: clips},
		Now:      r.clock.now,
	}
	return r
}

// handleFor finds the fake handle currently streaming the content id.
func (r *testRig) handleFor(content string) *fakeHandle {
	for _, h := range r.handles {
		if h.content != nil && h.content.ID() == content && h.playing {
			return h
		}
	}
	return nil
}
