package mixer

import (
	"fmt"
	"time"
)

// mockController time-simulates playback without holding a channel.
// Elapsed play and pause time are tracked as two accumulators switched at
// each play/pause transition against the injected clock. The clip
// duration is still read from the real content metadata so natural
// completion lines up with what a live channel would have done.
type mockController struct {
	controllerState

	now      func() time.Time
	duration time.Duration

	playAccum  time.Duration
	pauseAccum time.Duration
	since      time.Time
	requested  bool
	paused     bool
}

func newMockController(id Identity, data SourceData, env *Env) (*mockController, error) {
	content, err := env.Catalog.Load(data.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrContentUnavailable, data.Content, err)
	}

	c := &mockController{
		controllerState: newControllerState(id, data),
		now:             env.now,
		duration:        content.Duration(),
		playAccum:       data.Offset,
		requested:       true,
		paused:          data.Paused,
		since:           env.now(),
	}
	return c, nil
}

// accumulating reports whether play time is currently advancing.
func (c *mockController) accumulating() bool {
	return c.requested && !c.paused
}

func (c *mockController) elapsed() time.Duration {
	if c.accumulating() {
		return c.playAccum + c.now().Sub(c.since)
	}
	return c.playAccum
}

func (c *mockController) Play() {
	if c.requested && !c.paused {
		return
	}
	if c.paused {
		c.pauseAccum += c.now().Sub(c.since)
	}
	c.requested = true
	c.paused = false
	c.since = c.now()
}

func (c *mockController) Pause(paused bool) {
	if !c.requested || paused == c.paused {
		return
	}
	now := c.now()
	if paused {
		c.playAccum += now.Sub(c.since)
	} else {
		c.pauseAccum += now.Sub(c.since)
	}
	c.paused = paused
	c.since = now
}

func (c *mockController) Stop() {
	if c.accumulating() {
		c.playAccum += c.now().Sub(c.since)
	}
	c.requested = false
}

func (c *mockController) Mute(muted bool) {
	c.muted = muted
}

func (c *mockController) SetVolume(mixed, ideal float64) {
	c.setVolume(mixed, ideal)
}

func (c *mockController) SetBearing(b Bearing) {
	c.bearing = b
}

func (c *mockController) UpdateSpatial(l Listener) bool {
	return c.updateSpatial(l)
}

func (c *mockController) Busy() bool {
	return c.requested && (c.loop || c.paused || c.elapsed() <= c.duration)
}

// progress is the playback offset a live channel would report: looping
// wraps modulo the clip duration.
func (c *mockController) progress() time.Duration {
	e := c.elapsed()
	if c.duration <= 0 {
		return 0
	}
	if c.loop {
		return e % c.duration
	}
	if e > c.duration {
		return c.duration
	}
	return e
}

func (c *mockController) Snapshot() SourceData {
	return SourceData{
		Content:     c.identity.Content,
		Range:       c.rng,
		Bearing:     c.bearing,
		IdealVolume: c.ideal,
		Loop:        c.loop,
		Offset:      c.progress(),
		Paused:      c.paused,
		Muted:       c.muted,
	}
}
