package mixer

import (
	"fmt"

	"github.com/milk9111/soundscape/channel"
)

// liveController binds a source to exactly one pooled output channel for
// its lifetime and delegates playback to it. The handle goes back to the
// pool synchronously on Stop.
type liveController struct {
	controllerState

	handle channel.Handle
	pool   channel.Pool
	pitch  bool

	requested bool
	paused    bool
}

func newLiveController(id Identity, data SourceData, env *Env) (*liveController, error) {
	content, err := env.Catalog.Load(data.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrContentUnavailable, data.Content, err)
	}

	handle, ok := env.Pool.Acquire()
	if !ok {
		return nil, channel.ErrExhausted
	}

	if err := handle.SetStream(content); err != nil {
		env.Pool.Release(handle)
		return nil, fmt.Errorf("%w: %q: %v", ErrContentUnavailable, data.Content, err)
	}

	c := &liveController{
		controllerState: newControllerState(id, data),
		handle:          handle,
		pool:            env.Pool,
		pitch:           env.PitchVariance,
		requested:       true,
		paused:          data.Paused,
	}

	handle.SetLoop(data.Loop)
	if data.Offset > 0 {
		handle.SetProgress(data.Offset)
	}
	if env.Listener != nil {
		c.updateSpatial(env.Listener)
	}
	c.apply()
	if !data.Paused {
		handle.Play(c.pitch)
	}
	return c, nil
}

// apply pushes the realized volume and mute state to the channel.
func (c *liveController) apply() {
	if c.handle == nil {
		return
	}
	c.handle.SetVolume(c.mixed * c.atten)
	c.handle.Mute(c.silenced())
}

func (c *liveController) Play() {
	if c.handle == nil {
		return
	}
	c.requested = true
	c.paused = false
	c.handle.Play(c.pitch)
}

func (c *liveController) Pause(paused bool) {
	if c.handle == nil || !c.requested {
		return
	}
	c.paused = paused
	c.handle.Pause(paused)
}

func (c *liveController) Stop() {
	if c.handle == nil {
		return
	}
	c.requested = false
	c.pool.Release(c.handle)
	c.handle = nil
}

func (c *liveController) Mute(muted bool) {
	c.muted = muted
	c.apply()
}

func (c *liveController) SetVolume(mixed, ideal float64) {
	c.setVolume(mixed, ideal)
	c.apply()
}

func (c *liveController) SetBearing(b Bearing) {
	c.bearing = b
}

func (c *liveController) UpdateSpatial(l Listener) bool {
	audible := c.updateSpatial(l)
	c.apply()
	return audible
}

func (c *liveController) Busy() bool {
	if c.handle == nil || !c.requested {
		return false
	}
	return c.loop || c.paused || c.handle.Playing()
}

func (c *liveController) Snapshot() SourceData {
	data := SourceData{
		Content:     c.identity.Content,
		Range:       c.rng,
		Bearing:     c.bearing,
		IdealVolume: c.ideal,
		Loop:        c.loop,
		Paused:      c.paused,
		Muted:       c.muted,
	}
	if c.handle != nil {
		data.Offset = c.handle.Progress()
	}
	return data
}
