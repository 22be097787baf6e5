package mixer

import (
	"time"

	"github.com/milk9111/soundscape/common"
)

// Ducking modifier levels. Manual ducking snaps to the dampened level;
// the auto ramp settles at the busy level.
const (
	duckFull    = 1.0
	duckBusy    = 0.7
	duckDamp    = 0.4
	duckNominal = time.Second
)

type duckMode int

const (
	duckModeNone duckMode = iota
	duckModeManual
	duckModeAuto
)

// soundscapeLevel is the auto-ducking classification of how busy the mix
// currently sounds.
type soundscapeLevel int

const (
	soundscapeCalm soundscapeLevel = iota
	soundscapeBusy
)

// ducking holds the volume-dampening state of one mixer: an instant
// manual switch or a gradual, cancellable ramp driven by soundscape
// busyness. At most one ramp is in flight.
type ducking struct {
	mode     duckMode
	modifier float64
	level    soundscapeLevel
	ramp     *Task
}

func newDucking() ducking {
	return ducking{modifier: duckFull}
}

func (d *ducking) cancelRamp() {
	if d.ramp != nil {
		d.ramp.Cancel()
		d.ramp = nil
	}
}

// setManual snaps the modifier with no ramp.
func (d *ducking) setManual(damp bool) {
	d.cancelRamp()
	if damp {
		d.mode = duckModeManual
		d.modifier = duckDamp
		return
	}
	d.mode = duckModeNone
	d.modifier = duckFull
}

// transition moves the soundscape level and starts a ramp toward the
// matching modifier. Any in-flight ramp is cancelled first so two ramps
// never fight over the modifier.
func (d *ducking) transition(level soundscapeLevel) {
	if d.mode == duckModeAuto && d.level == level {
		return
	}
	d.mode = duckModeAuto
	d.level = level

	target := duckFull
	if level == soundscapeBusy {
		target = duckBusy
	}

	d.cancelRamp()
	from := d.modifier
	span := target - from
	if span < 0 {
		span = -span
	}
	if span == 0 {
		return
	}

	// Linear ramp over a 1-second nominal period, proportionally
	// shortened when the modifier is already partway there.
	total := time.Duration(float64(duckNominal) * span / (duckFull - duckBusy))
	var elapsed time.Duration
	d.ramp = NewTask(func(dt time.Duration) bool {
		elapsed += dt
		t := common.Clamp01(float64(elapsed) / float64(total))
		d.modifier = clampModifier(common.Lerp(from, target, t))
		return t >= 1
	})
}

// step advances the in-flight ramp and reports whether the modifier
// changed this tick.
func (d *ducking) step(dt time.Duration) bool {
	if d.ramp == nil {
		return false
	}
	before := d.modifier
	d.ramp.Step(dt)
	if d.ramp.Done() {
		d.ramp = nil
	}
	return d.modifier != before
}

func clampModifier(v float64) float64 {
	if v < duckDamp {
		return duckDamp
	}
	if v > duckFull {
		return duckFull
	}
	return v
}
