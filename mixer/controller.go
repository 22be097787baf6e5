package mixer

import (
	"errors"
	"time"

	"github.com/milk9111/soundscape/channel"
)

// ErrContentUnavailable reports that a content id cannot be resolved to a
// playable clip. The request is treated as if it had been stopped.
var ErrContentUnavailable = errors.New("mixer: content unavailable")

// A mixed level at or below this floor force-mutes the channel.
const volumeFloor = 0.05

// Env is the explicit context a mixer and its controllers run against:
// no process-wide singletons, and an injectable clock for deterministic
// tests.
type Env struct {
	Listener Listener
	Pool     channel.Pool
	Catalog  channel.Catalog
	Now      func() time.Time
	// PitchVariance enables small pitch randomization on live playback
	// to reduce repetition artifacts. Off for music buses and in tests.
	PitchVariance bool
}

func (e *Env) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// Controller is the per-source playback state machine. The mock variant
// time-simulates playback with no real resource; the live variant binds
// to one pooled channel. Both reconstruct exactly from a SourceData
// snapshot so a source can swap variants mid-flight without audible
// discontinuity.
type Controller interface {
	Play()
	Pause(paused bool)
	Stop()
	Mute(muted bool)
	// SetVolume applies the composed mixed level; ideal < 0 keeps the
	// current per-source ideal volume.
	SetVolume(mixed, ideal float64)
	SetBearing(b Bearing)
	// UpdateSpatial recomputes attenuation and priority against the
	// listener and reports whether the source is currently audible.
	UpdateSpatial(l Listener) bool

	Snapshot() SourceData
	Identity() Identity
	Busy() bool
	Muted() bool
	Priority() int
	IdealVolume() float64
}

// controllerState is the bookkeeping shared by both controller variants.
type controllerState struct {
	identity Identity
	rng      Range
	bearing  Bearing
	ideal    float64
	mixed    float64
	priority int
	loop     bool
	muted    bool // explicit mute request
	forced   bool // mixed level at or below the volume floor
	atten    float64
}

func newControllerState(id Identity, data SourceData) controllerState {
	return controllerState{
		identity: id,
		rng:      data.Range,
		bearing:  data.Bearing,
		ideal:    data.IdealVolume,
		mixed:    data.IdealVolume,
		loop:     data.Loop,
		muted:    data.Muted,
		priority: priorityUnknown,
		atten:    1,
	}
}

func (s *controllerState) Identity() Identity {
	return s.identity
}

func (s *controllerState) Muted() bool {
	return s.muted
}

func (s *controllerState) Priority() int {
	return s.priority
}

func (s *controllerState) IdealVolume() float64 {
	return s.ideal
}

// setVolume records the mixed level and returns whether the source is
// force-muted by the volume floor.
func (s *controllerState) setVolume(mixed, ideal float64) {
	s.mixed = mixed
	if ideal >= 0 {
		s.ideal = ideal
	}
	s.forced = mixed <= volumeFloor
}

// silenced is the realized mute state: an explicit request or the floor.
func (s *controllerState) silenced() bool {
	return s.muted || s.forced
}

// updateSpatial refreshes attenuation and priority. Returns audibility.
func (s *controllerState) updateSpatial(l Listener) bool {
	s.atten = Attenuation(s.rng, s.bearing, l)
	audible := s.atten > 0
	s.priority = Priority(s.rng, audible, s.silenced())
	return audible
}
