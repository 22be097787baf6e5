package mixer

import (
	"math"
	"testing"
	"time"
)

func almost(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestDuckingManualSnaps(t *testing.T) {
	d := newDucking()
	if !almost(d.modifier, duckFull) {
		t.Fatalf("fresh modifier = %v, want %v", d.modifier, duckFull)
	}

	d.setManual(true)
	if !almost(d.modifier, duckDamp) {
		t.Fatalf("dampened modifier = %v, want %v", d.modifier, duckDamp)
	}
	if d.step(time.Second) {
		t.Fatalf("manual ducking must not leave a ramp running")
	}

	d.setManual(false)
	if !almost(d.modifier, duckFull) {
		t.Fatalf("restored modifier = %v, want %v", d.modifier, duckFull)
	}
}

func TestDuckingRampToBusy(t *testing.T) {
	d := newDucking()
	d.transition(soundscapeBusy)
	if !almost(d.modifier, duckFull) {
		t.Fatalf("transition must not snap; modifier = %v", d.modifier)
	}

	// Full-span ramp runs over the nominal period in linear steps.
	want := []float64{0.925, 0.85, 0.775, 0.7}
	for i, w := range want {
		if !d.step(250 * time.Millisecond) {
			t.Fatalf("step %d reported no change", i)
		}
		if !almost(d.modifier, w) {
			t.Fatalf("step %d modifier = %v, want %v", i, d.modifier, w)
		}
	}
	if d.ramp != nil {
		t.Fatalf("completed ramp should be cleared")
	}
	if d.step(time.Second) {
		t.Fatalf("settled ducking must not keep changing")
	}
}

func TestDuckingSameLevelKeepsRamp(t *testing.T) {
	d := newDucking()
	d.transition(soundscapeBusy)
	d.step(250 * time.Millisecond)

	// Re-asserting the same level must not restart the ramp from scratch.
	d.transition(soundscapeBusy)
	d.step(750 * time.Millisecond)
	if !almost(d.modifier, duckBusy) {
		t.Fatalf("modifier = %v, want %v after a full nominal period", d.modifier, duckBusy)
	}
}

func TestDuckingReverseMidRamp(t *testing.T) {
	d := newDucking()
	d.transition(soundscapeBusy)
	d.step(500 * time.Millisecond)
	if !almost(d.modifier, 0.85) {
		t.Fatalf("mid-ramp modifier = %v, want 0.85", d.modifier)
	}

	// The calm transition cancels the descent and ramps back up over a
	// proportionally shortened period.
	d.transition(soundscapeCalm)
	d.step(250 * time.Millisecond)
	if !almost(d.modifier, 0.925) {
		t.Fatalf("reversed modifier = %v, want 0.925", d.modifier)
	}
	d.step(250 * time.Millisecond)
	if !almost(d.modifier, duckFull) {
		t.Fatalf("restored modifier = %v, want %v", d.modifier, duckFull)
	}
}

func TestDuckingModifierBounds(t *testing.T) {
	d := newDucking()
	d.transition(soundscapeBusy)
	for i := 0; i < 100; i++ {
		d.step(37 * time.Millisecond)
		if d.modifier < duckDamp || d.modifier > duckFull {
			t.Fatalf("modifier %v escaped [%v, %v]", d.modifier, duckDamp, duckFull)
		}
	}
	if !almost(d.modifier, duckBusy) {
		t.Fatalf("modifier = %v, want %v", d.modifier, duckBusy)
	}
}

func TestAutoDuckingThroughMixer(t *testing.T) {
	r := newTestRig(3, testClips())
	m := NewMixer(r.env, Options{MaxLiveChannels: 3, AutoDucking: true, DuckingThreshold: 2})

	for _, content := range []string{"bgm", "rain"} {
		if _, err := m.Play(PlayRequest{Content: content, Range: AreaRange(ZoneOmni), Volume: 1, Loop: true}); err != nil {
			t.Fatalf("play %s: %v", content, err)
		}
	}
	m.UpdateActivity()

	// Two audible live sources meet the threshold; the first spatial tick
	// starts the ramp, later ticks walk it down.
	m.UpdateSpatial()
	if !almost(m.DuckingModifier(), duckFull) {
		t.Fatalf("modifier = %v before any ramp time", m.DuckingModifier())
	}

	r.clock.advance(500 * time.Millisecond)
	m.UpdateSpatial()
	if !almost(m.DuckingModifier(), 0.85) {
		t.Fatalf("mid-ramp modifier = %v, want 0.85", m.DuckingModifier())
	}
	h := r.handleFor("bgm")
	if h == nil || !almost(h.volume, 0.85) {
		t.Fatalf("channel volume should follow the ramp, got %+v", h)
	}

	r.clock.advance(time.Second)
	m.UpdateSpatial()
	if !almost(m.DuckingModifier(), duckBusy) {
		t.Fatalf("settled modifier = %v, want %v", m.DuckingModifier(), duckBusy)
	}

	// Dropping below the threshold ramps back to full volume.
	id, _ := m.ByContent("rain")
	m.Stop(id)
	r.clock.advance(250 * time.Millisecond)
	m.UpdateSpatial()
	for i := 0; i < 8; i++ {
		r.clock.advance(250 * time.Millisecond)
		m.UpdateSpatial()
	}
	if !almost(m.DuckingModifier(), duckFull) {
		t.Fatalf("recovered modifier = %v, want %v", m.DuckingModifier(), duckFull)
	}
}

func TestManualDuckingWinsOverAuto(t *testing.T) {
	r := newTestRig(3, testClips())
	m := NewMixer(r.env, Options{MaxLiveChannels: 3, AutoDucking: true, DuckingThreshold: 1})

	if _, err := m.Play(PlayRequest{Content: "bgm", Range: AreaRange(ZoneOmni), Volume: 1, Loop: true}); err != nil {
		t.Fatalf("play: %v", err)
	}
	m.UpdateActivity()
	m.UpdateSpatial()

	m.SetManualDucking(true)
	if !almost(m.DuckingModifier(), duckDamp) {
		t.Fatalf("manual modifier = %v, want %v", m.DuckingModifier(), duckDamp)
	}

	// The busy soundscape must not pull the modifier off the manual level.
	for i := 0; i < 8; i++ {
		r.clock.advance(250 * time.Millisecond)
		m.UpdateSpatial()
	}
	if !almost(m.DuckingModifier(), duckDamp) {
		t.Fatalf("auto ducking overrode manual: modifier = %v", m.DuckingModifier())
	}

	m.SetManualDucking(false)
	if !almost(m.DuckingModifier(), duckFull) {
		t.Fatalf("released modifier = %v, want %v", m.DuckingModifier(), duckFull)
	}
}
