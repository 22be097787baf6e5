package mixer

import (
	"errors"
	"log"
	"sort"
	"time"

	"github.com/milk9111/soundscape/channel"
	"github.com/milk9111/soundscape/common"
)

const (
	defaultMaxLive       = 8
	defaultDuckThreshold = 4
)

// Options configure one mixer bus.
type Options struct {
	// MaxLiveChannels caps how many sources hold a real channel at once.
	// Defaults to the pool capacity.
	MaxLiveChannels int
	// DuckingThreshold is the audible-live-source count at which the
	// soundscape turns busy when auto-ducking is enabled.
	DuckingThreshold int
	AutoDucking      bool
	// Volume is the bus volume setting. The zero value means full
	// volume; callers that need a truly silent bus use SetVolume(0).
	Volume float64
}

// Mixer owns the sources of one logical bus, enforces the live-channel
// budget through priority-based admission, and composes the volume
// pipeline (setting x ducking modifier x ideal volume x attenuation).
//
// A mixer is a single logical thread of control: UpdateActivity and
// UpdateSpatial are driven by an external scheduler at independent
// cadences and must not run concurrently with each other or with
// playback requests on the same mixer.
type Mixer struct {
	env Env

	maxLive       int
	duckThreshold int
	autoDuck      bool
	setting       float64

	sources     []*activeSource
	virtualized bool
	duck        ducking

	onFinished   func(Identity)
	nextInstance uint64
	lastSpatial  time.Time
}

func NewMixer(env Env, opts Options) *Mixer {
	maxLive := opts.MaxLiveChannels
	if maxLive <= 0 {
		if env.Pool != nil {
			maxLive = env.Pool.Cap()
		}
		if maxLive <= 0 {
			maxLive = defaultMaxLive
		}
	}
	threshold := opts.DuckingThreshold
	if threshold <= 0 {
		threshold = defaultDuckThreshold
	}
	volume := opts.Volume
	if volume <= 0 {
		volume = 1
	}

	return &Mixer{
		env:           env,
		maxLive:       maxLive,
		duckThreshold: threshold,
		autoDuck:      opts.AutoDucking,
		setting:       common.Clamp01(volume),
		duck:          newDucking(),
	}
}

// PlayRequest asks the mixer to start one playback instance.
type PlayRequest struct {
	Content string
	Range   Range
	Bearing Bearing
	// Volume is the per-source ideal volume in [0, 1].
	Volume float64
	Loop   bool
	Offset time.Duration
	Paused bool
}

// Play creates a source for the request. New sources start mock and
// compete for a channel on the next admission pass.
func (m *Mixer) Play(req PlayRequest) (Identity, error) {
	m.nextInstance++
	id := Identity{Content: req.Content, Instance: m.nextInstance}

	data := SourceData{
		Content:     req.Content,
		Range:       req.Range,
		Bearing:     req.Bearing,
		IdealVolume: common.Clamp01(req.Volume),
		Loop:        req.Loop,
		Offset:      req.Offset,
		Paused:      req.Paused,
	}
	src, err := newActiveSource(id, data, &m.env)
	if err != nil {
		return Identity{}, err
	}
	src.ctrl.SetVolume(m.mixedLevel(data.IdealVolume), -1)
	m.sources = append(m.sources, src)
	return id, nil
}

// Stop halts the source synchronously, releasing its channel if it holds
// one. Returns false when the identity is unknown (already gone).
func (m *Mixer) Stop(id Identity) bool {
	i := m.find(id)
	if i < 0 {
		return false
	}
	m.sources[i].ctrl.Stop()
	m.sources = append(m.sources[:i], m.sources[i+1:]...)
	return true
}

func (m *Mixer) StopAll() {
	for _, s := range m.sources {
		s.ctrl.Stop()
	}
	m.sources = nil
}

func (m *Mixer) PauseAll(paused bool) {
	for _, s := range m.sources {
		s.ctrl.Pause(paused)
	}
}

// Volume returns the source's ideal volume, or a negative value when the
// identity is unknown.
func (m *Mixer) Volume(id Identity) float64 {
	i := m.find(id)
	if i < 0 {
		return -1
	}
	return m.sources[i].ctrl.IdealVolume()
}

func (m *Mixer) SetSourceVolume(id Identity, ideal float64) bool {
	i := m.find(id)
	if i < 0 {
		return false
	}
	ideal = common.Clamp01(ideal)
	m.sources[i].ctrl.SetVolume(m.mixedLevel(ideal), ideal)
	return true
}

func (m *Mixer) SetSourceBearing(id Identity, b Bearing) bool {
	i := m.find(id)
	if i < 0 {
		return false
	}
	m.sources[i].ctrl.SetBearing(b)
	return true
}

func (m *Mixer) MuteSource(id Identity, muted bool) bool {
	i := m.find(id)
	if i < 0 {
		return false
	}
	m.sources[i].ctrl.Mute(muted)
	return true
}

// ByContent finds the first playing instance of a content id, for
// at-most-one-instance lookups such as BGM tracks.
func (m *Mixer) ByContent(content string) (Identity, bool) {
	for _, s := range m.sources {
		if id := s.ctrl.Identity(); id.Content == content {
			return id, true
		}
	}
	return Identity{}, false
}

// SetVolume sets the bus volume setting and reapplies the pipeline.
func (m *Mixer) SetVolume(setting float64) {
	m.setting = common.Clamp01(setting)
	m.applyVolumes()
}

func (m *Mixer) VolumeSetting() float64 {
	return m.setting
}

// OnPlaybackFinished registers the callback fired when a source
// completes naturally. Explicit stops never notify.
func (m *Mixer) OnPlaybackFinished(fn func(Identity)) {
	m.onFinished = fn
}

func (m *Mixer) LiveCount() int {
	n := 0
	for _, s := range m.sources {
		if s.strategy == StrategyLive {
			n++
		}
	}
	return n
}

func (m *Mixer) Len() int {
	return len(m.sources)
}

// SetVirtualized forces every source to mock immediately when true
// (preserving state without consuming channels, e.g. on scene teardown);
// turning it off triggers a fresh admission pass.
func (m *Mixer) SetVirtualized(v bool) {
	if m.virtualized == v {
		return
	}
	m.virtualized = v
	if !v {
		m.promoteLive()
		return
	}

	var drop []*activeSource
	for _, s := range m.sources {
		if err := s.enforce(StrategyMock, &m.env); err != nil {
			log.Printf("mixer: virtualize %q: %v", s.ctrl.Identity().Content, err)
			s.ctrl.Stop()
			drop = append(drop, s)
			continue
		}
		s.ctrl.SetVolume(m.mixedLevel(s.ctrl.IdealVolume()), -1)
	}
	m.removeSources(drop)
}

func (m *Mixer) Virtualized() bool {
	return m.virtualized
}

// SetManualDucking instantly dampens (or restores) the ducking modifier
// with no ramp. Callers must not run manual and auto ducking at once.
func (m *Mixer) SetManualDucking(damp bool) {
	m.duck.setManual(damp)
	m.applyVolumes()
}

// SetAutoDucking enables the busyness-driven ducking ramp. A threshold
// of zero keeps the current one.
func (m *Mixer) SetAutoDucking(enabled bool, threshold int) {
	m.autoDuck = enabled
	if threshold > 0 {
		m.duckThreshold = threshold
	}
	if !enabled && m.duck.mode == duckModeAuto {
		m.duck.setManual(false)
		m.applyVolumes()
	}
}

// DuckingModifier is the current dampening modifier in [0.4, 1.0].
func (m *Mixer) DuckingModifier() float64 {
	return m.duck.modifier
}

// UpdateActivity drops finished sources, fires the playback-finished
// notification for natural completions, and refills freed channels.
func (m *Mixer) UpdateActivity() {
	var finished []Identity
	kept := m.sources[:0]
	for _, s := range m.sources {
		if s.ctrl.Busy() {
			kept = append(kept, s)
			continue
		}
		id := s.ctrl.Identity()
		s.ctrl.Stop()
		finished = append(finished, id)
	}
	m.sources = kept

	// Callbacks run after the list is consistent: a handler may start
	// the next track on this same mixer.
	if m.onFinished != nil {
		for _, id := range finished {
			m.onFinished(id)
		}
	}

	if !m.virtualized {
		m.promoteLive()
	}
}

// UpdateSpatial advances the ducking ramp, recomputes audibility and
// priority for every source, transitions the soundscape level, re-sorts
// the waiting sub-range, and runs admission so freed slots go to the
// highest-priority waiters.
func (m *Mixer) UpdateSpatial() {
	now := m.env.now()
	var dt time.Duration
	if !m.lastSpatial.IsZero() {
		dt = now.Sub(m.lastSpatial)
	}
	m.lastSpatial = now

	if m.duck.step(dt) {
		m.applyVolumes()
	}

	audibleLive := 0
	for _, s := range m.sources {
		audible := s.ctrl.UpdateSpatial(m.env.Listener)
		if audible && s.strategy == StrategyLive {
			audibleLive++
		}
	}

	if m.autoDuck && m.duck.mode != duckModeManual {
		level := soundscapeCalm
		if audibleLive >= m.duckThreshold {
			level = soundscapeBusy
		}
		m.duck.transition(level)
	}

	m.sortWaiting()
	if !m.virtualized {
		m.promoteLive()
	}
}

// promoteLive walks the list front to back and promotes non-live sources
// until the channel budget is met. Sources already live are never
// demoted here; a source only loses its channel by finishing, being
// stopped, or full virtualization.
func (m *Mixer) promoteLive() {
	live := m.LiveCount()
	if live >= m.maxLive {
		return
	}

	var drop []*activeSource
	for _, s := range m.sources {
		if live >= m.maxLive {
			break
		}
		if s.strategy == StrategyLive {
			continue
		}
		err := s.enforce(StrategyLive, &m.env)
		if err == nil {
			// The replacement controller starts from the snapshot's raw
			// ideal volume; re-apply the composed level so the channel
			// plays at setting x ducking x ideal and the floor mute holds.
			s.ctrl.SetVolume(m.mixedLevel(s.ctrl.IdealVolume()), -1)
			live++
			continue
		}
		if errors.Is(err, channel.ErrExhausted) {
			// Momentarily out of channels; the source stays mock and
			// is retried next tick.
			break
		}
		// The swap could not reconstruct the snapshot. That corrupts
		// the audibility/priority invariant, so surface it and treat
		// the source as stopped.
		log.Printf("mixer: promote %q: %v", s.ctrl.Identity().Content, err)
		s.ctrl.Stop()
		drop = append(drop, s)
	}
	m.removeSources(drop)
}

// sortWaiting stable-sorts the non-live sources by ascending priority
// score, leaving live sources in place.
func (m *Mixer) sortWaiting() {
	idx := make([]int, 0, len(m.sources))
	waiting := make([]*activeSource, 0, len(m.sources))
	for i, s := range m.sources {
		if s.strategy != StrategyLive {
			idx = append(idx, i)
			waiting = append(waiting, s)
		}
	}
	sort.SliceStable(waiting, func(a, b int) bool {
		return waiting[a].ctrl.Priority() < waiting[b].ctrl.Priority()
	})
	for k, i := range idx {
		m.sources[i] = waiting[k]
	}
}

func (m *Mixer) mixedLevel(ideal float64) float64 {
	return m.setting * m.duck.modifier * ideal
}

func (m *Mixer) applyVolumes() {
	for _, s := range m.sources {
		s.ctrl.SetVolume(m.mixedLevel(s.ctrl.IdealVolume()), -1)
	}
}

func (m *Mixer) find(id Identity) int {
	for i, s := range m.sources {
		if s.ctrl.Identity() == id {
			return i
		}
	}
	return -1
}

func (m *Mixer) removeSources(drop []*activeSource) {
	if len(drop) == 0 {
		return
	}
	dead := make(map[*activeSource]bool, len(drop))
	for _, s := range drop {
		dead[s] = true
	}
	kept := m.sources[:0]
	for _, s := range m.sources {
		if !dead[s] {
			kept = append(kept, s)
		}
	}
	m.sources = kept
}
