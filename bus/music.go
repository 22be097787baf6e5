// Package bus layers the domain schedulers (music playlist, effects and
// ambience) on top of mixer buses.
package bus

import (
	"log"
	"time"

	"github.com/milk9111/soundscape/mixer"
)

const musicFadeDuration = time.Second

// Music sequences a playlist on a dedicated mixer. Only one song is
// active at a time: when a new track is requested while another is
// playing, the current one fades to silence before the switch. Natural
// track completion chains the next playlist entry.
type Music struct {
	mx       *mixer.Mixer
	playlist []string
	index    int
	picker   *Picker

	current    mixer.Identity
	hasCurrent bool
	fade       *mixer.Task
	pending    string
	hasPending bool
}

func NewMusic(mx *mixer.Mixer, playlist []string) *Music {
	m := &Music{mx: mx, playlist: playlist}
	mx.OnPlaybackFinished(m.onFinished)
	return m
}

// SetPicker installs a scripted next-track picker. A nil picker falls
// back to sequential order.
func (m *Music) SetPicker(p *Picker) {
	m.picker = p
}

// Start begins the playlist from its current index.
func (m *Music) Start() {
	if len(m.playlist) == 0 || m.hasCurrent {
		return
	}
	m.play(m.playlist[m.index])
}

// Request switches to the named track, fading the current one out first.
// Requesting the track that is already playing is a no-op.
func (m *Music) Request(track string) {
	if track == "" {
		return
	}
	if m.hasCurrent && m.current.Content == track {
		return
	}
	if !m.hasCurrent {
		m.play(track)
		return
	}
	m.pending = track
	m.hasPending = true
	m.startFade()
}

// Skip advances to the next playlist entry through the fade path.
func (m *Music) Skip() {
	next, ok := m.nextTrack()
	if !ok {
		return
	}
	m.Request(next)
}

// Stop fades nothing and halts playback immediately.
func (m *Music) Stop() {
	if m.fade != nil {
		m.fade.Cancel()
		m.fade = nil
	}
	m.hasPending = false
	if m.hasCurrent {
		m.mx.Stop(m.current)
		m.hasCurrent = false
	}
}

// Update advances the fade-out, if one is running. Driven at the same
// tick cadence as the mixer.
func (m *Music) Update(dt time.Duration) {
	if m.fade == nil {
		return
	}
	m.fade.Step(dt)
	if m.fade.Done() {
		m.fade = nil
	}
}

func (m *Music) Playing() (mixer.Identity, bool) {
	return m.current, m.hasCurrent
}

// startFade ramps the current track's ideal volume to zero, then stops
// it and hands off to the pending track. Starting a new fade cancels the
// old one.
func (m *Music) startFade() {
	if m.fade != nil {
		m.fade.Cancel()
	}
	id := m.current
	from := m.mx.Volume(id)
	if from < 0 {
		m.switchToPending()
		return
	}
	var elapsed time.Duration
	m.fade = mixer.NewTask(func(dt time.Duration) bool {
		elapsed += dt
		t := float64(elapsed) / float64(musicFadeDuration)
		if t >= 1 {
			m.switchToPending()
			return true
		}
		m.mx.SetSourceVolume(id, from*(1-t))
		return false
	})
}

func (m *Music) switchToPending() {
	if m.hasCurrent {
		m.mx.Stop(m.current)
		m.hasCurrent = false
	}
	if !m.hasPending {
		return
	}
	track := m.pending
	m.hasPending = false
	m.pending = ""
	m.play(track)
}

func (m *Music) play(track string) {
	if _, ok := m.mx.ByContent(track); ok {
		return
	}
	id, err := m.mx.Play(mixer.PlayRequest{
		Content: track,
		Range:   mixer.AreaRange(mixer.ZoneOmni),
		Volume:  1,
	})
	if err != nil {
		log.Printf("music: play %q: %v", track, err)
		return
	}
	m.current = id
	m.hasCurrent = true
	for i, t := range m.playlist {
		if t == track {
			m.index = i
			break
		}
	}
}

func (m *Music) onFinished(id mixer.Identity) {
	if !m.hasCurrent || id != m.current {
		return
	}
	m.hasCurrent = false
	if m.fade != nil {
		m.fade.Cancel()
		m.fade = nil
	}
	if m.hasPending {
		m.switchToPending()
		return
	}
	next, ok := m.nextTrack()
	if !ok {
		return
	}
	m.play(next)
}

func (m *Music) nextTrack() (string, bool) {
	if len(m.playlist) == 0 {
		return "", false
	}
	next := (m.index + 1) % len(m.playlist)
	if m.picker != nil {
		i, err := m.picker.Next(m.playlist, m.index)
		if err != nil {
			log.Printf("music: picker: %v", err)
		} else if i >= 0 && i < len(m.playlist) {
			next = i
		}
	}
	return m.playlist[next], true
}
