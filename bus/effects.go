package bus

import (
	"github.com/milk9111/soundscape/mixer"
)

// Effects schedules one-shot sounds and keyed looping ambience on an
// effects mixer. One-shots are fire and forget; ambience loops are held
// to at most one instance per content id and stopped by id.
type Effects struct {
	mx       *mixer.Mixer
	ambience map[string]mixer.Identity
}

func NewEffects(mx *mixer.Mixer) *Effects {
	return &Effects{
		mx:       mx,
		ambience: make(map[string]mixer.Identity),
	}
}

// PlayAt fires a one-shot at a world position with grid falloff.
func (e *Effects) PlayAt(content string, b mixer.Bearing, rng mixer.Range, volume float64) (mixer.Identity, error) {
	return e.mx.Play(mixer.PlayRequest{
		Content: content,
		Range:   rng,
		Bearing: b,
		Volume:  volume,
	})
}

// StartAmbience begins (or keeps) the single looping instance for a
// content id.
func (e *Effects) StartAmbience(content string, rng mixer.Range, volume float64) (mixer.Identity, error) {
	if id, ok := e.ambience[content]; ok {
		if e.mx.Volume(id) >= 0 {
			return id, nil
		}
		delete(e.ambience, content)
	}
	id, err := e.mx.Play(mixer.PlayRequest{
		Content: content,
		Range:   rng,
		Volume:  volume,
		Loop:    true,
	})
	if err != nil {
		return mixer.Identity{}, err
	}
	e.ambience[content] = id
	return id, nil
}

func (e *Effects) StopAmbience(content string) bool {
	id, ok := e.ambience[content]
	if !ok {
		return false
	}
	delete(e.ambience, content)
	return e.mx.Stop(id)
}

func (e *Effects) StopAll() {
	e.mx.StopAll()
	e.ambience = make(map[string]mixer.Identity)
}
