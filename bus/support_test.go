package bus

import (
	"fmt"
	"time"

	"github.com/jakecoffman/cp"

	"github.com/milk9111/soundscape/channel"
	"github.com/milk9111/soundscape/mixer"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

type fakeListener struct{}

func (fakeListener) Position() cp.Vector { return cp.Vector{} }
func (fakeListener) Level() int          { return 0 }
func (fakeListener) SurfaceLevel() int   { return 0 }
func (fakeListener) Indoors() bool       { return false }

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

// newBusMixer builds a channel-less mixer: every source stays mock and is
// driven purely by the fake clock, which is all the schedulers need.
func newBusMixer(clips map[string]time.Duration) (*mixer.Mixer, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	env := mixer.Env{
		Listener: fakeListener{},
		Pool:     channel.NewFixedPool(),
		Catalog:  &fakeCatalog{clips: clips},
		Now:      clock.now,
	}
	return mixer.NewMixer(env, mixer.Options{MaxLiveChannels: 2}), clock
}
