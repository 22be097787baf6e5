package channel

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/audio/vorbis"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"
)

// 16-bit stereo PCM, as produced by the ebiten decoders.
const bytesPerFrame = 4

// FSContent is a clip decoded through ebiten's wav/vorbis decoders. The raw
// encoded bytes are kept so that every handle gets its own stream and the
// same clip can play on several channels at once.
type FSContent struct {
	id         string
	data       []byte
	ogg        bool
	sampleRate int
	duration   time.Duration
}

func (c *FSContent) ID() string {
	return c.id
}

func (c *FSContent) Duration() time.Duration {
	return c.duration
}

func (c *FSContent) stream() (io.ReadSeeker, int64, error) {
	r := bytes.NewReader(c.data)
	if c.ogg {
		s, err := vorbis.DecodeWithSampleRate(c.sampleRate, r)
		if err != nil {
			return nil, 0, fmt.Errorf("decode ogg %q: %w", c.id, err)
		}
		return s, s.Length(), nil
	}
	s, err := wav.DecodeWithSampleRate(c.sampleRate, r)
	if err != nil {
		return nil, 0, fmt.Errorf("decode wav %q: %w", c.id, err)
	}
	return s, s.Length(), nil
}

// FSCatalog resolves content ids against a file system of .wav/.ogg clips.
// Loaded clips are cached; the decoded length is read once to expose the
// clip duration without holding a channel.
type FSCatalog struct {
	fsys fs.FS
	rate int

	mu    sync.Mutex
	cache map[string]*FSContent
}

func NewFSCatalog(fsys fs.FS, sampleRate int) *FSCatalog {
	return &FSCatalog{
		fsys:  fsys,
		rate:  sampleRate,
		cache: make(map[string]*FSContent),
	}
}

func (c *FSCatalog) Load(id string) (Content, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if content, ok := c.cache[id]; ok {
		return content, nil
	}

	name, data, err := c.read(id)
	if err != nil {
		return nil, err
	}

	content := &FSContent{
		id:         id,
		data:       data,
		ogg:        strings.HasSuffix(strings.ToLower(name), ".ogg"),
		sampleRate: c.rate,
	}
	_, length, err := content.stream()
	if err != nil {
		return nil, err
	}
	content.duration = time.Duration(length / bytesPerFrame * int64(time.Second) / int64(c.rate))

	c.cache[id] = content
	return content, nil
}

func (c *FSCatalog) read(id string) (string, []byte, error) {
	clean := path.Clean(strings.TrimPrefix(id, "/"))
	for _, name := range []string{clean, clean + ".wav", clean + ".ogg"} {
		data, err := fs.ReadFile(c.fsys, name)
		if err == nil {
			return name, data, nil
		}
	}
	return "", nil, fmt.Errorf("content %q not found", id)
}

// EbitenHandle drives one *audio.Player as a pooled output channel.
type EbitenHandle struct {
	ctx     *audio.Context
	content *FSContent
	player  *audio.Player
	volume  float64
	muted   bool
	loop    bool
}

func NewEbitenHandle(ctx *audio.Context) *EbitenHandle {
	return &EbitenHandle{ctx: ctx, volume: 1}
}

// NewEbitenPool builds a bounded pool of n player-backed handles.
func NewEbitenPool(ctx *audio.Context, n int) *FixedPool {
	handles := make([]Handle, 0, n)
	for i := 0; i < n; i++ {
		handles = append(handles, NewEbitenHandle(ctx))
	}
	return NewFixedPool(handles...)
}

func (h *EbitenHandle) SetStream(c Content) error {
	content, ok := c.(*FSContent)
	if !ok {
		return fmt.Errorf("channel: unsupported content %T", c)
	}
	h.content = content
	h.loop = false
	return h.rebuild(0)
}

func (h *EbitenHandle) rebuild(pos time.Duration) error {
	if h.player != nil {
		_ = h.player.Close()
		h.player = nil
	}
	if h.content == nil {
		return nil
	}

	stream, length, err := h.content.stream()
	if err != nil {
		return err
	}
	var src io.Reader = stream
	if h.loop {
		src = audio.NewInfiniteLoop(stream, length)
	}
	player, err := h.ctx.NewPlayer(src)
	if err != nil {
		return fmt.Errorf("channel: new player for %q: %w", h.content.ID(), err)
	}
	h.player = player
	h.applyVolume()
	if pos > 0 {
		_ = h.player.SetPosition(pos)
	}
	return nil
}

func (h *EbitenHandle) Duration() time.Duration {
	if h.content == nil {
		return 0
	}
	return h.content.Duration()
}

// Play starts or resumes the channel. Ebiten players resample at a fixed
// rate and expose no pitch control, so pitchVariance is a no-op here.
func (h *EbitenHandle) Play(pitchVariance bool) {
	if h.player == nil {
		return
	}
	h.player.Play()
}

func (h *EbitenHandle) Pause(paused bool) {
	if h.player == nil {
		return
	}
	if paused {
		h.player.Pause()
	} else {
		h.player.Play()
	}
}

func (h *EbitenHandle) Stop() {
	if h.player == nil {
		return
	}
	h.player.Pause()
	_ = h.player.Rewind()
}

func (h *EbitenHandle) Mute(muted bool) {
	h.muted = muted
	h.applyVolume()
}

func (h *EbitenHandle) SetVolume(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	h.volume = v
	h.applyVolume()
}

func (h *EbitenHandle) applyVolume() {
	if h.player == nil {
		return
	}
	if h.muted {
		h.player.SetVolume(0)
		return
	}
	h.player.SetVolume(h.volume)
}

func (h *EbitenHandle) SetLoop(loop bool) {
	if h.loop == loop {
		return
	}
	h.loop = loop
	if h.player == nil {
		return
	}
	pos := h.player.Position()
	playing := h.player.IsPlaying()
	if err := h.rebuild(pos); err != nil {
		return
	}
	if playing {
		h.player.Play()
	}
}

func (h *EbitenHandle) Progress() time.Duration {
	if h.player == nil {
		return 0
	}
	return h.player.Position()
}

func (h *EbitenHandle) SetProgress(d time.Duration) {
	if h.player == nil {
		return
	}
	if dur := h.Duration(); dur > 0 {
		d = d % dur
	}
	_ = h.player.SetPosition(d)
}

func (h *EbitenHandle) Playing() bool {
	return h.player != nil && h.player.IsPlaying()
}
