// Command soundscape is a small demo driver: it builds an ebiten-backed
// channel pool and catalog over a directory of clips, wires music and
// effects buses, and runs the two-cadence tick loop against a fixed
// listener.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/jakecoffman/cp"

	"github.com/milk9111/soundscape/bus"
	"github.com/milk9111/soundscape/channel"
	"github.com/milk9111/soundscape/config"
	"github.com/milk9111/soundscape/mixer"
)

const sampleRate = 44100

// staticListener is a fixed outdoor listener at the origin.
type staticListener struct{}

func (staticListener) Position() cp.Vector { return cp.Vector{} }
func (staticListener) Level() int          { return 0 }
func (staticListener) SurfaceLevel() int   { return 0 }
func (staticListener) Indoors() bool       { return false }

func main() {
	configPath := flag.String("config", "soundscape.yaml", "engine config file")
	clipDir := flag.String("clips", "clips", "directory of wav/ogg clips")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("soundscape: %v (using defaults)", err)
	}

	ctx := audio.NewContext(sampleRate)
	catalog := channel.NewFSCatalog(os.DirFS(*clipDir), sampleRate)
	pool := channel.NewEbitenPool(ctx, cfg.MaxLiveChannels)

	musicEnv := mixer.Env{
		Listener: staticListener{},
		Pool:     pool,
		Catalog:  catalog,
	}
	effectsEnv := musicEnv
	effectsEnv.PitchVariance = true

	musicMixer := mixer.NewMixer(musicEnv, mixer.Options{
		MaxLiveChannels: 2,
	})
	effectsMixer := mixer.NewMixer(effectsEnv, mixer.Options{
		MaxLiveChannels:  cfg.MaxLiveChannels,
		DuckingThreshold: cfg.DuckingThreshold,
		AutoDucking:      cfg.AutoDucking,
	})
	// Set explicitly rather than through Options so a configured volume
	// of zero silences the bus instead of falling back to full volume.
	musicMixer.SetVolume(cfg.MusicVolume)
	effectsMixer.SetVolume(cfg.EffectsVolume)

	music := bus.NewMusic(musicMixer, cfg.Playlist)
	if cfg.PickerScript != "" {
		src, err := os.ReadFile(cfg.PickerScript)
		if err != nil {
			log.Printf("soundscape: picker script: %v", err)
		} else if picker, err := bus.NewPicker(src); err != nil {
			log.Printf("soundscape: %v", err)
		} else {
			music.SetPicker(picker)
		}
	}
	effects := bus.NewEffects(effectsMixer)

	watcher, err := config.NewWatcher(".")
	if err != nil {
		log.Printf("soundscape: watch: %v", err)
	} else {
		defer watcher.Close()
	}

	music.Start()
	if len(cfg.Playlist) == 0 && len(flag.Args()) > 0 {
		for _, clip := range flag.Args() {
			if _, err := effects.PlayAt(clip, mixer.Bearing{}, mixer.AreaRange(mixer.ZoneOmni), 1); err != nil {
				log.Printf("soundscape: play %q: %v", clip, err)
			}
		}
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	activity := time.NewTicker(50 * time.Millisecond)
	defer activity.Stop()
	spatial := time.NewTicker(250 * time.Millisecond)
	defer spatial.Stop()

	for {
		select {
		case <-activity.C:
			musicMixer.UpdateActivity()
			effectsMixer.UpdateActivity()
		case <-spatial.C:
			musicMixer.UpdateSpatial()
			effectsMixer.UpdateSpatial()
			music.Update(250 * time.Millisecond)
		case path := <-watcherEvents(watcher):
			if filepath.Base(path) != filepath.Base(*configPath) {
				continue
			}
			next, err := config.Load(path)
			if err != nil {
				log.Printf("soundscape: reload: %v", err)
				continue
			}
			cfg = next
			musicMixer.SetVolume(cfg.MusicVolume)
			effectsMixer.SetVolume(cfg.EffectsVolume)
			effectsMixer.SetAutoDucking(cfg.AutoDucking, cfg.DuckingThreshold)
			log.Printf("soundscape: reloaded %s", path)
		case <-interrupt:
			music.Stop()
			effects.StopAll()
			return
		}
	}
}

func watcherEvents(w *config.Watcher) <-chan string {
	if w == nil {
		return nil
	}
	return w.Events
}
