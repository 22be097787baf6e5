package mixer

import (
	"github.com/milk9111/soundscape/common"
)

// Attenuation factors below this band floor to exactly zero so near-silent
// sources never occupy a real channel.
const attenuationCutoff = 0.1

// Priority tiers, lower score = higher priority. Omni/essential sources
// always win a channel over zoned ambience; silenced sources are
// deprioritized without being dropped.
const (
	priorityOmni         = 100
	priorityGridAudible  = 200
	priorityAreaAudible  = 300
	priorityGridObscured = 400
	priorityAreaObscured = 500
	prioritySilent       = 600
	priorityUnknown      = 999
)

// Attenuation computes the audibility multiplier for a source range and
// bearing relative to the listener.
func Attenuation(r Range, b Bearing, l Listener) float64 {
	var f float64
	switch r.Kind {
	case RangeArea:
		f = areaAttenuation(r.Zone, l)
	case RangeGrid:
		f = gridAttenuation(r, b, l)
	}
	if f < attenuationCutoff {
		return 0
	}
	return f
}

func areaAttenuation(zone Zone, l Listener) float64 {
	// depth is how many levels the listener sits below the local surface.
	depth := l.SurfaceLevel() - l.Level()

	switch zone {
	case ZoneOmni:
		return 1

	case ZoneExterior:
		var f float64
		switch {
		case depth <= 0:
			f = 1
		case depth == 1:
			f = 0.4
		case depth == 2:
			f = 0.2
		default:
			return 0
		}
		if l.Indoors() {
			f *= 0.4
		}
		return f

	case ZoneUnderground:
		if !l.Indoors() || depth < 1 {
			return 0
		}
		switch {
		case depth <= 2:
			return 0.2
		case depth <= 5:
			return 0.4
		default:
			return 1
		}
	}
	return 0
}

func gridAttenuation(r Range, b Bearing, l Listener) float64 {
	dxy := b.Pos.Distance(l.Position())
	dz := b.Level - l.Level()
	if dz < 0 {
		dz = -dz
	}

	fxy := 1 - common.Clamp01(dxy/(r.XYMax+1))
	fz := 1 - common.Clamp01(float64(dz)/float64(r.ZMax+1))
	return fxy * fz
}

// Priority scores a source for admission: audible depends on the current
// attenuation, silent means the source is muted (explicitly or by the
// volume floor).
func Priority(r Range, audible, silent bool) int {
	if silent {
		return prioritySilent
	}

	switch r.Kind {
	case RangeArea:
		if audible {
			if r.Zone == ZoneOmni {
				return priorityOmni
			}
			return priorityAreaAudible
		}
		return priorityAreaObscured

	case RangeGrid:
		if audible {
			return priorityGridAudible
		}
		return priorityGridObscured
	}
	return priorityUnknown
}
