// Package mixer arbitrates many requested sound playbacks over a small
// fixed pool of real output channels. Requests that cannot get a channel
// are time-simulated ("mock") and promoted by priority as channels free up.
package mixer

import (
	"time"

	"github.com/jakecoffman/cp"
)

// Zone classifies an area-ranged source by where it is audible.
type Zone int

const (
	ZoneOmni Zone = iota
	ZoneExterior
	ZoneUnderground
)

func (z Zone) String() string {
	switch z {
	case ZoneOmni:
		return "omni"
	case ZoneExterior:
		return "exterior"
	case ZoneUnderground:
		return "underground"
	default:
		return "unknown"
	}
}

// RangeKind selects between the two audibility models.
type RangeKind int

const (
	// RangeArea is a binary cut-off zone with no distance falloff.
	RangeArea RangeKind = iota
	// RangeGrid is linear distance attenuation with independent
	// horizontal and vertical falloff radii.
	RangeGrid
)

// Range describes where a source is audible. Area ranges ignore the
// bearing; grid ranges ignore the zone.
type Range struct {
	Kind  RangeKind
	Zone  Zone
	XYMax float64
	ZMax  int
}

func AreaRange(zone Zone) Range {
	return Range{Kind: RangeArea, Zone: zone}
}

func GridRange(xyMax float64, zMax int) Range {
	return Range{Kind: RangeGrid, XYMax: xyMax, ZMax: zMax}
}

// Bearing is a source's position in the world: a horizontal point plus a
// vertical level.
type Bearing struct {
	Pos   cp.Vector
	Level int
}

// Identity names one playing instance. Content alone identifies the
// content class for at-most-one-instance lookups.
type Identity struct {
	Content  string
	Instance uint64
}

// SourceData is an immutable snapshot of a source's playback state. It is
// the sole handover payload when a source swaps between mock and live
// controllers and must fully reconstruct playback.
type SourceData struct {
	Content     string
	Range       Range
	Bearing     Bearing
	IdealVolume float64
	Loop        bool
	Offset      time.Duration
	Paused      bool
	Muted       bool
}

// Listener is the audio consumer's point of view, polled each spatial
// tick: position, the surface level at that position, and whether the
// listener is indoors.
type Listener interface {
	Position() cp.Vector
	Level() int
	SurfaceLevel() int
	Indoors() bool
}
