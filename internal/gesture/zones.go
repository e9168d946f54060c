package gesture

import (
	"math"

	"github.com/ayusman/padam/internal/pose"
)

// Zone is one of the five floor regions around a foot's rest position.
type Zone string

const (
	ZoneCenter   Zone = "center"
	ZoneLeft     Zone = "left"
	ZoneRight    Zone = "right"
	ZoneForward  Zone = "forward"
	ZoneBackward Zone = "backward"
)

// Axis returns the coordinate a press into the zone is measured on.
func (z Zone) Axis() pose.Axis {
	if z == ZoneForward || z == ZoneBackward {
		return pose.AxisZ
	}
	return pose.AxisX
}

// Move returns the press tag for the zone, or MoveNone for the center.
func (z Zone) Move() Move {
	switch z {
	case ZoneLeft:
		return PressLeft
	case ZoneRight:
		return PressRight
	case ZoneForward:
		return PressForward
	case ZoneBackward:
		return PressBackward
	}
	return MoveNone
}

// Foot selects a leg.
type Foot int

const (
	LeftFoot Foot = iota
	RightFoot
)

func (f Foot) String() string {
	if f == LeftFoot {
		return "left"
	}
	return "right"
}

// joint returns the landmark tracked for the foot.
func (f Foot) joint() pose.Joint {
	if f == LeftFoot {
		return pose.LeftFootIndex
	}
	return pose.RightFootIndex
}

// Anchor is a foot's rest position on the floor plane.
type Anchor struct {
	X float64 `json:"x"`
	Z float64 `json:"z"`
}

// ZoneMap partitions the floor around each foot's anchor into a center box
// and four half-planes split along the box diagonals.
type ZoneMap struct {
	Anchors   [2]Anchor `json:"anchors"`
	HalfWidth float64   `json:"half_width"`
	HalfDepth float64   `json:"half_depth"`
}

// NewZoneMap builds the map from a calibration reference.
func NewZoneMap(cal Calibration, cfg PressConfig) *ZoneMap {
	return &ZoneMap{
		Anchors:   [2]Anchor{cal.LeftAnchor, cal.RightAnchor},
		HalfWidth: cfg.HalfWidth,
		HalfDepth: cfg.HalfDepth,
	}
}

// Locate returns the zone the foot at (x, z) is standing in.
func (m *ZoneMap) Locate(f Foot, x, z float64) Zone {
	a := m.Anchors[f]
	dx, dz := x-a.X, z-a.Z
	nx, nz := math.Abs(dx)/m.HalfWidth, math.Abs(dz)/m.HalfDepth

	switch {
	case nx <= 1 && nz <= 1:
		return ZoneCenter
	case nx >= nz && dx < 0:
		return ZoneLeft
	case nx >= nz:
		return ZoneRight
	case dz < 0:
		return ZoneForward
	default:
		return ZoneBackward
	}
}
