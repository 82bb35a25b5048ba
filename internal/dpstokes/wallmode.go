package dpstokes

import (
	"fmt"

	"github.com/san-kum/mobility/internal/mobility"
)

// WallMode is the boundary condition the grid engine applies in Z.
type WallMode int

const (
	NoWall WallMode = iota
	Bottom
	Slit
)

func (m WallMode) String() string {
	switch m {
	case NoWall:
		return "nowall"
	case Bottom:
		return "bottom"
	case Slit:
		return "slit"
	default:
		return fmt.Sprintf("wallmode(%d)", int(m))
	}
}

// WallModeFor maps the Z periodicity of a configuration to a wall mode.
func WallModeFor(z mobility.Periodicity) (WallMode, bool) {
	switch z {
	case mobility.Open:
		return NoWall, true
	case mobility.SingleWall:
		return Bottom, true
	case mobility.TwoWalls:
		return Slit, true
	}
	return NoWall, false
}
