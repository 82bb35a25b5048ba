package dpstokes

import (
	"math"

	"github.com/san-kum/mobility/internal/mobility"
)

// EngineTolerance is the accuracy requested from the grid engine.
const EngineTolerance = 1e-6

// Geometry is the variant-specific input of SetParameters.
type Geometry struct {
	Lx   float64 `yaml:"lx" json:"lx"`
	Ly   float64 `yaml:"ly" json:"ly"`
	Zmin float64 `yaml:"zmin" json:"zmin"`
	Zmax float64 `yaml:"zmax" json:"zmax"`
	// AllowChangingBoxSize lets the resolver stretch Lx and Ly so the ideal
	// grid spacing tiles the box exactly.
	AllowChangingBoxSize bool `yaml:"allow_changing_box_size" json:"allow_changing_box_size"`
}

// Validate rejects non-square or empty boxes.
func (g Geometry) Validate() error {
	const op = "setParameters"
	if g.Lx != g.Ly {
		return mobility.ParameterError(Name, op, "only square periodic boxes (Lx = Ly) are supported, got Lx=%g Ly=%g", g.Lx, g.Ly)
	}
	if !(g.Lx > 0) {
		return mobility.ParameterError(Name, op, "box size must be positive, got %g", g.Lx)
	}
	if !(g.Zmax > g.Zmin) {
		return mobility.ParameterError(Name, op, "zmax (%g) must be above zmin (%g)", g.Zmax, g.Zmin)
	}
	return nil
}

// Discretization is everything the grid engine needs to build its grid.
type Discretization struct {
	Lx, Ly     float64
	Zmin, Zmax float64
	Mode       WallMode
	Nx, Ny, Nz int
	// H is the horizontal grid spacing that tiles the box.
	H                    float64
	W, WD                float64
	Alpha, AlphaD        float64
	Beta, BetaD          float64
	Tolerance            float64
	AllowChangingBoxSize bool
	Viscosity            float64
	HydrodynamicRadius   float64
}

// Input collects the physical inputs of Resolve.
type Input struct {
	Radius    float64
	Viscosity float64
	Geometry  Geometry
	Mode      WallMode
	Torque    bool
}

// Resolve derives a grid that reproduces the requested hydrodynamic radius,
// tiles the periodic box with an even number of nodes, pads open Z
// boundaries and picks an FFT-friendly number of Chebyshev nodes.
func Resolve(in Input) (Discretization, error) {
	const op = "initialize"
	g := in.Geometry
	if err := g.Validate(); err != nil {
		return Discretization{}, err
	}
	if !(in.Radius > 0) {
		return Discretization{}, mobility.ParameterError(Name, op, "hydrodynamic radius must be positive, got %g", in.Radius)
	}

	k := kernelFor(in.Torque)
	d := Discretization{
		Lx:                   g.Lx,
		Ly:                   g.Ly,
		Zmin:                 g.Zmin,
		Zmax:                 g.Zmax,
		Mode:                 in.Mode,
		W:                    k.W,
		Beta:                 k.BetaRatio * k.W,
		Alpha:                k.W / 2,
		Tolerance:            EngineTolerance,
		AllowChangingBoxSize: g.AllowChangingBoxSize,
		Viscosity:            in.Viscosity,
		HydrodynamicRadius:   in.Radius,
	}
	if in.Torque {
		d.WD = k.WD
		d.BetaD = k.BetaDRatio * k.WD
		d.AlphaD = k.WD / 2
	}

	h := in.Radius / k.RadiusRatio
	n := HorizontalNodes(g.Lx, h)
	d.Nx, d.Ny = n, n

	if g.AllowChangingBoxSize {
		d.Lx = float64(n) * h
		d.Ly = float64(n) * h
	} else {
		h = g.Lx / float64(n)
		arg := in.Radius / (k.W * h)
		if arg < k.ArgMin || arg > k.ArgMax {
			return Discretization{}, mobility.ParameterError(Name, op,
				"box of size %g cannot be tiled for radius %g (radius/(w*h)=%.4f outside [%g, %g]); enlarge the box or allow changing its size",
				g.Lx, in.Radius, arg, k.ArgMin, k.ArgMax)
		}
		d.Beta = polyEval(k.BetaInv, arg)
	}
	d.H = h

	pad := 1.5 * d.W * h / 2
	switch in.Mode {
	case NoWall:
		d.Zmax += pad
		d.Zmin -= pad
	case Bottom:
		d.Zmax += pad
	case Slit:
		// Both walls already bound the domain.
	}

	half := (d.Zmax - d.Zmin) / 2
	if !(h/half > 0 && h/half < 1) {
		return Discretization{}, mobility.ParameterError(Name, op,
			"radius %g is too large for the vertical domain (h=%g, Lz/2=%g)", in.Radius, h, half)
	}
	d.Nz = ChebyshevNodes(h, half)
	return d, nil
}

// HorizontalNodes returns the number of grid nodes along a periodic side of
// length l for a target spacing h: floor(l/h), at least 2, rounded up to even.
func HorizontalNodes(l, h float64) int {
	ratio := l / h
	if !(ratio >= 2) {
		return 2
	}
	n := int(math.Floor(ratio))
	n += n % 2
	return n
}

// ChebyshevNodes returns the number of Chebyshev nodes over a half height
// whose coarsest spacing, in the middle of the domain, is close to h.
// The result is odd so 2*(nz-1), the length of the vertical transform, is a
// multiple of four.
func ChebyshevNodes(h, half float64) int {
	actual := math.Pi/math.Asin(h/half) + 1
	nz := int(math.Floor(actual))
	if nz%2 == 0 {
		nz++
	}
	return nz
}
