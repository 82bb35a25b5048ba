package dpstokes

// kernelTable is the empirical setup of the exponential-of-semicircle
// spreading kernel for one accuracy target.
type kernelTable struct {
	W, WD float64
	// Beta = BetaRatio*W, BetaD = BetaDRatio*WD.
	BetaRatio, BetaDRatio float64
	// Grid spacing is h = radius/RadiusRatio.
	RadiusRatio float64
	// BetaInv maps radius/(W*h) back to Beta when h is forced off its ideal
	// value. Coefficients are in ascending powers.
	BetaInv []float64
	// BetaInv is only trusted on [ArgMin, ArgMax]; it is monotonically
	// decreasing there.
	ArgMin, ArgMax float64
}

// monopoleKernel is used when torques are not coupled.
var monopoleKernel = kernelTable{
	W:           4,
	BetaRatio:   1.785,
	RadiusRatio: 1.205,
	BetaInv:     []float64{42.84, -189.60995850622405, 236.02899399115026},
	ArgMin:      0.18,
	ArgMax:      0.4016,
}

// dipoleKernel widens both kernels so torques and angular velocities are
// resolved as accurately as forces.
var dipoleKernel = kernelTable{
	W:           6,
	WD:          6,
	BetaRatio:   1.327,
	BetaDRatio:  2.217,
	RadiusRatio: 1.731,
	BetaInv:     []float64{47.772, -220.78336221837085, 286.9801068696328},
	ArgMin:      0.173,
	ArgMax:      0.3846,
}

func kernelFor(torque bool) kernelTable {
	if torque {
		return dipoleKernel
	}
	return monopoleKernel
}

// polyEval evaluates the polynomial with ascending coefficients c at x.
func polyEval(c []float64, x float64) float64 {
	y := 0.0
	for i := len(c) - 1; i >= 0; i-- {
		y = y*x + c[i]
	}
	return y
}
