package mobility

import "slices"

// Support declares the configurations a solver accepts.
// A nil axis list accepts any periodicity on that axis.
type Support struct {
	Solver  string
	X, Y, Z []Periodicity
	Devices []Device
	// MaxSpecies of zero means any positive species count.
	MaxSpecies int
	// Reason is appended to rejections, e.g. "this is an open boundary solver".
	Reason string
}

// Validate accepts or rejects cfg. It is a pure function of cfg and s.
func (s Support) Validate(cfg Configuration) error {
	axes := []struct {
		name    string
		got     Periodicity
		allowed []Periodicity
	}{
		{"X", cfg.PeriodicityX, s.X},
		{"Y", cfg.PeriodicityY, s.Y},
		{"Z", cfg.PeriodicityZ, s.Z},
	}
	for _, ax := range axes {
		if ax.allowed != nil && !slices.Contains(ax.allowed, ax.got) {
			return ConfigurationError(s.Solver, "periodicity %s=%s not supported (allowed %v); %s",
				ax.name, ax.got, ax.allowed, s.Reason)
		}
	}
	if s.Devices != nil && !slices.Contains(s.Devices, cfg.Device) {
		return ConfigurationError(s.Solver, "device %s not supported (allowed %v)", cfg.Device, s.Devices)
	}
	species := cfg.NumberSpecies()
	if species < 1 {
		return ConfigurationError(s.Solver, "species count must be positive, got %d", cfg.Species)
	}
	if s.MaxSpecies > 0 && species > s.MaxSpecies {
		return ConfigurationError(s.Solver, "can only deal with %d species, got %d", s.MaxSpecies, species)
	}
	return nil
}
