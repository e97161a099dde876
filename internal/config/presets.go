package config

// Presets are ready-made chain setups for common experiments. The data
// section still has to point at a field export; presets only fill the
// chain and solver settings.
var Presets = map[string]*Config{
	"ca2": {
		Ions: []IonConfig{{Species: "Ca40", Count: 2}},
	},
	"ca4": {
		Ions: []IonConfig{{Species: "Ca40", Count: 4}},
	},
	"ca10": {
		Ions: []IonConfig{{Species: "Ca40", Count: 10}},
		Solver: SolverConfig{
			MaxIter: 500,
		},
	},
	"be-ca": {
		Ions: []IonConfig{
			{Species: "Be9", Count: 1},
			{Species: "Ca40", Count: 1},
		},
	},
	"yb2": {
		Ions: []IonConfig{{Species: "Yb171", Count: 2}},
	},
}

// GetPreset returns a copy of a named preset merged over the defaults,
// or nil when the name is unknown.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Ions = append([]IonConfig(nil), p.Ions...)
	if p.Solver.GradTol != 0 {
		cfg.Solver.GradTol = p.Solver.GradTol
	}
	if p.Solver.MaxIter != 0 {
		cfg.Solver.MaxIter = p.Solver.MaxIter
	}
	if p.Solver.MinSep != 0 {
		cfg.Solver.MinSep = p.Solver.MinSep
	}
	return cfg
}

// ListPresets returns the available preset names.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}
