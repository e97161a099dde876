package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/iontools/trapmode/internal/equilibrium"
	"github.com/iontools/trapmode/internal/field"
	"github.com/iontools/trapmode/internal/modes"
	"github.com/iontools/trapmode/internal/trap"
)

const (
	DefaultGradTol      = 1e-6
	DefaultStepTol      = 1e-15
	DefaultMaxIter      = 200
	DefaultMinSep       = 1e-9
	DefaultScanPoints   = 512
	DefaultNoiseTol     = 1e-9
	DefaultMaxCondition = 1e12
)

type Config struct {
	Data     DataConfig         `yaml:"data"`
	Voltages map[string]float64 `yaml:"voltages"`
	Ions     []IonConfig        `yaml:"ions"`
	Solver   SolverConfig       `yaml:"solver"`
	Modes    ModesConfig        `yaml:"modes"`
}

// DataConfig describes the exported per-electrode field tables.
type DataConfig struct {
	Dir       string `yaml:"dir"`
	Labels    string `yaml:"labels"`
	CoordCols int    `yaml:"coord_cols"`
	Axis      string `yaml:"axis"`
	Quantity  string `yaml:"quantity"`
	Unit      string `yaml:"unit"`
}

// IonConfig adds ions to the chain: either a named species, or an
// explicit charge state (units of e) and mass (amu).
type IonConfig struct {
	Species string  `yaml:"species"`
	Count   int     `yaml:"count"`
	Charge  float64 `yaml:"charge"`
	Mass    float64 `yaml:"mass"`
}

type SolverConfig struct {
	GradTol    float64 `yaml:"grad_tol"`
	StepTol    float64 `yaml:"step_tol"`
	MaxIter    int     `yaml:"max_iter"`
	MinSep     float64 `yaml:"min_sep"`
	ScanPoints int     `yaml:"scan_points"`
}

type ModesConfig struct {
	NoiseTol     float64 `yaml:"noise_tol"`
	MaxCondition float64 `yaml:"max_condition"`
}

func DefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Dir:       "data",
			Labels:    "x,y,z,V",
			CoordCols: 3,
			Axis:      "z",
			Quantity:  "V",
			Unit:      "um",
		},
		Voltages: map[string]float64{},
		Ions:     []IonConfig{{Species: "Ca40", Count: 2}},
		Solver: SolverConfig{
			GradTol:    DefaultGradTol,
			StepTol:    DefaultStepTol,
			MaxIter:    DefaultMaxIter,
			MinSep:     DefaultMinSep,
			ScanPoints: DefaultScanPoints,
		},
		Modes: ModesConfig{
			NoiseTol:     DefaultNoiseTol,
			MaxCondition: DefaultMaxCondition,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// BuildChain assembles the ion chain from the configured entries.
func (c *Config) BuildChain() (trap.Chain, error) {
	var chain trap.Chain
	for i, entry := range c.Ions {
		count := entry.Count
		if count == 0 {
			count = 1
		}
		var ion trap.Ion
		if entry.Species != "" {
			var err error
			ion, err = trap.Species(entry.Species)
			if err != nil {
				return nil, err
			}
		} else {
			if entry.Mass <= 0 {
				return nil, fmt.Errorf("config: ion entry %d needs a species or a positive mass", i)
			}
			charge := entry.Charge
			if charge == 0 {
				charge = 1
			}
			ion = trap.NewIon(charge, entry.Mass)
		}
		for n := 0; n < count; n++ {
			chain = append(chain, ion)
		}
	}
	if err := chain.Validate(); err != nil {
		return nil, err
	}
	return chain, nil
}

// LoadOptions returns the field loader options for the data section.
func (c *Config) LoadOptions() field.LoadOptions {
	return field.LoadOptions{
		Labels:    c.Data.Labels,
		CoordCols: c.Data.CoordCols,
		Axis:      c.Data.Axis,
		Quantity:  c.Data.Quantity,
		Unit:      c.Data.Unit,
	}
}

// SolverConfig returns the equilibrium solver thresholds.
func (c *Config) SolverConfig() equilibrium.Config {
	return equilibrium.Config{
		GradTol:    c.Solver.GradTol,
		StepTol:    c.Solver.StepTol,
		MaxIter:    c.Solver.MaxIter,
		MinSep:     c.Solver.MinSep,
		ScanPoints: c.Solver.ScanPoints,
	}
}

// ModesConfig returns the normal-mode solver thresholds.
func (c *Config) ModesConfig() modes.Config {
	return modes.Config{
		NoiseTol:     c.Modes.NoiseTol,
		MaxCondition: c.Modes.MaxCondition,
	}
}
