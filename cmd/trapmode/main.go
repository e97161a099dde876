package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/iontools/trapmode/internal/config"
	"github.com/iontools/trapmode/internal/equilibrium"
	"github.com/iontools/trapmode/internal/export"
	"github.com/iontools/trapmode/internal/field"
	"github.com/iontools/trapmode/internal/modes"
	"github.com/iontools/trapmode/internal/numeric"
	"github.com/iontools/trapmode/internal/optim"
	"github.com/iontools/trapmode/internal/potential"
	"github.com/iontools/trapmode/internal/storage"
	"github.com/iontools/trapmode/internal/sweep"
	"github.com/iontools/trapmode/internal/trap"
	"github.com/iontools/trapmode/internal/tui"
)

var (
	runsDir    string
	configFile string
	preset     string
	dataDir    string
	save       bool

	// Analytic mode: skip field data and use an ideal quadratic well
	// with this single-ion frequency in MHz.
	harmonicMHz float64

	// sweep
	scales string

	// tune
	tuneElectrode string
	tuneMin       float64
	tuneMax       float64
	tuneSteps     int
	targetMHz     float64
	modeIndex     int

	// export
	outDir string

	workers int
)

// main registers commands and flags and executes the root command; it
// exits with status 1 when a command fails.
func main() {
	rootCmd := &cobra.Command{
		Use:   "trapmode",
		Short: "axial mode solver for trapped-ion chains",
	}

	rootCmd.PersistentFlags().StringVar(&runsDir, "runs", ".trapmode", "run record directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset chain configuration")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "field export directory (overrides config)")
	rootCmd.PersistentFlags().Float64Var(&harmonicMHz, "harmonic", 0, "use an ideal quadratic well with this axial frequency (MHz)")

	solveCmd := &cobra.Command{
		Use:   "solve",
		Short: "solve equilibrium positions and mode frequencies",
		RunE:  runSolve,
	}
	solveCmd.Flags().BoolVar(&save, "save", false, "persist the run record")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "solve across scaled voltage configurations",
		RunE:  runSweep,
	}
	sweepCmd.Flags().StringVar(&scales, "scales", "0.5,1.0,1.5,2.0", "comma separated voltage scale factors")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "parallel workers (0 = one per CPU)")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid-search one electrode voltage for a target frequency",
		RunE:  runTune,
	}
	tuneCmd.Flags().StringVar(&tuneElectrode, "electrode", "", "electrode label to scan")
	tuneCmd.Flags().Float64Var(&tuneMin, "min", -10, "scan range lower bound (V)")
	tuneCmd.Flags().Float64Var(&tuneMax, "max", 10, "scan range upper bound (V)")
	tuneCmd.Flags().IntVar(&tuneSteps, "steps", 41, "scan points")
	tuneCmd.Flags().Float64Var(&targetMHz, "target", 1.0, "target frequency (MHz)")
	tuneCmd.Flags().IntVar(&modeIndex, "mode", 0, "mode index to match")

	plotCmd := &cobra.Command{
		Use:   "plot",
		Short: "plot the axial potential in the terminal",
		RunE:  runPlot,
	}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "write SVG plots and a mode table CSV",
		RunE:  runExport,
	}
	exportCmd.Flags().StringVar(&outDir, "out", ".", "output directory")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  runList,
	}

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "interactive voltage tuner",
		RunE:  runTui,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list chain presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				fmt.Println(name)
			}
			return nil
		},
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a default config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "trapmode.yaml"
			if len(args) > 0 {
				path = args[0]
			}
			return config.Save(path, config.DefaultConfig())
		},
	}

	rootCmd.AddCommand(solveCmd, sweepCmd, tuneCmd, plotCmd, exportCmd, listCmd, tuiCmd, presetsCmd, initCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig merges preset, config file and CLI overrides.
func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if preset != "" {
			loaded.Ions = cfg.Ions
		}
		cfg = loaded
	}
	if dataDir != "" {
		cfg.Data.Dir = dataDir
	}
	return cfg, nil
}

type setup struct {
	cfg      *config.Config
	chain    trap.Chain
	sample   *field.AxialSample // nil in harmonic mode
	pot      trap.Potential
	voltages field.Voltages
}

func loadSetup() (*setup, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	chain, err := cfg.BuildChain()
	if err != nil {
		return nil, err
	}

	s := &setup{cfg: cfg, chain: chain, voltages: field.Voltages(cfg.Voltages)}

	if harmonicMHz > 0 {
		omega := 2 * math.Pi * harmonicMHz * 1e6
		s.pot = potential.HarmonicForFrequency(omega, chain[0])
		return s, nil
	}

	sample, err := field.LoadDir(cfg.Data.Dir, cfg.LoadOptions())
	if err != nil {
		return nil, err
	}
	s.sample = sample

	pot, err := potential.NewModel(sample, s.voltages)
	if err != nil {
		return nil, err
	}
	s.pot = pot
	return s, nil
}

func runSolve(cmd *cobra.Command, args []string) error {
	s, err := loadSetup()
	if err != nil {
		return err
	}

	eq, err := equilibrium.Solve(s.pot, s.chain, s.cfg.SolverConfig())
	if err != nil {
		return err
	}
	res, err := modes.Solve(s.pot, s.chain, eq, s.cfg.ModesConfig())
	if err != nil {
		return err
	}

	printResult(eq, res)

	if save {
		st := storage.New(runsDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(s.cfg.Voltages, eq, res)
		if err != nil {
			return err
		}
		fmt.Printf("\nsaved run %s\n", runID)
	}
	return nil
}

func printResult(eq *equilibrium.State, res *modes.Result) {
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)

	fmt.Fprintln(w, "ion\tposition (um)\t")
	for i, x := range eq.Positions {
		fmt.Fprintf(w, "%d\t%+.4f\t\n", i, x*1e6)
	}
	fmt.Fprintln(w, "\t\t")
	fmt.Fprintln(w, "mode\tfrequency (MHz)\tomega (rad/s)")
	hz := res.FrequenciesHz()
	for k := range res.Omega {
		fmt.Fprintf(w, "%d\t%.6f\t%.6e\n", k, hz[k]/1e6, res.Omega[k])
	}
	w.Flush()

	fmt.Printf("\nconverged in %d iterations, residual %.3e V/m\n", eq.Iterations, eq.Residual)
}

func runSweep(cmd *cobra.Command, args []string) error {
	s, err := loadSetup()
	if err != nil {
		return err
	}
	if s.sample == nil {
		return fmt.Errorf("sweep requires field data, not --harmonic")
	}

	factors, err := parseFloats(scales)
	if err != nil {
		return err
	}

	r := sweep.New(s.sample, s.chain, s.cfg.SolverConfig(), s.cfg.ModesConfig(), workers)
	jobs := sweep.Scaled(s.voltages, factors, func(f float64) string {
		return fmt.Sprintf("scale=%.3f", f)
	})

	outcomes, err := r.Run(context.Background(), jobs)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "job\tstatus\tmodes (MHz)")
	for _, out := range outcomes {
		if out.Err != nil {
			fmt.Fprintf(w, "%s\tfailed: %v\t\n", out.Job.Name, out.Err)
			continue
		}
		fmt.Fprintf(w, "%s\tok\t%s\n", out.Job.Name, formatMHz(out.Modes.FrequenciesHz()))
	}
	return w.Flush()
}

func runTune(cmd *cobra.Command, args []string) error {
	s, err := loadSetup()
	if err != nil {
		return err
	}
	if s.sample == nil {
		return fmt.Errorf("tune requires field data, not --harmonic")
	}
	if tuneElectrode == "" {
		return fmt.Errorf("--electrode is required")
	}

	solve := func(v field.Voltages) (*modes.Result, error) {
		model, err := potential.NewModel(s.sample, v)
		if err != nil {
			return nil, err
		}
		eq, err := equilibrium.Solve(model, s.chain, s.cfg.SolverConfig())
		if err != nil {
			return nil, err
		}
		return modes.Solve(model, s.chain, eq, s.cfg.ModesConfig())
	}

	gs := optim.NewGridSearch(
		[]string{tuneElectrode},
		[][]float64{numeric.Linspace(tuneMin, tuneMax, tuneSteps)},
	)
	best, score, err := gs.Search(context.Background(), s.voltages,
		optim.FrequencyTarget(solve, modeIndex, targetMHz*1e6))
	if err != nil {
		return err
	}
	if best == nil {
		return fmt.Errorf("no grid point produced a stable chain")
	}

	fmt.Printf("best %s = %.4f V (mode %d off target by %.3f kHz)\n",
		tuneElectrode, best[tuneElectrode], modeIndex, score/1e3)
	return nil
}

func runPlot(cmd *cobra.Command, args []string) error {
	s, err := loadSetup()
	if err != nil {
		return err
	}

	min, max := s.pot.Domain()
	if math.IsInf(min, 0) {
		min, max = -100e-6, 100e-6
	}
	vs := make([]float64, 0, 96)
	for _, x := range numeric.Linspace(min, max, 96) {
		v, err := s.pot.Eval(x)
		if err != nil {
			continue
		}
		vs = append(vs, v)
	}
	if len(vs) < 2 {
		return fmt.Errorf("nothing to plot")
	}

	fmt.Println(asciigraph.Plot(vs, asciigraph.Height(14), asciigraph.Caption("axial potential (V)")))
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	s, err := loadSetup()
	if err != nil {
		return err
	}

	eq, err := equilibrium.Solve(s.pot, s.chain, s.cfg.SolverConfig())
	if err != nil {
		return err
	}
	res, err := modes.Solve(s.pot, s.chain, eq, s.cfg.ModesConfig())
	if err != nil {
		return err
	}

	files := map[string]string{
		"potential.svg": export.PotentialSVG(s.pot, eq.Positions, 800, 450),
		"spectrum.svg":  export.SpectrumSVG(res, 800, 220),
		"modes.csv":     export.ModesCSV(res),
	}
	for name, content := range files {
		if content == "" {
			continue
		}
		path := filepath.Join(outDir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", path)
	}
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	st := storage.New(runsDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "id\ttime\tions\tmodes (MHz)")
	for _, rec := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
			rec.ID, rec.Timestamp.Format("2006-01-02 15:04:05"), rec.NumIons, formatMHz(rec.Frequencies))
	}
	return w.Flush()
}

func runTui(cmd *cobra.Command, args []string) error {
	s, err := loadSetup()
	if err != nil {
		return err
	}
	if s.sample == nil {
		return fmt.Errorf("tui requires field data, not --harmonic")
	}
	return tui.Run(s.sample, s.chain, s.voltages, s.cfg.SolverConfig(), s.cfg.ModesConfig())
}

func parseFloats(csv string) ([]float64, error) {
	parts := strings.Split(csv, ",")
	out := make([]float64, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("bad value %q: %w", part, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func formatMHz(hz []float64) string {
	parts := make([]string, len(hz))
	for i, f := range hz {
		parts[i] = fmt.Sprintf("%.4f", f/1e6)
	}
	return strings.Join(parts, ", ")
}
