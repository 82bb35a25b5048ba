package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/mobility/internal/config"
	"github.com/san-kum/mobility/internal/dpstokes"
	"github.com/san-kum/mobility/internal/experiment"
	"github.com/san-kum/mobility/internal/logging"
	"github.com/san-kum/mobility/internal/mobility"
	"github.com/san-kum/mobility/internal/storage"
	"github.com/san-kum/mobility/internal/viz"
)

var (
	dataDir  string
	logLevel string
	logger   *zap.Logger

	configFile string
	preset     string
	backend    string
	dt         float64
	steps      int
	particles  int
	seed       uint64
	sampleN    int
	temp       float64
	viscosity  float64
	radius     float64
	box        float64
	lanczos    int
	noSave     bool
	runs       int
	workers    int

	xAxis    int
	yAxis    int
	asJSON   bool
	saveConf string

	exportKind string
	exportOut  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "mobility",
		Short:         "Brownian dynamics with hydrodynamic mobility solvers",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := logging.New(logLevel)
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".mobility", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [solver]",
		Short: "run a Brownian dynamics experiment",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runExperiment,
	}
	addRunFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	runCmd.Flags().StringVar(&saveConf, "save-config", "", "write the resolved config to this file")

	liveCmd := &cobra.Command{
		Use:   "live [solver]",
		Short: "run an experiment with a live 3D view",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addRunFlags(liveCmd)

	ensembleCmd := &cobra.Command{
		Use:   "ensemble [solver]",
		Short: "repeat an experiment over consecutive seeds",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runEnsemble,
	}
	addRunFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&runs, "runs", 8, "number of members")
	ensembleCmd.Flags().IntVar(&workers, "workers", 0, "members run at once (0 uses every CPU)")

	gridCmd := &cobra.Command{
		Use:   "grid",
		Short: "show the dpstokes grid for a config or preset",
		Args:  cobra.NoArgs,
		RunE:  showGrid,
	}
	gridCmd.Flags().StringVarP(&configFile, "config", "c", "", "config file (YAML)")
	gridCmd.Flags().StringVarP(&preset, "preset", "p", "", "dpstokes preset")
	gridCmd.Flags().Float64Var(&radius, "radius", config.DefaultRadius, "hydrodynamic radius")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}
	showCmd.Flags().IntVar(&xAxis, "x", 0, "horizontal axis of the projection (0=x, 1=y, 2=z)")
	showCmd.Flags().IntVar(&yAxis, "y", 2, "vertical axis of the projection")
	showCmd.Flags().BoolVar(&asJSON, "json", false, "export the run as JSON")

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the mean square displacement of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "fit the diffusion coefficient and inspect the noise",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&exportKind, "kind", "msd", "figure to export (msd, positions, view)")
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "output file (default <run_id>_<kind>.svg)")
	exportCmd.Flags().IntVar(&xAxis, "x", 0, "horizontal axis of the positions figure")
	exportCmd.Flags().IntVar(&yAxis, "y", 2, "vertical axis of the positions figure")

	presetsCmd := &cobra.Command{
		Use:   "presets [solver]",
		Short: "list presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	solversCmd := &cobra.Command{
		Use:   "solvers",
		Short: "list mobility solvers",
		RunE:  listSolvers,
	}

	rootCmd.AddCommand(runCmd, liveCmd, ensembleCmd, gridCmd, listCmd, showCmd, plotCmd, analyzeCmd, exportCmd, presetsCmd, solversCmd)

	err := rootCmd.Execute()
	if logger != nil {
		_ = logger.Sync()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&configFile, "config", "c", "", "config file (YAML)")
	f.StringVarP(&preset, "preset", "p", "", "preset name (see 'mobility presets')")
	f.StringVar(&backend, "backend", "auto", "pairwise backend (auto, cpu, cuda)")
	f.Float64Var(&dt, "dt", config.DefaultDt, "time step")
	f.IntVar(&steps, "steps", config.DefaultSteps, "number of steps")
	f.IntVar(&particles, "particles", config.DefaultParticles, "number of particles")
	f.Uint64Var(&seed, "seed", 0, "random seed (0 picks one)")
	f.IntVar(&sampleN, "sample-every", config.DefaultSampleEvery, "record the MSD every n steps")
	f.Float64Var(&temp, "temperature", config.DefaultTemperature, "temperature (kT)")
	f.Float64Var(&viscosity, "viscosity", config.DefaultViscosity, "fluid viscosity")
	f.Float64Var(&radius, "radius", config.DefaultRadius, "hydrodynamic radius")
	f.Float64Var(&box, "box", config.DefaultBox, "side of the starting cube")
	f.IntVar(&lanczos, "lanczos", 0, "Lanczos iteration cap (0 keeps the default)")
}

// resolveConfig builds the run config from a preset or config file, then
// applies the flags that were set explicitly.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	solver := "self"
	if len(args) > 0 {
		solver = args[0]
	}
	cfg := config.DefaultFor(solver)

	if preset != "" {
		p := config.GetPreset(solver, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(solver))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		if len(args) > 0 {
			cfg.Solver = solver
		}
	}

	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Backend = backend
	}
	if flags.Changed("dt") {
		cfg.Run.Dt = dt
	}
	if flags.Changed("steps") {
		cfg.Run.Steps = steps
	}
	if flags.Changed("sample-every") {
		cfg.Run.SampleEvery = sampleN
	}
	if flags.Changed("box") {
		cfg.Run.Box = box
	}
	if flags.Changed("lanczos") {
		cfg.Run.LanczosIterations = lanczos
	}
	if flags.Changed("particles") {
		cfg.Parameters.NumberParticles = particles
	}
	if flags.Changed("seed") {
		cfg.Parameters.Seed = seed
	}
	if flags.Changed("temperature") {
		cfg.Parameters.Temperature = temp
	}
	if flags.Changed("viscosity") {
		cfg.Parameters.Viscosity = viscosity
	}
	if flags.Changed("radius") {
		cfg.Parameters.HydrodynamicRadius = []float64{radius}
	}
	return cfg, cfg.Validate()
}

func newExperiment(cfg *config.Config) (*experiment.Experiment, *experiment.Registry, error) {
	reg := experiment.NewRegistry(experiment.WithLogger(logger))
	e, err := experiment.New(cfg, reg)
	if err != nil {
		reg.Close()
		return nil, nil, err
	}
	return e, reg, nil
}

func runExperiment(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if saveConf != "" {
		if err := config.Save(saveConf, cfg); err != nil {
			return err
		}
	}

	e, reg, err := newExperiment(cfg)
	if err != nil {
		return err
	}
	defer reg.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %s (%s) for %d steps of %g\n", e.Solver().Name(), cfg.Configuration, cfg.Run.Steps, cfg.Run.Dt)
	res, err := e.Run(ctx)
	if err != nil {
		return err
	}

	printMetrics(res)

	if noSave {
		return nil
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(cfg, res)
	if err != nil {
		return err
	}
	fmt.Printf("\nsaved: %s\n", runID)
	return nil
}

func printMetrics(res *experiment.Result) {
	fmt.Println(viz.Title.Render(res.Solver))
	fmt.Println(viz.Separator(40))
	for _, k := range []string{"diffusion_ideal", "diffusion", "r_squared", "final_msd", "drift_x", "drift_y", "drift_z", "noise_flatness"} {
		if v, ok := res.Metrics[k]; ok {
			fmt.Println(viz.Metric(k, fmt.Sprintf("%.5g", v)))
		}
	}
	if len(res.MSD) > 1 {
		fmt.Println(viz.Metric("msd", viz.SparklineChart(res.MSD, 40)))
	}
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	e, reg, err := newExperiment(cfg)
	if err != nil {
		return err
	}
	defer reg.Close()

	lo, hi := viewBounds(cfg)
	title := fmt.Sprintf("%s  %s", e.Solver().Name(), cfg.Configuration)
	res, err := viz.RunLive(context.Background(), e, title, cfg.Run.Steps, lo, hi)
	if errors.Is(err, context.Canceled) {
		fmt.Println("stopped")
		return nil
	}
	if err != nil {
		return err
	}
	printMetrics(res)
	return nil
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	reg := experiment.NewRegistry(experiment.WithLogger(logger))
	defer reg.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	en := experiment.NewEnsemble(cfg, reg, runs)
	en.SetWorkers(workers)
	results, err := en.Run(ctx)
	if err != nil {
		return err
	}
	s, err := experiment.Summarize(results)
	if err != nil {
		return err
	}

	lines := []string{
		viz.Title.Render(fmt.Sprintf("%s ensemble", results[0].Solver)),
		viz.Metric("members", fmt.Sprint(s.Runs)),
		viz.Metric("diffusion", fmt.Sprintf("%.5g ± %.2g", s.MeanD, s.StdD)),
	}
	if d, ok := results[0].Metrics["diffusion_ideal"]; ok {
		lines = append(lines, viz.Metric("diffusion_ideal", fmt.Sprintf("%.5g", d)))
	}
	fmt.Println(viz.Panel.Render(strings.Join(lines, "\n")))
	if len(s.MSD) > 1 {
		fmt.Println(asciigraph.Plot(s.MSD, asciigraph.Height(10), asciigraph.Width(80), asciigraph.Caption("mean MSD vs t")))
	}
	return nil
}

// viewBounds is the box drawn around the particles in the live view.
func viewBounds(cfg *config.Config) (viz.Vec3, viz.Vec3) {
	if cfg.Solver == "dpstokes" {
		g := cfg.DPStokes
		return viz.Vec3{X: -g.Lx / 2, Y: -g.Ly / 2, Z: g.Zmin}, viz.Vec3{X: g.Lx / 2, Y: g.Ly / 2, Z: g.Zmax}
	}
	h := cfg.Run.Box / 2
	return viz.Vec3{X: -h, Y: -h, Z: -h}, viz.Vec3{X: h, Y: h, Z: h}
}

func showGrid(cmd *cobra.Command, args []string) error {
	cfg := config.GetPreset("dpstokes", "wall")
	if preset != "" {
		cfg = config.GetPreset("dpstokes", preset)
		if cfg == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets("dpstokes"))
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if cmd.Flags().Changed("radius") {
		cfg.Parameters.HydrodynamicRadius = []float64{radius}
	}

	mode, ok := dpstokes.WallModeFor(cfg.Configuration.PeriodicityZ)
	if !ok {
		return fmt.Errorf("%w: dpstokes does not support %s in Z", mobility.ErrConfiguration, cfg.Configuration.PeriodicityZ)
	}
	d, err := dpstokes.Resolve(dpstokes.Input{
		Radius:    cfg.Parameters.Radius(),
		Viscosity: cfg.Parameters.Viscosity,
		Geometry:  cfg.DPStokes,
		Mode:      mode,
		Torque:    cfg.Parameters.NeedsTorque,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "mode\t%s\n", d.Mode)
	fmt.Fprintf(w, "box\t%g x %g\n", d.Lx, d.Ly)
	fmt.Fprintf(w, "z\t[%g, %g]\n", d.Zmin, d.Zmax)
	fmt.Fprintf(w, "nodes\t%d x %d x %d\n", d.Nx, d.Ny, d.Nz)
	fmt.Fprintf(w, "h\t%.6g\n", d.H)
	fmt.Fprintf(w, "monopole\tw=%g alpha=%g beta=%.6g\n", d.W, d.Alpha, d.Beta)
	if d.WD > 0 {
		fmt.Fprintf(w, "dipole\tw=%g alpha=%g beta=%.6g\n", d.WD, d.AlphaD, d.BetaD)
	}
	fmt.Fprintf(w, "tolerance\t%g\n", d.Tolerance)
	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	solvers := config.Solvers
	if len(args) > 0 {
		solvers = args
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SOLVER\tPRESET\tCONFIGURATION\tPARTICLES")
	for _, s := range solvers {
		for _, name := range config.ListPresets(s) {
			p := config.GetPreset(s, name)
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", s, name, p.Configuration, p.Parameters.NumberParticles)
		}
	}
	return w.Flush()
}

func listSolvers(cmd *cobra.Command, args []string) error {
	reg := experiment.NewRegistry(experiment.WithLogger(logger))
	defer reg.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SOLVER\tDESCRIPTION")
	for _, name := range reg.ListSolvers() {
		fmt.Fprintf(w, "%s\t%s\n", name, reg.Summary(name))
	}
	return w.Flush()
}
