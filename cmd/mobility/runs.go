package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/mobility/internal/analysis"
	"github.com/san-kum/mobility/internal/export"
	"github.com/san-kum/mobility/internal/storage"
	"github.com/san-kum/mobility/internal/viz"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSOLVER\tCONFIGURATION\tPARTICLES\tSTEPS\tD\tTIMESTAMP")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.4g\t%s\n",
			r.ID, r.Variant, r.Configuration, r.Particles, r.Steps,
			r.Metrics["diffusion"], r.Timestamp.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	if asJSON {
		return st.ExportJSON(os.Stdout, runID)
	}

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "id\t%s\n", meta.ID)
	fmt.Fprintf(w, "solver\t%s (%s)\n", meta.Variant, meta.Solver)
	fmt.Fprintf(w, "configuration\t%s\n", meta.Configuration)
	if meta.Backend != "" {
		fmt.Fprintf(w, "backend\t%s\n", meta.Backend)
	}
	fmt.Fprintf(w, "particles\t%d\n", meta.Particles)
	fmt.Fprintf(w, "dt x steps\t%g x %d\n", meta.Dt, meta.Steps)
	fmt.Fprintf(w, "seed\t%d\n", meta.Seed)
	fmt.Fprintf(w, "timestamp\t%s\n", meta.Timestamp.Format("2006-01-02 15:04:05"))

	keys := make([]string, 0, len(meta.Metrics))
	for k := range meta.Metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s\t%.6g\n", k, meta.Metrics[k])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	_, final, err := st.LoadPositions(runID)
	if err != nil {
		return err
	}
	p, err := analysis.Project(final, xAxis, yAxis)
	if err != nil {
		return err
	}
	axes := "xyz"
	fmt.Printf("\nfinal positions (%c vs %c)\n", axes[yAxis], axes[xAxis])
	fmt.Println(analysis.ProjectionToASCII(p, 60, 20))
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	times, msd, err := st.LoadMSD(runID)
	if err != nil {
		return err
	}
	if len(msd) < 2 {
		return fmt.Errorf("run %s has too few samples to plot", runID)
	}

	series := [][]float64{msd}
	if d, ok := meta.Metrics["diffusion_ideal"]; ok {
		ideal := make([]float64, len(times))
		for i, t := range times {
			ideal[i] = 6 * d * t
		}
		series = append(series, ideal)
	}

	graph := asciigraph.PlotMany(series,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.SeriesColors(asciigraph.Green, asciigraph.Gray),
		asciigraph.Caption(fmt.Sprintf("%s: MSD vs t (gray: 6Dt)", runID)),
	)
	fmt.Println(graph)
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	times, msd, err := st.LoadMSD(runID)
	if err != nil {
		return err
	}

	fmt.Printf("Analysis of %s (%s)\n\n", runID, meta.Variant)

	fit, err := analysis.FitDiffusion(times, msd, 3)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "D (fit)\t%.6g\n", fit.D)
	if d, ok := meta.Metrics["diffusion_ideal"]; ok {
		fmt.Fprintf(w, "D (Stokes-Einstein)\t%.6g\n", d)
		if d > 0 {
			fmt.Fprintf(w, "ratio\t%.4f\n", fit.D/d)
		}
	}
	fmt.Fprintf(w, "offset\t%.4g\n", fit.Offset)
	fmt.Fprintf(w, "R^2\t%.4f\n", fit.RSquared)
	if err := w.Flush(); err != nil {
		return err
	}

	inc, err := st.LoadIncrements(runID)
	if err != nil {
		return err
	}
	if len(inc) < 4 {
		return nil
	}
	ps := analysis.PowerSpectrum(inc)
	fmt.Printf("\nNoise spectrum (flatness %.3f, white noise ~0.56)\n", analysis.SpectralFlatness(ps))
	if len(ps) > 1 {
		fmt.Println(asciigraph.Plot(ps[1:], asciigraph.Height(8), asciigraph.Width(60)))
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	var svg string
	switch exportKind {
	case "msd":
		meta, err := st.Load(runID)
		if err != nil {
			return err
		}
		times, msd, err := st.LoadMSD(runID)
		if err != nil {
			return err
		}
		series := []export.Series{{X: times, Y: msd, Stroke: "#00ff7f"}}
		if d, ok := meta.Metrics["diffusion_ideal"]; ok && len(times) > 1 {
			end := times[len(times)-1]
			series = append(series, export.Series{X: []float64{0, end}, Y: []float64{0, 6 * d * end}, Stroke: "#888888"})
		}
		svg = export.LineChart(series, 800, 400)
	case "positions":
		_, final, err := st.LoadPositions(runID)
		if err != nil {
			return err
		}
		p, err := analysis.Project(final, xAxis, yAxis)
		if err != nil {
			return err
		}
		svg = export.Scatter(p, 600, "#00ffff")
	case "view":
		cfg, err := st.LoadConfig(runID)
		if err != nil {
			return err
		}
		_, final, err := st.LoadPositions(runID)
		if err != nil {
			return err
		}
		lo, hi := viewBounds(cfg)
		svg = export.CanvasToSVG(viz.Snapshot(final, lo, hi, 80, 40), 4)
	default:
		return fmt.Errorf("unknown export kind %q (msd, positions, view)", exportKind)
	}
	if svg == "" {
		return fmt.Errorf("run %s has nothing to draw", runID)
	}

	out := exportOut
	if out == "" {
		out = fmt.Sprintf("%s_%s.svg", runID, exportKind)
	}
	if err := os.WriteFile(out, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", out)
	return nil
}
