package cli

import (
	"fmt"
	"math/rand"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wildstyl3r/collim/internal/scatter"
	"github.com/wildstyl3r/collim/internal/utils"
)

var scatterCmd = &cobra.Command{
	Use:   "scatter",
	Short: "Run the primary simulation plus the single-scatter Monte Carlo pass",
	RunE:  runScatter,
}

func init() {
	rootCmd.AddCommand(scatterCmd)
}

func runScatter(cmd *cobra.Command, args []string) error {
	if err := requireConfig(); err != nil {
		return err
	}
	sim := newSimulator()
	bar, sink := newProgressBar("tracing")
	sim.Progress = sink

	rng := rand.New(rand.NewSource(cfg.Scatter.Seed))
	tracer := scatter.NewTracer(sim.Geometry, mats, rng)
	result, err := sim.RunWithScatter(
		cfg.Simulation.EnergyKeV, cfg.Simulation.RayCount, cfg.Simulation.ApplyBuildup,
		tracer, cfg.ScatterTracerConfig())
	if err != nil {
		return err
	}
	_ = bar.Finish()
	fmt.Println()

	logMetrics(result)
	sc := result.Scatter
	log.Infof("scatter: %d interactions, fraction %.4f, mean scattered energy %.1f +- %.1f keV",
		len(sc.Interactions), sc.ScatterFraction, sc.MeanScatteredKeV, sc.ScatteredKeVCI)

	if err := writeProfile(result, outName("profile.csv")); err != nil {
		return err
	}
	rows := make(utils.CSV, 0, len(sc.Positions))
	for i := range sc.Positions {
		rows = append(rows, []string{
			strconv.FormatFloat(sc.Positions[i]*10., 'f', 4, 64),
			strconv.FormatFloat(sc.ScatterProfile[i], 'e', 6, 64),
			strconv.FormatFloat(sc.SPR[i], 'e', 6, 64),
		})
	}
	return utils.WriteAsCSV(rows, cfg.OutputDir, outName("spr.csv"),
		[]string{"position (mm)", "scatter per ray", "SPR"})
}
