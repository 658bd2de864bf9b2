package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Compare beam quality over the configured energy list",
	RunE:  runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	if err := requireConfig(); err != nil {
		return err
	}
	energies := cfg.Simulation.Energies
	if len(energies) == 0 {
		return fmt.Errorf("sweep requires Simulation.Energies in the design file")
	}
	sim := newSimulator()
	bar, sink := newProgressBar("sweeping")
	sim.Progress = sink

	results, err := sim.CompareEnergies(energies, cfg.Simulation.RayCount, cfg.Simulation.ApplyBuildup)
	if err != nil {
		return err
	}
	_ = bar.Finish()
	fmt.Println()

	for _, energy := range energies {
		logMetrics(results[energy])
	}
	return writeMetrics(results, outName("sweep.csv"))
}
