package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wildstyl3r/collim/internal/utils"
)

var hvlEnergy float64

var hvlCmd = &cobra.Command{
	Use:   "hvl",
	Short: "Print half/tenth-value layers for every known material",
	RunE:  runHVL,
}

func init() {
	rootCmd.AddCommand(hvlCmd)
	hvlCmd.Flags().Float64VarP(&hvlEnergy, "energy", "e", 1000, "photon energy (keV)")
}

func runHVL(cmd *cobra.Command, args []string) error {
	rows := make(utils.CSV, 0)
	fmt.Printf("%-12s %10s %10s %10s %10s\n", "material", "mu (1/cm)", "HVL (mm)", "TVL (mm)", "MFP (mm)")
	for _, name := range mats.Names() {
		r, err := engine.HVLTVL(name, hvlEnergy)
		if err != nil {
			return err
		}
		fmt.Printf("%-12s %10.4f %10.3f %10.3f %10.3f\n", name, r.Mu, r.HVL*10., r.TVL*10., r.MFP*10.)
		rows = append(rows, []string{
			name,
			strconv.FormatFloat(r.Mu, 'f', 5, 64),
			strconv.FormatFloat(r.HVL*10., 'f', 4, 64),
			strconv.FormatFloat(r.TVL*10., 'f', 4, 64),
			strconv.FormatFloat(r.MFP*10., 'f', 4, 64),
		})
	}
	if cfg == nil || cfg.OutputDir == "" {
		return nil
	}
	return utils.WriteAsCSV(rows, cfg.OutputDir, outName("hvl.csv"),
		[]string{"material", "mu (1/cm)", "HVL (mm)", "TVL (mm)", "MFP (mm)"})
}
