// Package cli wires the simulation core to a terminal: config loading,
// progress display and CSV export. Display units (mm, degrees) exist only
// here; the core works in centimetres and radians.
package cli

import (
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wildstyl3r/collim/internal/attenuation"
	"github.com/wildstyl3r/collim/internal/buildup"
	"github.com/wildstyl3r/collim/internal/config"
	"github.com/wildstyl3r/collim/internal/materials"
	"github.com/wildstyl3r/collim/internal/utils"
)

var (
	cfgFile string
	cfg     *config.Config
	mats    *materials.Service
	engine  *attenuation.Engine
	log     = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:   "collim",
	Short: "2D multi-stage collimator simulator",
	Long: `collim traces photon rays through a staged collimator cross-section,
computes Beer-Lambert transmission with build-up correction and estimates
scatter-to-primary ratio with a single-scatter Compton Monte Carlo pass.

Example usage:
  collim simulate -c design.toml   # beam profile and quality metrics
  collim scatter -c design.toml    # adds the scatter pass and SPR profile
  collim sweep -c design.toml      # compare the configured energy list
  collim hvl -e 1000               # shielding layer table at 1000 keV`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if mats, err = materials.NewService(); err != nil {
			return err
		}
		bu, err := buildup.NewService()
		if err != nil {
			return err
		}
		engine = attenuation.NewEngine(mats, bu)
		if cfgFile == "" {
			return nil // hvl works without a design file
		}
		cfg, err = config.Load(cfgFile)
		return err
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	log.SetOutput(os.Stderr)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "collimator design file (toml)")
}

func requireConfig() error {
	if cfg == nil {
		return errNoConfig
	}
	return nil
}

type noConfigError struct{}

func (noConfigError) Error() string { return "a design file is required (-c design.toml)" }

var errNoConfig = noConfigError{}

// outName prefixes output files with the design file's base name, so several
// designs can share one output directory.
func outName(suffix string) string {
	if cfgFile == "" {
		return suffix
	}
	return utils.GetFilename(cfgFile) + "_" + suffix
}

// newProgressBar adapts the terminal bar to the core's percent sink.
func newProgressBar(description string) (*progressbar.ProgressBar, func(percent int)) {
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
	)
	return bar, func(percent int) { _ = bar.Set(percent) }
}
