package compton

import (
	"math"

	"github.com/wildstyl3r/collim/internal/utils"
)

// AngularDistribution tabulates the differential cross section over n angles
// spanning [0, pi].
func AngularDistribution(e0 float64, n int) (thetas, dSigma []float64) {
	thetas = utils.Linspace(0, math.Pi, n)
	dSigma = make([]float64, len(thetas))
	for i, theta := range thetas {
		dSigma[i] = KleinNishinaDifferential(e0, theta)
	}
	return
}

// EnergySpectrum tabulates scattered photon energies over [0, pi] with the
// solid-angle weighted cross section as relative intensity.
func EnergySpectrum(e0 float64, n int) (energies, weights []float64) {
	thetas := utils.Linspace(0, math.Pi, n)
	energies = make([]float64, len(thetas))
	weights = make([]float64, len(thetas))
	for i, theta := range thetas {
		energies[i] = ScatteredEnergy(e0, theta)
		weights[i] = KleinNishinaDifferential(e0, theta) * math.Sin(theta)
	}
	return
}

// AngleEnergyMap tabulates scattered and recoil energy versus angle.
func AngleEnergyMap(e0 float64, n int) (thetas, scattered, recoil []float64) {
	thetas = utils.Linspace(0, math.Pi, n)
	scattered = make([]float64, len(thetas))
	recoil = make([]float64, len(thetas))
	for i, theta := range thetas {
		scattered[i] = ScatteredEnergy(e0, theta)
		recoil[i] = e0 - scattered[i]
	}
	return
}

// CrossSectionSweep evaluates the total cross section per energy.
func CrossSectionSweep(energies []float64) []float64 {
	sigma := make([]float64, len(energies))
	for i, e := range energies {
		sigma[i] = TotalCrossSection(e)
	}
	return sigma
}
