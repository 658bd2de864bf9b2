// Package compton implements Compton scattering kinematics, Klein-Nishina
// cross sections and a Kahn rejection sampler for scattering angles.
// Energies are keV, angles radians in [0, pi], cross sections cm^2.
package compton

import (
	"math"

	"github.com/wildstyl3r/collim/internal/constants"
)

// Alpha is the incident energy in electron rest-mass units.
func Alpha(energyKeV float64) float64 {
	return energyKeV / constants.ElectronRestEnergyKeV
}

// ScatteredEnergy is the photon energy after scattering through theta:
// E' = E0 / (1 + a(1 - cos theta)).
func ScatteredEnergy(e0, theta float64) float64 {
	if e0 <= 0 {
		return 0
	}
	return e0 / (1. + Alpha(e0)*(1.-math.Cos(theta)))
}

// RecoilEnergy is the kinetic energy transferred to the electron.
func RecoilEnergy(e0, theta float64) float64 {
	return e0 - ScatteredEnergy(e0, theta)
}

// ComptonEdge returns the backscatter (theta = pi) photon energy and the
// maximum recoil electron energy.
func ComptonEdge(e0 float64) (scattered, recoil float64) {
	scattered = ScatteredEnergy(e0, math.Pi)
	recoil = e0 - scattered
	return
}

// WavelengthShift is the Compton shift in Angstrom at angle theta.
func WavelengthShift(theta float64) float64 {
	return constants.ComptonWavelength * (1. - math.Cos(theta))
}

// KleinNishinaDifferential is d(sigma)/d(Omega) per electron [cm^2/sr].
func KleinNishinaDifferential(e0, theta float64) float64 {
	if e0 <= 0 {
		// Thomson limit
		cos := math.Cos(theta)
		r := constants.ClassicalElectronRadius
		return r * r / 2. * (1. + cos*cos)
	}
	ratio := ScatteredEnergy(e0, theta) / e0
	sin := math.Sin(theta)
	r := constants.ClassicalElectronRadius
	return r * r / 2. * ratio * ratio * (ratio + 1./ratio - sin*sin)
}

// TotalCrossSection is the Klein-Nishina total cross section per electron
// [cm^2], closed form. Below ~0.05 keV the closed form cancels
// catastrophically, so a Thomson-limit expansion takes over.
func TotalCrossSection(e0 float64) float64 {
	a := Alpha(e0)
	if a < 1e-4 {
		return constants.ThomsonCrossSection * (1. - 2.*a + 26./5.*a*a)
	}
	r := constants.ClassicalElectronRadius
	ln := math.Log(1. + 2.*a)
	term1 := (1. + a) / (a * a) * (2.*(1.+a)/(1.+2.*a) - ln/a)
	term2 := ln / (2. * a)
	term3 := (1. + 3.*a) / ((1. + 2.*a) * (1. + 2.*a))
	return 2. * math.Pi * r * r * (term1 + term2 - term3)
}
