// Package attenuation turns material path lengths into photon transmission by
// Beer-Lambert exponentials, optionally corrected by build-up factors.
package attenuation

import (
	"math"

	"github.com/wildstyl3r/collim/internal/buildup"
	"github.com/wildstyl3r/collim/internal/geometry"
	"github.com/wildstyl3r/collim/internal/utils"
)

// MaterialData supplies linear attenuation coefficients [cm^-1]. The engine
// treats both lookups as pure functions.
type MaterialData interface {
	LinearAttenuation(material string, energyKeV float64) (float64, error)
	ComptonLinearAttenuation(material string, energyKeV float64) (float64, error)
}

type Engine struct {
	Materials MaterialData
	Buildup   *buildup.Service
}

func NewEngine(materials MaterialData, bu *buildup.Service) *Engine {
	return &Engine{Materials: materials, Buildup: bu}
}

type Layer struct {
	Material     string
	Thickness    float64 // [cm]
	Mu           float64 // [cm^-1]
	OpticalDepth float64 // mu * thickness, dimensionless
}

type Result struct {
	Transmission  float64 // in [0, 1]
	OpticalDepth  float64 // total mean free paths
	BuildupFactor float64 // 1 when build-up not applied
	Layers        []Layer
}

// Slab computes transmission through a single homogeneous slab.
// Zero or negative thickness, empty material or non-positive energy are
// expected boundary states in an interactive editor and yield full
// transmission rather than an error.
func (e *Engine) Slab(material string, thickness, energyKeV float64, applyBuildup bool) (Result, error) {
	neutral := Result{Transmission: 1, BuildupFactor: 1}
	if material == "" || thickness <= 0 || energyKeV <= 0 {
		return neutral, nil
	}
	mu, err := e.Materials.LinearAttenuation(material, energyKeV)
	if err != nil {
		return Result{}, err
	}
	od := mu * thickness
	result := Result{
		Transmission:  math.Exp(-od),
		OpticalDepth:  od,
		BuildupFactor: 1,
		Layers:        []Layer{{Material: material, Thickness: thickness, Mu: mu, OpticalDepth: od}},
	}
	if applyBuildup {
		factor, err := e.Buildup.GP(energyKeV, od, material)
		if err != nil {
			return Result{}, err
		}
		result.BuildupFactor = factor
		result.Transmission *= factor
	}
	result.Transmission = utils.Clamp(result.Transmission, 0, 1)
	return result, nil
}

// Collimator computes broad-beam wall transmission through the stage stack.
// Each stage contributes an effective wall thickness: half the outer width
// minus the aperture half-width at the stage midpoint. Stages with no
// material or non-positive effective thickness contribute nothing.
func (e *Engine) Collimator(g *geometry.Geometry, energyKeV float64, applyBuildup bool, method string) (Result, error) {
	result := Result{Transmission: 1, BuildupFactor: 1}
	if energyKeV <= 0 {
		return result, nil
	}
	var layers []buildup.Layer
	for i := range g.Stages {
		stage := &g.Stages[i]
		if stage.Material == "" || stage.Height <= 0 {
			continue
		}
		half := stage.Width / 2.
		ap := stage.Aperture.HalfWidthAt(stage.Height/2., stage.Height, g.SourceDistance(stage.YTop), half)
		wall := half - ap
		if wall <= 0 {
			continue
		}
		mu, err := e.Materials.LinearAttenuation(stage.Material, energyKeV)
		if err != nil {
			return Result{}, err
		}
		od := mu * wall
		result.OpticalDepth += od
		result.Layers = append(result.Layers, Layer{Material: stage.Material, Thickness: wall, Mu: mu, OpticalDepth: od})
		layers = append(layers, buildup.Layer{Material: stage.Material, DepthMFP: od})
	}
	result.Transmission = math.Exp(-result.OpticalDepth)
	if applyBuildup && len(layers) > 0 {
		factor, err := e.Buildup.Multilayer(layers, energyKeV, method)
		if err != nil {
			return Result{}, err
		}
		result.BuildupFactor = factor
		result.Transmission *= factor
	}
	result.Transmission = utils.Clamp(result.Transmission, 0, 1)
	return result, nil
}

type HVLResult struct {
	Mu  float64 // [cm^-1]
	HVL float64 // [cm]
	TVL float64 // [cm]
	MFP float64 // [cm]
}

// HVLTVL returns half-value layer, tenth-value layer and mean free path.
// Degenerate inputs (mu = 0) give infinite layers, not an error.
func (e *Engine) HVLTVL(material string, energyKeV float64) (HVLResult, error) {
	mu, err := e.Materials.LinearAttenuation(material, energyKeV)
	if err != nil {
		return HVLResult{}, err
	}
	if mu <= 0 {
		return HVLResult{HVL: math.Inf(1), TVL: math.Inf(1), MFP: math.Inf(1)}, nil
	}
	return HVLResult{
		Mu:  mu,
		HVL: math.Ln2 / mu,
		TVL: math.Log(10.) / mu,
		MFP: 1. / mu,
	}, nil
}

// TransmissionVsEnergy sweeps slab transmission over an energy grid.
func (e *Engine) TransmissionVsEnergy(material string, thickness float64, energies []float64, applyBuildup bool) ([]float64, error) {
	out := make([]float64, len(energies))
	for i, energy := range energies {
		r, err := e.Slab(material, thickness, energy, applyBuildup)
		if err != nil {
			return nil, err
		}
		out[i] = r.Transmission
	}
	return out, nil
}

// TransmissionVsThickness sweeps slab transmission over a thickness grid.
func (e *Engine) TransmissionVsThickness(material string, thicknesses []float64, energyKeV float64, applyBuildup bool) ([]float64, error) {
	out := make([]float64, len(thicknesses))
	for i, t := range thicknesses {
		r, err := e.Slab(material, t, energyKeV, applyBuildup)
		if err != nil {
			return nil, err
		}
		out[i] = r.Transmission
	}
	return out, nil
}
