// Package beam drives the full primary simulation: it fans rays over the
// collimator, converts traced material paths into transmission, derives the
// detector beam profile and scores it with standard beam quality metrics.
package beam

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/wildstyl3r/collim/internal/attenuation"
	"github.com/wildstyl3r/collim/internal/buildup"
	"github.com/wildstyl3r/collim/internal/geometry"
	"github.com/wildstyl3r/collim/internal/scatter"
)

// ErrCancelled is the silent, expected termination path: a cancelled run
// yields no result and no user-facing failure.
var ErrCancelled = errors.New("simulation cancelled")

// Profile is the detector-plane beam profile as parallel arrays sorted
// ascending by position.
type Profile struct {
	Positions   []float64 // [cm]
	Intensities []float64 // in [0, 1]
	Angles      []float64 // originating ray angle [rad]
}

type SimulationResult struct {
	EnergyKeV      float64
	RayCount       int
	Profile        Profile
	Metrics        Metrics
	Elapsed        time.Duration
	BuildupApplied bool
	Scatter        *scatter.Result
}

// Simulator is a plain function-call library: no internal goroutines, no
// shared mutable state between runs. Progress and cancellation hooks are
// optional and evaluated between ray iterations.
type Simulator struct {
	Geometry   *geometry.Geometry
	Engine     *attenuation.Engine
	Method     string // multilayer build-up policy
	Thresholds *Thresholds
	Progress   func(percent int)
	Cancelled  func() bool
}

func NewSimulator(g *geometry.Geometry, engine *attenuation.Engine) *Simulator {
	return &Simulator{Geometry: g, Engine: engine, Method: buildup.MethodLastMaterial}
}

// Run computes one monoenergetic beam profile with quality metrics.
func (s *Simulator) Run(energyKeV float64, rayCount int, applyBuildup bool) (*SimulationResult, error) {
	start := time.Now()
	result := &SimulationResult{
		EnergyKeV:      energyKeV,
		RayCount:       rayCount,
		BuildupApplied: applyBuildup,
	}
	if rayCount <= 0 || energyKeV <= 0 {
		// degenerate but expected while a design is being edited
		result.Elapsed = time.Since(start)
		return result, nil
	}

	rays := geometry.RayFan(rayCount, energyKeV, s.Geometry)
	progressStep := rayCount / 100
	if progressStep == 0 {
		progressStep = 1
	}

	positions := make([]float64, len(rays))
	intensities := make([]float64, len(rays))
	angles := make([]float64, len(rays))
	for i, ray := range rays {
		if s.Cancelled != nil && s.Cancelled() {
			return nil, ErrCancelled
		}
		if s.Progress != nil && i%progressStep == 0 {
			s.Progress(i * 100 / rayCount)
		}
		intensity, err := s.rayIntensity(ray, applyBuildup)
		if err != nil {
			return nil, err
		}
		positions[i] = geometry.DetectorPosition(ray, s.Geometry)
		intensities[i] = intensity
		angles[i] = ray.Angle
	}
	if s.Progress != nil {
		s.Progress(100)
	}

	order := make([]int, len(rays))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return positions[order[a]] < positions[order[b]] })
	profile := Profile{
		Positions:   make([]float64, len(rays)),
		Intensities: make([]float64, len(rays)),
		Angles:      make([]float64, len(rays)),
	}
	for i, idx := range order {
		profile.Positions[i] = positions[idx]
		profile.Intensities[i] = intensities[idx]
		profile.Angles[i] = angles[idx]
	}

	thresholds := s.Thresholds
	if thresholds == nil {
		t := DefaultThresholds(s.Geometry.Type)
		thresholds = &t
	}
	result.Profile = profile
	result.Metrics = CalculateMetrics(profile, *thresholds)
	result.Elapsed = time.Since(start)
	return result, nil
}

func (s *Simulator) rayIntensity(ray geometry.Ray, applyBuildup bool) (float64, error) {
	sections := geometry.TraceRay(ray, s.Geometry)
	var opticalDepth float64
	var layers []buildup.Layer
	for _, sect := range sections {
		if sect.PassesAperture {
			continue
		}
		for _, layer := range sect.Layers {
			mu, err := s.Engine.Materials.LinearAttenuation(layer.Material, ray.Energy)
			if err != nil {
				return 0, err
			}
			od := mu * layer.PathLength
			opticalDepth += od
			layers = append(layers, buildup.Layer{Material: layer.Material, DepthMFP: od})
		}
	}
	if opticalDepth == 0 {
		return 1, nil
	}
	transmission := math.Exp(-opticalDepth)
	if applyBuildup {
		factor, err := s.Engine.Buildup.Multilayer(layers, ray.Energy, s.Method)
		if err != nil {
			return 0, err
		}
		transmission *= factor
	}
	return math.Min(1., transmission), nil
}

// RunWithScatter runs the primary simulation and then the single-scatter
// Monte Carlo pass over the same ray fan, attaching its result. Progress
// spans both phases: primary maps to 0-50, scatter to 50-100. Cancellation
// is checked between rays in both.
func (s *Simulator) RunWithScatter(energyKeV float64, rayCount int, applyBuildup bool, tracer *scatter.Tracer, cfg scatter.Config) (*SimulationResult, error) {
	outer := s.Progress
	if outer != nil {
		s.Progress = func(percent int) { outer(percent / 2) }
		defer func() { s.Progress = outer }()
	}
	result, err := s.Run(energyKeV, rayCount, applyBuildup)
	if err != nil {
		return nil, err
	}

	tracer.Cancelled = s.Cancelled
	if outer != nil {
		tracer.Progress = func(percent int) { outer(50 + percent/2) }
	}
	sc, err := tracer.Simulate(energyKeV, rayCount, result.Profile.Positions, result.Profile.Intensities, cfg)
	if err != nil {
		if errors.Is(err, scatter.ErrCancelled) {
			return nil, ErrCancelled
		}
		return nil, err
	}
	result.Scatter = sc
	if outer != nil {
		outer(100)
	}
	return result, nil
}

// CompareEnergies runs the same simulation once per energy with aggregated
// progress reporting.
func (s *Simulator) CompareEnergies(energies []float64, rayCount int, applyBuildup bool) (map[float64]*SimulationResult, error) {
	results := make(map[float64]*SimulationResult, len(energies))
	outer := s.Progress
	defer func() { s.Progress = outer }()
	for k, energy := range energies {
		if outer != nil {
			k := k
			s.Progress = func(percent int) {
				outer((k*100 + percent) / len(energies))
			}
		}
		r, err := s.Run(energy, rayCount, applyBuildup)
		if err != nil {
			return nil, err
		}
		results[energy] = r
	}
	if outer != nil {
		outer(100)
	}
	return results, nil
}
