// Package scatter runs a single-scatter Compton Monte Carlo pass over the
// collimator: primary rays walk their material paths in fixed steps, each
// step may produce one Klein-Nishina scatter event, and surviving scattered
// rays are traced to the detector to estimate the scatter-to-primary ratio.
package scatter

import (
	"errors"
	"math"
	"math/rand"

	"github.com/wildstyl3r/collim/internal/attenuation"
	"github.com/wildstyl3r/collim/internal/compton"
	"github.com/wildstyl3r/collim/internal/constants"
	"github.com/wildstyl3r/collim/internal/geometry"
	"github.com/wildstyl3r/collim/internal/utils"
)

var ErrNoGeometry = errors.New("no geometry configured")
var ErrNoPrimary = errors.New("no primary profile")

// ErrCancelled is the silent termination path: a cancelled pass yields no
// result and no user-facing failure.
var ErrCancelled = errors.New("scatter simulation cancelled")

type Config struct {
	StepSize     float64 // material walk step [cm]
	MinEnergyKeV float64 // discard scattered photons below this
	Bins         int     // spatial bins across the detector
}

func (c Config) withDefaults() Config {
	if c.StepSize <= 0 {
		c.StepSize = 0.1
	}
	if c.Bins <= 0 {
		c.Bins = 64
	}
	return c
}

// Interaction is one sampled Compton event, contributing or not.
type Interaction struct {
	X, Y            float64 // interaction point [cm]
	StageIndex      int
	Material        string
	IncidentKeV     float64
	ScatteredKeV    float64
	Theta, Phi      float64 // sampled cone angles [rad]
	ScatterAngle    float64 // projected planar direction [rad]
	ReachesDetector bool
	DetectorX       float64 // defined only when ReachesDetector
	Weight          float64 // attenuation weight in [0, 1]
}

type Result struct {
	Interactions     []Interaction
	Positions        []float64 // bin centers [cm]
	ScatterProfile   []float64 // smoothed scatter per primary ray
	SPR              []float64 // scatter-to-primary ratio per bin
	ScatterFraction  float64   // from unsmoothed totals
	MeanScatteredKeV float64   // over detector-reaching events
	ScatteredKeVCI   float64   // 95% confidence half-width of the mean
}

// Tracer owns its random source; two tracers with independently seeded
// sources are reproducible and independent. Progress and cancellation hooks
// are optional and evaluated between ray iterations.
type Tracer struct {
	Geometry  *geometry.Geometry
	Materials attenuation.MaterialData
	Progress  func(percent int)
	Cancelled func() bool
	sampler   *compton.KahnSampler
	rng       *rand.Rand
}

func NewTracer(g *geometry.Geometry, materials attenuation.MaterialData, rng *rand.Rand) *Tracer {
	return &Tracer{Geometry: g, Materials: materials, sampler: compton.NewKahnSampler(rng), rng: rng}
}

// Simulate generates the same primary fan as the beam orchestrator and walks
// every blocked material path. primaryPositions/primaryIntensities are the
// already-computed primary profile used for the SPR denominator.
func (t *Tracer) Simulate(energyKeV float64, rayCount int, primaryPositions, primaryIntensities []float64, cfg Config) (*Result, error) {
	if t.Geometry == nil || len(t.Geometry.Stages) == 0 {
		return nil, ErrNoGeometry
	}
	if len(primaryPositions) == 0 || len(primaryPositions) != len(primaryIntensities) {
		return nil, ErrNoPrimary
	}
	cfg = cfg.withDefaults()
	if rayCount <= 0 {
		return t.buildResult(nil, 0, primaryPositions, primaryIntensities, cfg), nil
	}

	progressStep := rayCount / 100
	if progressStep == 0 {
		progressStep = 1
	}

	var interactions []Interaction
	layouts := t.Geometry.Layout()
	for i, ray := range geometry.RayFan(rayCount, energyKeV, t.Geometry) {
		if t.Cancelled != nil && t.Cancelled() {
			return nil, ErrCancelled
		}
		if t.Progress != nil && i%progressStep == 0 {
			t.Progress(i * 100 / rayCount)
		}
		sections := geometry.TraceRay(ray, t.Geometry)
		event, err := t.walkRay(ray, sections, layouts, cfg)
		if err != nil {
			return nil, err
		}
		if event != nil {
			interactions = append(interactions, *event)
		}
	}
	if t.Progress != nil {
		t.Progress(100)
	}
	return t.buildResult(interactions, rayCount, primaryPositions, primaryIntensities, cfg), nil
}

// walkRay steps through every blocked material segment until the first
// sampled scatter event (the transport is strictly single-scatter). Per-step
// rejections never fail: cutoff or angle rejection yields a non-contributing
// interaction kept for diagnostics.
func (t *Tracer) walkRay(ray geometry.Ray, sections []geometry.StageIntersection, layouts []geometry.StageLayout, cfg Config) (*Interaction, error) {
	cosAngle := math.Cos(ray.Angle)
	for si, sect := range sections {
		if sect.PassesAperture {
			continue
		}
		for _, layer := range sect.Layers {
			muTotal, err := t.Materials.LinearAttenuation(layer.Material, ray.Energy)
			if err != nil {
				return nil, err
			}
			muCompton, err := t.Materials.ComptonLinearAttenuation(layer.Material, ray.Energy)
			if err != nil {
				return nil, err
			}
			if muTotal <= 0 {
				continue
			}
			ratio := muCompton / muTotal
			fullProb := ratio * (1. - math.Exp(-muTotal*cfg.StepSize))
			steps := int(layer.PathLength / cfg.StepSize)
			residual := layer.PathLength - float64(steps)*cfg.StepSize
			for j := 0; j <= steps; j++ {
				stepLen, prob := cfg.StepSize, fullProb
				if j == steps {
					// final partial step carries only the residual length
					if residual <= 0 {
						break
					}
					stepLen = residual
					prob = ratio * (1. - math.Exp(-muTotal*residual))
				}
				if t.rng.Float64() >= prob {
					continue
				}
				// the material path is taken to start at the stage top;
				// sub-stage entry offsets are below the step resolution
				depth := (float64(j)*cfg.StepSize + stepLen/2.) * cosAngle
				y := layouts[si].YTop - depth
				event := t.scatterEvent(ray, si, layer.Material, ray.XAt(y), y, cfg)
				return event, nil
			}
		}
	}
	return nil, nil
}

func (t *Tracer) scatterEvent(ray geometry.Ray, stageIndex int, material string, x, y float64, cfg Config) *Interaction {
	smp := t.sampler.Sample(ray.Energy)
	// planar projection of the 3D scattering cone; an acknowledged
	// approximation kept as-is because metric calibration depends on it
	scatterAngle := ray.Angle + smp.Theta*math.Cos(smp.Phi)
	event := &Interaction{
		X:            x,
		Y:            y,
		StageIndex:   stageIndex,
		Material:     material,
		IncidentKeV:  ray.Energy,
		ScatteredKeV: smp.Scattered,
		Theta:        smp.Theta,
		Phi:          smp.Phi,
		ScatterAngle: scatterAngle,
	}
	if smp.Scattered < cfg.MinEnergyKeV {
		return event
	}
	if math.Abs(scatterAngle) > math.Pi/2. {
		// cannot progress toward the detector plane
		return event
	}
	scattered := geometry.Ray{X: x, Y: y, Angle: scatterAngle, Energy: smp.Scattered}
	var opticalDepth float64
	for _, sect := range geometry.TraceRay(scattered, t.Geometry) {
		if sect.PassesAperture {
			continue
		}
		for _, layer := range sect.Layers {
			mu, err := t.Materials.LinearAttenuation(layer.Material, scattered.Energy)
			if err != nil {
				continue // unknown material along the rescatter path: drop the segment
			}
			opticalDepth += mu * layer.PathLength
		}
	}
	event.Weight = math.Exp(-opticalDepth)
	detX := geometry.DetectorPosition(scattered, t.Geometry)
	if math.Abs(detX) <= t.Geometry.DetectorWidth/2. {
		event.ReachesDetector = true
		event.DetectorX = detX
	}
	return event
}

func (t *Tracer) buildResult(interactions []Interaction, rayCount int, primaryPositions, primaryIntensities []float64, cfg Config) *Result {
	half := t.Geometry.DetectorWidth / 2.
	binWidth := t.Geometry.DetectorWidth / float64(cfg.Bins)
	positions := make([]float64, cfg.Bins)
	for i := range positions {
		positions[i] = math.FMA(float64(i)+0.5, binWidth, -half)
	}

	scatterHist := make([]float64, cfg.Bins)
	var totalScatter float64
	var reachingKeV []float64
	for i := range interactions {
		ev := &interactions[i]
		if !ev.ReachesDetector {
			continue
		}
		bin := int((ev.DetectorX + half) / binWidth)
		if bin < 0 || bin >= cfg.Bins {
			continue
		}
		scatterHist[bin] += ev.Weight
		totalScatter += ev.Weight
		reachingKeV = append(reachingKeV, ev.ScatteredKeV)
	}

	primaryHist := make([]float64, cfg.Bins)
	var totalPrimary float64
	for i, pos := range primaryPositions {
		bin := int((pos + half) / binWidth)
		if bin < 0 || bin >= cfg.Bins {
			continue
		}
		primaryHist[bin] += primaryIntensities[i]
		totalPrimary += primaryIntensities[i]
	}

	// per-ray normalization before smoothing
	if rayCount > 0 {
		for i := range scatterHist {
			scatterHist[i] /= float64(rayCount)
		}
	}
	for i := range primaryHist {
		primaryHist[i] /= float64(len(primaryPositions))
	}

	sigmaBins := 0.02 * t.Geometry.DetectorWidth / binWidth
	scatterSmooth := gaussianSmooth(scatterHist, sigmaBins)
	primarySmooth := gaussianSmooth(primaryHist, sigmaBins)

	spr := make([]float64, cfg.Bins)
	for i := range spr {
		if primarySmooth[i] > 1e-12 {
			spr[i] = scatterSmooth[i] / primarySmooth[i]
		}
	}

	result := &Result{
		Interactions:   interactions,
		Positions:      positions,
		ScatterProfile: scatterSmooth,
		SPR:            spr,
	}
	if totalScatter+totalPrimary > 0 {
		result.ScatterFraction = totalScatter / (totalScatter + totalPrimary)
	}
	if len(reachingKeV) > 0 {
		result.MeanScatteredKeV = utils.Average(reachingKeV)
	}
	if len(reachingKeV) > 1 {
		_, variance := utils.MeanAndVariance(reachingKeV, true)
		result.ScatteredKeVCI = constants.Quantile95 * math.Sqrt(variance/float64(len(reachingKeV)))
	}
	return result
}

// gaussianSmooth convolves the histogram with a small Gaussian kernel to
// suppress Monte Carlo noise. sigma is in bins.
func gaussianSmooth(hist []float64, sigma float64) []float64 {
	if sigma <= 0 {
		out := make([]float64, len(hist))
		copy(out, hist)
		return out
	}
	radius := int(math.Ceil(3. * sigma))
	kernel := make([]float64, 2*radius+1)
	for i := range kernel {
		d := float64(i - radius)
		kernel[i] = math.Exp(-d * d / (2. * sigma * sigma))
	}
	norm := utils.SumSlice(kernel)
	out := make([]float64, len(hist))
	for i := range hist {
		var acc float64
		for k, w := range kernel {
			j := i + k - radius
			if j < 0 || j >= len(hist) {
				continue
			}
			acc += w * hist[j]
		}
		out[i] = acc / norm
	}
	return out
}
