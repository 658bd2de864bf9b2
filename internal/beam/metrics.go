package beam

import (
	"math"

	"github.com/wildstyl3r/collim/internal/geometry"
	"github.com/wildstyl3r/collim/internal/utils"
)

type Grade string

const (
	Excellent  Grade = "excellent"
	Acceptable Grade = "acceptable"
	Poor       Grade = "poor"
)

// noLeakageRatio is the conventional collimation ratio reported when the
// profile has no distinguishable leakage region.
const noLeakageRatio = 1e6

// Thresholds are excellent/acceptable boundaries per metric. Penumbra in cm,
// flatness and leakage in percent, collimation ratio linear (higher better).
type Thresholds struct {
	PenumbraExcellent  float64
	PenumbraAcceptable float64
	FlatnessExcellent  float64
	FlatnessAcceptable float64
	LeakageExcellent   float64
	LeakageAcceptable  float64
	RatioExcellent     float64
	RatioAcceptable    float64
}

func DefaultThresholds(t geometry.CollimatorType) Thresholds {
	switch t {
	case geometry.Pencil:
		return Thresholds{
			PenumbraExcellent: 0.1, PenumbraAcceptable: 0.3,
			FlatnessExcellent: 3, FlatnessAcceptable: 5,
			LeakageExcellent: 0.1, LeakageAcceptable: 1,
			RatioExcellent: 1000, RatioAcceptable: 100,
		}
	case geometry.Slit:
		return Thresholds{
			PenumbraExcellent: 0.2, PenumbraAcceptable: 0.5,
			FlatnessExcellent: 3, FlatnessAcceptable: 5,
			LeakageExcellent: 0.1, LeakageAcceptable: 1,
			RatioExcellent: 1000, RatioAcceptable: 100,
		}
	default: // fan
		return Thresholds{
			PenumbraExcellent: 0.3, PenumbraAcceptable: 0.8,
			FlatnessExcellent: 5, FlatnessAcceptable: 10,
			LeakageExcellent: 0.5, LeakageAcceptable: 2,
			RatioExcellent: 500, RatioAcceptable: 50,
		}
	}
}

type Metrics struct {
	FWHM               float64 // [cm]
	PenumbraLeft       float64 // [cm]
	PenumbraRight      float64 // [cm]
	PenumbraMax        float64 // [cm]
	FlatnessPct        float64
	LeakageMeanPct     float64
	LeakageMaxPct      float64
	CollimationRatio   float64
	CollimationRatioDB float64

	PenumbraGrade Grade
	FlatnessGrade Grade
	LeakageGrade  Grade
	RatioGrade    Grade
	OverallPass   bool // no metric graded poor
}

// findEdges locates the first below-to-above crossing (left) and the last
// above-to-below crossing (right) of the given intensity level, linearly
// interpolated between profile samples. For a profile that starts or ends
// above the level, the edge degrades to the corresponding endpoint.
func findEdges(positions, intensities []float64, level float64) (left, right float64) {
	left, right = positions[0], positions[len(positions)-1]
	for i := 1; i < len(intensities); i++ {
		if intensities[i-1] < level && intensities[i] >= level {
			t := (level - intensities[i-1]) / (intensities[i] - intensities[i-1])
			left = math.FMA(t, positions[i]-positions[i-1], positions[i-1])
			break
		}
	}
	for i := len(intensities) - 1; i > 0; i-- {
		if intensities[i-1] >= level && intensities[i] < level {
			t := (intensities[i-1] - level) / (intensities[i-1] - intensities[i])
			right = math.FMA(t, positions[i]-positions[i-1], positions[i-1])
			break
		}
	}
	return
}

func classify(value, excellent, acceptable float64, lowerIsBetter bool) Grade {
	if lowerIsBetter {
		switch {
		case value <= excellent:
			return Excellent
		case value <= acceptable:
			return Acceptable
		}
		return Poor
	}
	switch {
	case value >= excellent:
		return Excellent
	case value >= acceptable:
		return Acceptable
	}
	return Poor
}

// CalculateMetrics derives the scalar beam quality summary from a sorted
// profile and classifies each metric against the thresholds.
func CalculateMetrics(p Profile, th Thresholds) Metrics {
	var m Metrics
	if len(p.Positions) < 2 {
		return m
	}
	peak := p.Intensities[utils.Argmax(p.Intensities)]
	if peak <= 0 {
		return m
	}

	fwhmLeft, fwhmRight := findEdges(p.Positions, p.Intensities, 0.5*peak)
	m.FWHM = fwhmRight - fwhmLeft

	l80, r80 := findEdges(p.Positions, p.Intensities, 0.8*peak)
	l20, r20 := findEdges(p.Positions, p.Intensities, 0.2*peak)
	m.PenumbraLeft = math.Abs(l80 - l20)
	m.PenumbraRight = math.Abs(r20 - r80)
	m.PenumbraMax = math.Max(m.PenumbraLeft, m.PenumbraRight)

	// flatness over the central region trimmed 10% inward from each edge
	trim := 0.1 * m.FWHM
	iMin, iMax := math.Inf(1), math.Inf(-1)
	for i, pos := range p.Positions {
		if pos < fwhmLeft+trim || pos > fwhmRight-trim {
			continue
		}
		iMin = math.Min(iMin, p.Intensities[i])
		iMax = math.Max(iMax, p.Intensities[i])
	}
	if iMax > iMin && iMax+iMin > 0 {
		m.FlatnessPct = 100. * (iMax - iMin) / (iMax + iMin)
	}

	// leakage outside the beam plus its penumbra skirt, relative to the
	// mean primary intensity inside the FWHM
	var inSum, outSum, outMax float64
	inCount, outCount := 0, 0
	for i, pos := range p.Positions {
		switch {
		case pos >= fwhmLeft && pos <= fwhmRight:
			inSum += p.Intensities[i]
			inCount++
		case pos < fwhmLeft-m.PenumbraMax || pos > fwhmRight+m.PenumbraMax:
			outSum += p.Intensities[i]
			outMax = math.Max(outMax, p.Intensities[i])
			outCount++
		}
	}
	if inCount > 0 && outCount > 0 {
		meanIn := inSum / float64(inCount)
		meanOut := outSum / float64(outCount)
		if meanIn > 0 && meanOut > 1e-12 {
			m.LeakageMeanPct = 100. * meanOut / meanIn
			m.LeakageMaxPct = 100. * outMax / meanIn
			m.CollimationRatio = meanIn / meanOut
		} else {
			m.CollimationRatio = noLeakageRatio
		}
	} else {
		// no distinguishable leakage region: conventional high ratio,
		// not an error
		m.CollimationRatio = noLeakageRatio
	}
	m.CollimationRatioDB = 10. * math.Log10(m.CollimationRatio)

	m.PenumbraGrade = classify(m.PenumbraMax, th.PenumbraExcellent, th.PenumbraAcceptable, true)
	m.FlatnessGrade = classify(m.FlatnessPct, th.FlatnessExcellent, th.FlatnessAcceptable, true)
	m.LeakageGrade = classify(m.LeakageMeanPct, th.LeakageExcellent, th.LeakageAcceptable, true)
	m.RatioGrade = classify(m.CollimationRatio, th.RatioExcellent, th.RatioAcceptable, false)
	m.OverallPass = m.PenumbraGrade != Poor && m.FlatnessGrade != Poor &&
		m.LeakageGrade != Poor && m.RatioGrade != Poor
	return m
}
