package beam

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wildstyl3r/collim/internal/geometry"
	"github.com/wildstyl3r/collim/internal/utils"
)

// trapezoid builds a synthetic profile: flat top for |x| <= 4, linear ramp to
// zero between |x| = 4 and |x| = 6.
func trapezoid() Profile {
	positions := utils.Linspace(-10, 10, 201)
	intensities := make([]float64, len(positions))
	for i, x := range positions {
		ax := math.Abs(x)
		switch {
		case ax <= 4:
			intensities[i] = 1
		case ax < 6:
			intensities[i] = (6 - ax) / 2.
		}
	}
	return Profile{Positions: positions, Intensities: intensities, Angles: make([]float64, len(positions))}
}

func TestTrapezoidMetrics(t *testing.T) {
	m := CalculateMetrics(trapezoid(), DefaultThresholds(geometry.Slit))
	assert.InDelta(t, 10., m.FWHM, 0.01)
	assert.InDelta(t, 1.2, m.PenumbraLeft, 0.01)
	assert.InDelta(t, 1.2, m.PenumbraRight, 0.01)
	assert.InDelta(t, 1.2, m.PenumbraMax, 0.01)
	assert.InDelta(t, 0., m.FlatnessPct, 1e-9)

	// everything outside the penumbra skirt is exactly zero
	assert.Equal(t, noLeakageRatio, m.CollimationRatio)
	assert.InDelta(t, 60., m.CollimationRatioDB, 1e-9)
	assert.Equal(t, 0., m.LeakageMeanPct)

	assert.Equal(t, Excellent, m.FlatnessGrade)
	assert.Equal(t, Excellent, m.LeakageGrade)
	assert.Equal(t, Excellent, m.RatioGrade)
	assert.Equal(t, Poor, m.PenumbraGrade) // 12 mm penumbra is poor for a slit
	assert.False(t, m.OverallPass)
}

func TestMetricsDegenerateProfiles(t *testing.T) {
	assert.Equal(t, Metrics{}, CalculateMetrics(Profile{}, DefaultThresholds(geometry.Slit)))
	flat := Profile{Positions: []float64{-1, 0, 1}, Intensities: []float64{0, 0, 0}}
	assert.Equal(t, Metrics{}, CalculateMetrics(flat, DefaultThresholds(geometry.Slit)))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, Excellent, classify(0.1, 0.2, 0.5, true))
	assert.Equal(t, Acceptable, classify(0.3, 0.2, 0.5, true))
	assert.Equal(t, Poor, classify(0.7, 0.2, 0.5, true))
	assert.Equal(t, Excellent, classify(2000, 1000, 100, false))
	assert.Equal(t, Acceptable, classify(500, 1000, 100, false))
	assert.Equal(t, Poor, classify(50, 1000, 100, false))
}

func TestDefaultThresholdsPerType(t *testing.T) {
	pencil := DefaultThresholds(geometry.Pencil)
	fan := DefaultThresholds(geometry.Fan)
	assert.Less(t, pencil.PenumbraExcellent, fan.PenumbraExcellent)
}
