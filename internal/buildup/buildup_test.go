package buildup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	s, err := NewService()
	require.NoError(t, err)
	return s
}

func TestGPZeroDepthIsExactlyOne(t *testing.T) {
	s := newTestService(t)
	for _, material := range []string{"lead", "iron", "concrete", "aluminum"} {
		for _, energy := range []float64{100, 500, 1000, 3000} {
			factor, err := s.GP(energy, 0, material)
			require.NoError(t, err)
			assert.Equal(t, 1., factor, "%s at %v keV", material, energy)
		}
	}
}

func TestGPMonotoneAndAtLeastOne(t *testing.T) {
	s := newTestService(t)
	for _, material := range []string{"lead", "tungsten", "iron", "copper", "aluminum", "concrete"} {
		for _, energy := range []float64{80, 150, 500, 1000, 2500, 6000} {
			prev := 0.
			for depth := 0.; depth <= 40.; depth += 0.5 {
				factor, err := s.GP(energy, depth, material)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, factor, 1.)
				assert.GreaterOrEqual(t, factor, prev,
					"B must be monotone in depth: %s %v keV depth %v", material, energy, depth)
				prev = factor
			}
		}
	}
}

func TestTaylorFit(t *testing.T) {
	s := newTestService(t)
	factor, err := s.Taylor(1000, 0, "lead")
	require.NoError(t, err)
	assert.Equal(t, 1., factor)

	factor, err = s.Taylor(1000, 5, "lead")
	require.NoError(t, err)
	assert.Greater(t, factor, 1.)

	_, err = s.Taylor(1000, 5, "tungsten")
	assert.ErrorIs(t, err, ErrNoData)
	assert.False(t, s.HasTaylorData("tungsten"))
	assert.True(t, s.HasTaylorData("lead"))
}

func TestMultilayerSingleLayerMatchesGP(t *testing.T) {
	s := newTestService(t)
	direct, err := s.GP(662, 3.5, "iron")
	require.NoError(t, err)
	multi, err := s.Multilayer([]Layer{{Material: "iron", DepthMFP: 3.5}}, 662, MethodLastMaterial)
	require.NoError(t, err)
	assert.Equal(t, direct, multi)
}

func TestMultilayerLastMaterialUsesTotalDepth(t *testing.T) {
	s := newTestService(t)
	multi, err := s.Multilayer([]Layer{
		{Material: "iron", DepthMFP: 2},
		{Material: "lead", DepthMFP: 3},
	}, 1000, MethodLastMaterial)
	require.NoError(t, err)
	direct, err := s.GP(1000, 5, "lead")
	require.NoError(t, err)
	assert.Equal(t, direct, multi)
}

func TestMultilayerKalosIsProduct(t *testing.T) {
	s := newTestService(t)
	layers := []Layer{
		{Material: "iron", DepthMFP: 2},
		{Material: "lead", DepthMFP: 3},
	}
	kalos, err := s.Multilayer(layers, 1000, MethodKalos)
	require.NoError(t, err)
	bIron, err := s.GP(1000, 2, "iron")
	require.NoError(t, err)
	bLead, err := s.GP(1000, 3, "lead")
	require.NoError(t, err)
	assert.InDelta(t, bIron*bLead, kalos, 1e-12)
}

func TestMultilayerUnknownMethod(t *testing.T) {
	s := newTestService(t)
	_, err := s.Multilayer([]Layer{{Material: "lead", DepthMFP: 1}}, 1000, "harima")
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestMultilayerEmptyStackIsNeutral(t *testing.T) {
	s := newTestService(t)
	factor, err := s.Multilayer(nil, 1000, MethodLastMaterial)
	require.NoError(t, err)
	assert.Equal(t, 1., factor)
}

func TestAlloyFallback(t *testing.T) {
	s := newTestService(t)
	assert.True(t, s.HasGPData("steel"))
	fromSteel, err := s.GP(500, 4, "steel")
	require.NoError(t, err)
	fromIron, err := s.GP(500, 4, "iron")
	require.NoError(t, err)
	assert.Equal(t, fromIron, fromSteel)

	_, err = s.GP(500, 4, "wood")
	assert.ErrorIs(t, err, ErrNoData)
	assert.False(t, s.HasGPData("wood"))
}
