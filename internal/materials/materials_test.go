package materials

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeadReferencePoint(t *testing.T) {
	s, err := NewService()
	require.NoError(t, err)

	muRho, err := s.MassAttenuation("lead", 1000)
	require.NoError(t, err)
	assert.InDelta(t, 0.0708, muRho, 1e-6)

	mu, err := s.LinearAttenuation("lead", 1000)
	require.NoError(t, err)
	assert.InDelta(t, 0.0708*11.34, mu, 1e-4)
}

func TestUnknownMaterial(t *testing.T) {
	s, err := NewService()
	require.NoError(t, err)

	_, err = s.LinearAttenuation("unobtainium", 1000)
	assert.ErrorIs(t, err, ErrUnknownMaterial)
	_, err = s.ComptonLinearAttenuation("unobtainium", 1000)
	assert.ErrorIs(t, err, ErrUnknownMaterial)
	assert.False(t, s.Has("unobtainium"))
	assert.True(t, s.Has("lead"))
}

func TestComptonComponentBelowTotal(t *testing.T) {
	s, err := NewService()
	require.NoError(t, err)

	for _, name := range s.Names() {
		for _, energy := range []float64{200, 500, 1000, 2000} {
			mu, err := s.LinearAttenuation(name, energy)
			require.NoError(t, err)
			muC, err := s.ComptonLinearAttenuation(name, energy)
			require.NoError(t, err)
			assert.Greater(t, muC, 0.)
			assert.Less(t, muC, mu*1.05, "%s at %v keV", name, energy)
		}
	}
}

func TestInterpolationClampsAtGridEdges(t *testing.T) {
	s, err := NewService()
	require.NoError(t, err)

	low, err := s.MassAttenuation("iron", 1)
	require.NoError(t, err)
	atFirst, err := s.MassAttenuation("iron", 10)
	require.NoError(t, err)
	assert.Equal(t, atFirst, low)

	high, err := s.MassAttenuation("iron", 50000)
	require.NoError(t, err)
	atLast, err := s.MassAttenuation("iron", 6000)
	require.NoError(t, err)
	assert.Equal(t, atLast, high)
}

func TestDegenerateEnergy(t *testing.T) {
	s, err := NewService()
	require.NoError(t, err)

	mu, err := s.LinearAttenuation("lead", 0)
	require.NoError(t, err)
	assert.Equal(t, 0., mu)
	muC, err := s.ComptonLinearAttenuation("lead", -5)
	require.NoError(t, err)
	assert.Equal(t, 0., muC)
}
