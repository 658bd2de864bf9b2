package compton

import (
	"math"
	"math/rand"

	"github.com/wildstyl3r/collim/internal/utils"
)

// KahnSampler draws Compton scattering angles from the Klein-Nishina
// distribution by Kahn's rejection method. The random source is owned by the
// sampler instance: two samplers with independently seeded sources are fully
// independent and reproducible.
type KahnSampler struct {
	rng *rand.Rand
}

func NewKahnSampler(rng *rand.Rand) *KahnSampler {
	return &KahnSampler{rng: rng}
}

type AngleSample struct {
	Theta     float64 // polar scattering angle [rad], in [0, pi]
	Phi       float64 // azimuth [rad], uniform in [0, 2pi)
	Scattered float64 // photon energy after scattering [keV]
}

// Sample draws one (theta, phi, E') triple for incident energy e0.
func (s *KahnSampler) Sample(e0 float64) AngleSample {
	a := Alpha(e0)
	branchLow := (1. + 2.*a) / (9. + 2.*a)
	var xi, cosTheta float64
	for {
		r1, r2, r3 := s.rng.Float64(), s.rng.Float64(), s.rng.Float64()
		if r1 <= branchLow {
			xi = 1. + 2.*a*r2
			if r3 <= 4.*(1./xi-1./(xi*xi)) {
				cosTheta = 1. - (xi-1.)/a
				break
			}
		} else {
			xi = (1. + 2.*a) / (1. + 2.*a*r2)
			cosTheta = 1. - (xi-1.)/a
			if r3 <= 0.5*(cosTheta*cosTheta+1./xi) {
				break
			}
		}
	}
	// guard floating round-off before acos
	cosTheta = math.Max(-1., math.Min(1., cosTheta))
	return AngleSample{
		Theta:     math.Acos(cosTheta),
		Phi:       2. * math.Pi * s.rng.Float64(),
		Scattered: e0 / xi,
	}
}

func (s *KahnSampler) SampleBatch(e0 float64, n int) []AngleSample {
	samples := make([]AngleSample, n)
	for i := range samples {
		samples[i] = s.Sample(e0)
	}
	return samples
}

// MeanAngleAnalytic integrates theta weighted by the Klein-Nishina solid-angle
// density. Used for statistical self-validation of the sampler, not in the
// simulation path.
func MeanAngleAnalytic(e0 float64) float64 {
	const n = 4000
	step := math.Pi / n
	w := make([]float64, n)
	for i := range w {
		theta := float64(i) * step
		w[i] = KleinNishinaDifferential(e0, theta) * math.Sin(theta)
	}
	num := utils.TableIntegrate(w, func(theta float64) float64 { return theta }, step)
	den := utils.TableIntegrate(w, nil, step)
	return num / den
}
