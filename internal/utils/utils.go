package utils

import (
	"cmp"
	"math"

	"golang.org/x/exp/constraints"
)

func Argmax[T cmp.Ordered](arr []T) (argmax int) {
	for i := range arr {
		if cmp.Compare(arr[i], arr[argmax]) == 1 {
			argmax = i
		}
	}
	return
}

type Number interface {
	constraints.Float | constraints.Integer
}

func SumSlice[T Number](arr []T) (r T) {
	for i := range arr {
		r += arr[i]
	}
	return
}

func Average[T Number](s []T) (mean float64) {
	for i := range s {
		mean += float64(s[i])
	}
	mean /= float64(len(s))
	return
}

func MeanAndVariance[T Number](s []T, unbiased bool) (mean, variance float64) {
	mean = Average(s)
	for i := range s {
		variance += (float64(s[i]) - mean) * (float64(s[i]) - mean)
	}
	if unbiased {
		variance /= float64(len(s) - 1)
	} else {
		variance /= float64(len(s))
	}
	return
}

func Clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func Linspace(from, to float64, n int) []float64 {
	if n <= 1 {
		return []float64{from}
	}
	s := make([]float64, n)
	step := (to - from) / float64(n-1)
	for i := range s {
		s[i] = math.FMA(float64(i), step, from)
	}
	return s
}

// LogLogInterp interpolates y(x) linearly in log-log space over a strictly
// increasing grid xs, clamping at the grid edges. All values must be positive.
func LogLogInterp(xs, ys []float64, x float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	if x <= xs[0] {
		return ys[0]
	}
	if x >= xs[len(xs)-1] {
		return ys[len(ys)-1]
	}
	hi := 1
	for xs[hi] < x {
		hi++
	}
	lo := hi - 1
	t := (math.Log(x) - math.Log(xs[lo])) / (math.Log(xs[hi]) - math.Log(xs[lo]))
	return math.Exp(math.FMA(t, math.Log(ys[hi])-math.Log(ys[lo]), math.Log(ys[lo])))
}

// LinInterp is plain linear interpolation over a strictly increasing grid,
// clamped at the edges. Used where values may legitimately be zero or negative.
func LinInterp(xs, ys []float64, x float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	if x <= xs[0] {
		return ys[0]
	}
	if x >= xs[len(xs)-1] {
		return ys[len(ys)-1]
	}
	hi := 1
	for xs[hi] < x {
		hi++
	}
	lo := hi - 1
	t := (x - xs[lo]) / (xs[hi] - xs[lo])
	return math.FMA(t, ys[hi]-ys[lo], ys[lo])
}

func TableIntegrate(s []float64, multiply func(float64) float64, step float64) (sum float64) {
	for i := range s {
		if multiply == nil {
			sum += s[i]
		} else {
			sum += s[i] * multiply(float64(i)*step)
		}
	}
	sum *= step
	return
}
