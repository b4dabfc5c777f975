package services

import (
	"math"
)

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddev is the sample standard deviation (n-1 denominator).
func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

// onlineAvg folds one value into a running average.
func onlineAvg(oldAvg float64, oldCount int64, value float64) float64 {
	return (oldAvg*float64(oldCount) + value) / float64(oldCount+1)
}

// olsFit returns the least-squares slope and intercept of y against x.
func olsFit(xs, ys []float64) (slope, intercept float64, ok bool) {
	n := len(xs)
	if n < 2 || n != len(ys) {
		return 0, 0, false
	}
	mx := mean(xs)
	my := mean(ys)
	var sxx, sxy float64
	for i := range xs {
		dx := xs[i] - mx
		sxx += dx * dx
		sxy += dx * (ys[i] - my)
	}
	if sxx == 0 {
		return 0, 0, false
	}
	slope = sxy / sxx
	intercept = my - slope*mx
	return slope, intercept, true
}

// pearson returns the correlation coefficient of two equal-length series.
func pearson(xs, ys []float64) (float64, bool) {
	n := len(xs)
	if n < 2 || n != len(ys) {
		return 0, false
	}
	mx := mean(xs)
	my := mean(ys)
	var sxx, syy, sxy float64
	for i := range xs {
		dx := xs[i] - mx
		dy := ys[i] - my
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}
	if sxx == 0 || syy == 0 {
		return 0, false
	}
	return sxy / math.Sqrt(sxx*syy), true
}

// trackingSignal is cumulative signed bias over mean absolute deviation; a
// persistent directional error pushes it away from zero.
func trackingSignal(signedDiffs []float64) float64 {
	if len(signedDiffs) == 0 {
		return 0
	}
	var cumBias, absSum float64
	for _, d := range signedDiffs {
		cumBias += d
		absSum += math.Abs(d)
	}
	mad := absSum / float64(len(signedDiffs))
	if mad == 0 {
		return 0
	}
	return cumBias / mad
}
