// Package temporal reconstructs a node's feature history from the
// Registry's delta chain (component C8) and detects trends, periodicity,
// and anomalies in it (component C16) using basic statistical methods —
// no external ML dependency needed for data this small.
package temporal

import (
	"math"
	"time"
)

// Sample is one observed value of a feature dimension at a point in time.
type Sample struct {
	At    time.Time
	Value float32
}

// TrendDirection describes which way a detected trend moves.
type TrendDirection int

const (
	TrendStable TrendDirection = iota
	TrendIncreasing
	TrendDecreasing
)

func (d TrendDirection) String() string {
	switch d {
	case TrendIncreasing:
		return "increasing"
	case TrendDecreasing:
		return "decreasing"
	default:
		return "stable"
	}
}

// PatternKind distinguishes the detected pattern variants below.
type PatternKind int

const (
	PatternTrend PatternKind = iota
	PatternPeriodic
	PatternAnomaly
)

// Pattern is a single detected regularity (or irregularity) in a history.
type Pattern struct {
	Kind PatternKind

	// Trend fields.
	Direction  TrendDirection
	Slope      float32 // per-day rate of change
	Confidence float32 // R^2 for Trend, autocorrelation for Periodic

	// Periodic fields.
	PeriodSeconds int64
	Phase         float32 // 0.0-1.0 position in the current cycle

	// Anomaly fields.
	At             time.Time
	ExpectedValue  float32
	ActualValue    float32
	Sigma          float32
}

// trendConfidenceFloor is the minimum R² for DetectTrend to report a
// pattern at all; below this a trend read off noise isn't worth acting on.
const trendConfidenceFloor = 0.3

// periodicityConfidenceFloor is the minimum normalized autocorrelation for
// DetectPeriodicity to report a cycle.
const periodicityConfidenceFloor = 0.5

// anomalySigmaThreshold flags any sample more than this many standard
// deviations from the history's mean.
const anomalySigmaThreshold = 2.0

// flatSlope is the per-day rate below which a trend is called Stable
// rather than Increasing/Decreasing.
const flatSlope = 0.01

// DetectAll runs every detector over history and returns whatever
// patterns clear their respective confidence floors. history must be in
// chronological order.
func DetectAll(history []Sample) []Pattern {
	if len(history) < 3 {
		return nil
	}

	var patterns []Pattern
	if p, ok := DetectTrend(history); ok {
		patterns = append(patterns, p)
	}
	if len(history) >= 7 {
		if p, ok := DetectPeriodicity(history); ok {
			patterns = append(patterns, p)
		}
	}
	patterns = append(patterns, DetectAnomalies(history)...)
	return patterns
}

// DetectTrend fits a least-squares line to history (x in days since the
// first sample) and reports its direction and slope if the fit's R² clears
// trendConfidenceFloor.
func DetectTrend(history []Sample) (Pattern, bool) {
	if len(history) < 3 {
		return Pattern{}, false
	}

	n := float64(len(history))
	startSec := history[0].At.Unix()

	x := make([]float64, len(history))
	y := make([]float64, len(history))
	for i, s := range history {
		x[i] = float64(s.At.Unix()-startSec) / 86400.0
		y[i] = float64(s.Value)
	}

	var sumX, sumY, sumXY, sumX2 float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumX2 += x[i] * x[i]
	}

	denom := n*sumX2 - sumX*sumX
	if math.Abs(denom) < 1e-10 {
		return Pattern{}, false
	}

	slope := (n*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / n

	yMean := sumY / n
	var ssTot, ssRes float64
	for i := range x {
		ssTot += (y[i] - yMean) * (y[i] - yMean)
		predicted := slope*x[i] + intercept
		ssRes += (y[i] - predicted) * (y[i] - predicted)
	}

	var rSquared float64
	if ssTot > 0 {
		rSquared = 1 - ssRes/ssTot
	}
	if rSquared < trendConfidenceFloor {
		return Pattern{}, false
	}

	direction := TrendStable
	switch {
	case math.Abs(slope) < flatSlope:
		direction = TrendStable
	case slope > 0:
		direction = TrendIncreasing
	default:
		direction = TrendDecreasing
	}

	return Pattern{
		Kind:       PatternTrend,
		Direction:  direction,
		Slope:      float32(slope),
		Confidence: float32(rSquared),
	}, true
}

// DetectPeriodicity looks for a repeating cycle via autocorrelation across
// lags up to half the history's length, reporting the strongest lag that
// clears periodicityConfidenceFloor.
func DetectPeriodicity(history []Sample) (Pattern, bool) {
	if len(history) < 7 {
		return Pattern{}, false
	}

	n := len(history)
	values := make([]float32, n)
	var sum float32
	for i, s := range history {
		values[i] = s.Value
		sum += s.Value
	}
	mean := sum / float32(n)

	var variance float32
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float32(n)
	if variance < 1e-6 {
		return Pattern{}, false
	}

	maxLag := n / 2
	bestLag := 0
	var bestCorr float32

	for lag := 2; lag < maxLag; lag++ {
		var corr float32
		count := 0
		for i := 0; i < n-lag; i++ {
			corr += (values[i] - mean) * (values[i+lag] - mean)
			count++
		}
		if count > 0 {
			corr /= float32(count) * variance
		}
		if corr > bestCorr {
			bestCorr = corr
			bestLag = lag
		}
	}

	if bestCorr < periodicityConfidenceFloor || bestLag < 2 {
		return Pattern{}, false
	}

	startSec := history[0].At.Unix()
	endSec := history[n-1].At.Unix()
	totalSeconds := float64(endSec - startSec)
	periodSeconds := (totalSeconds / float64(n)) * float64(bestLag)
	if periodSeconds <= 0 {
		return Pattern{}, false
	}

	latestSec := history[n-1].At.Unix()
	phase := math.Mod(float64(latestSec), periodSeconds) / periodSeconds

	return Pattern{
		Kind:          PatternPeriodic,
		Confidence:    bestCorr,
		PeriodSeconds: int64(periodSeconds),
		Phase:         float32(phase),
	}, true
}

// DetectAnomalies flags every sample more than anomalySigmaThreshold
// standard deviations from history's mean.
func DetectAnomalies(history []Sample) []Pattern {
	if len(history) < 5 {
		return nil
	}

	n := len(history)
	var sum float32
	for _, s := range history {
		sum += s.Value
	}
	mean := sum / float32(n)

	var variance float32
	for _, s := range history {
		variance += (s.Value - mean) * (s.Value - mean)
	}
	variance /= float32(n)
	stdDev := float32(math.Sqrt(float64(variance)))
	if stdDev < 1e-6 {
		return nil
	}

	var anomalies []Pattern
	for _, s := range history {
		sigma := float32(math.Abs(float64(s.Value-mean))) / stdDev
		if sigma > anomalySigmaThreshold {
			anomalies = append(anomalies, Pattern{
				Kind:          PatternAnomaly,
				At:            s.At,
				ExpectedValue: mean,
				ActualValue:   s.Value,
				Sigma:         sigma,
			})
		}
	}
	return anomalies
}

// Predict extrapolates history daysAhead days into the future using the
// same least-squares fit as DetectTrend, regardless of whether that fit
// clears the trend confidence floor. It returns ok=false only when there
// isn't enough data to fit a line at all.
func Predict(history []Sample, daysAhead int) (float32, bool) {
	if len(history) < 3 {
		return 0, false
	}

	n := float64(len(history))
	startSec := history[0].At.Unix()

	x := make([]float64, len(history))
	y := make([]float64, len(history))
	for i, s := range history {
		x[i] = float64(s.At.Unix()-startSec) / 86400.0
		y[i] = float64(s.Value)
	}

	var sumX, sumY, sumXY, sumX2 float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumX2 += x[i] * x[i]
	}

	denom := n*sumX2 - sumX*sumX
	if math.Abs(denom) < 1e-10 {
		return float32(y[len(y)-1]), true
	}

	slope := (n*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / n

	lastX := x[len(x)-1]
	predictX := lastX + float64(daysAhead)

	return float32(slope*predictX + intercept), true
}
