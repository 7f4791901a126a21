// Package stats wraps go-talib with the rolling statistics the strategies and spread analysis need.
package stats

import (
	"math"

	"github.com/markcheno/go-talib"
)

// ZScoreEpsilon keeps z-scores finite when a window is flat.
const ZScoreEpsilon = 1e-6

// Mean returns the arithmetic mean, 0 for an empty series.
func Mean(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	return last(talib.Sma(series, len(series)))
}

// StdDev returns the population standard deviation, 0 for fewer than two samples.
func StdDev(series []float64) float64 {
	if len(series) < 2 {
		return 0
	}
	return last(talib.StdDev(series, len(series), 1))
}

// RollingMean returns the moving average over period, keeping only fully populated windows.
func RollingMean(series []float64, period int) []float64 {
	if period <= 0 || len(series) < period {
		return nil
	}
	sma := talib.Sma(series, period)
	out := make([]float64, len(sma)-period+1)
	copy(out, sma[period-1:])
	return out
}

// Slope returns the least-squares gradient of series against 0..n-1.
func Slope(series []float64) float64 {
	if len(series) < 2 {
		return 0
	}
	return last(talib.LinearRegSlope(series, len(series)))
}

// Correlation returns the Pearson correlation of two equally sized series.
func Correlation(a, b []float64) float64 {
	if len(a) != len(b) || len(a) < 2 {
		return 0
	}
	return last(talib.Correl(a, b, len(a)))
}

// ZScore scores the latest value against the trailing window; 0 until the window is full.
func ZScore(series []float64, window int) float64 {
	if window < 2 || len(series) < window {
		return 0
	}
	tail := series[len(series)-window:]
	return (tail[len(tail)-1] - Mean(tail)) / (StdDev(tail) + ZScoreEpsilon)
}

// RollingZScores scores every point against its trailing window using the sample (n-1) deviation.
// Points before the window fills, and points whose window holds a NaN, are NaN.
func RollingZScores(series []float64, window int) []float64 {
	out := make([]float64, len(series))
	for i := range out {
		out[i] = math.NaN()
	}
	if window < 2 || len(series) < window {
		return out
	}
	// talib keeps running sums, so each NaN-free run is scored on its own
	for start := 0; start < len(series); {
		if math.IsNaN(series[start]) {
			start++
			continue
		}
		end := start
		for end < len(series) && !math.IsNaN(series[end]) {
			end++
		}
		if end-start >= window {
			scoreRun(series[start:end], out[start:end], window)
		}
		start = end
	}
	return out
}

func scoreRun(run, out []float64, window int) {
	means := talib.Sma(run, window)
	devs := talib.StdDev(run, window, 1)
	correction := math.Sqrt(float64(window) / float64(window-1))
	for i := window - 1; i < len(run); i++ {
		sd := devs[i] * correction
		if sd == 0 {
			continue
		}
		out[i] = (run[i] - means[i]) / sd
	}
}

// Normalize rescales series linearly so its minimum maps to lo and its maximum to hi.
func Normalize(series []float64, lo, hi float64) []float64 {
	out := make([]float64, len(series))
	if len(series) == 0 {
		return out
	}
	minV, maxV := math.Inf(1), math.Inf(-1)
	for _, v := range series {
		if math.IsNaN(v) {
			continue
		}
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
	}
	span := maxV - minV
	for i, v := range series {
		switch {
		case math.IsNaN(v):
			out[i] = math.NaN()
		case span == 0 || math.IsInf(span, 0):
			out[i] = lo
		default:
			out[i] = (v-minV)/span*(hi-lo) + lo
		}
	}
	return out
}

func last(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return values[len(values)-1]
}
