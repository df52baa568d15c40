package stats

// RollingWindow picks the smoothing window for n samples:
// min(10, max(3, n/5)).
func RollingWindow(n int) int {
	return min(10, max(3, n/5))
}

// RollingAverage returns the trailing mean of values over RollingWindow
// samples. Early points average over the samples available so far.
func RollingAverage(values []float64) ([]float64, int) {
	window := RollingWindow(len(values))
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		out[i] = sum / float64(min(i+1, window))
	}
	return out, window
}
