package normalize

import "math"

// RollingWindow is a fixed-capacity ring buffer with running mean and
// variance, tracking roughly the last five seconds of one band. It is
// mutated continuously during playback and cleared on track change.
type RollingWindow struct {
	buf    []float64
	head   int
	length int

	sum   float64
	sumSq float64
}

// NewRollingWindow returns a window holding up to capacity samples.
func NewRollingWindow(capacity int) *RollingWindow {
	if capacity < 1 {
		capacity = 1
	}
	return &RollingWindow{buf: make([]float64, capacity)}
}

// Push adds a sample, evicting the oldest once the window is full.
func (w *RollingWindow) Push(v float64) {
	if w.length == len(w.buf) {
		evicted := w.buf[w.head]
		w.sum -= evicted
		w.sumSq -= evicted * evicted
	} else {
		w.length++
	}
	w.buf[w.head] = v
	w.sum += v
	w.sumSq += v * v
	w.head = (w.head + 1) % len(w.buf)
}

// Len returns how many samples the window currently holds.
func (w *RollingWindow) Len() int {
	return w.length
}

// Mean returns the running average, 0 when empty.
func (w *RollingWindow) Mean() float64 {
	if w.length == 0 {
		return 0
	}
	return w.sum / float64(w.length)
}

// StdDev returns the running population standard deviation, 0 when the
// window holds fewer than two samples.
func (w *RollingWindow) StdDev() float64 {
	if w.length < 2 {
		return 0
	}
	mean := w.Mean()
	variance := w.sumSq/float64(w.length) - mean*mean
	// Running sums can dip slightly negative from rounding.
	return math.Sqrt(math.Abs(variance))
}

// Reset discards every sample.
func (w *RollingWindow) Reset() {
	w.head = 0
	w.length = 0
	w.sum = 0
	w.sumSq = 0
}
