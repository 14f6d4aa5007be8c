package render

import "math"

const (
	defaultMinPower = -80.0 // dB
	defaultMaxPower = 0.0   // dB

	// For 20 cells:
	// - 5% percentile  = 1 cell
	// - 95% percentile = 19th cell
	minimumSampleCount = 20

	minimumSpan = 30 // dB
)

// PowerBounds represents the calculated power boundaries of a heatmap.
type PowerBounds struct {
	Min       float64 // 5th percentile power level in dB
	Max       float64 // 95th percentile power level in dB
	Mean      float64 // Mean power level in dB
	Reference float64 // Reference level for visualization in dB
}

func defaultPowerBounds() PowerBounds {
	return PowerBounds{
		Min:       defaultMinPower,
		Max:       defaultMaxPower,
		Mean:      (defaultMinPower + defaultMaxPower) / 2,
		Reference: (defaultMinPower + defaultMaxPower) / 2,
	}
}

// PowerHistogram maintains a histogram of power values with 1 dB bins.
type PowerHistogram struct {
	bins       map[int]uint32 // Map of bin index to count
	totalCount uint64
	minBin     int
	maxBin     int
}

// NewPowerHistogram creates an empty histogram.
func NewPowerHistogram() *PowerHistogram {
	return &PowerHistogram{
		bins:   make(map[int]uint32),
		minBin: math.MaxInt32,
		maxBin: math.MinInt32,
	}
}

func binIndex(power float64) int {
	return int(math.Floor(power))
}

// scaleDown halves every bin count.
func (h *PowerHistogram) scaleDown() {
	h.minBin = math.MaxInt32
	h.maxBin = math.MinInt32

	for bin := range h.bins {
		h.bins[bin] /= 2
		if h.bins[bin] == 0 {
			delete(h.bins, bin)
			continue
		}
		h.minBin = min(h.minBin, bin)
		h.maxBin = max(h.maxBin, bin)
	}
	h.totalCount /= 2
}

// Update adds a power reading to the histogram. Nil and non-finite readings
// are ignored.
func (h *PowerHistogram) Update(power *float64) {
	if power == nil || math.IsNaN(*power) || math.IsInf(*power, 0) {
		return
	}

	bin := binIndex(*power)
	if h.bins[bin] == math.MaxUint32 || h.totalCount == math.MaxUint64 {
		h.scaleDown()
	}

	h.bins[bin]++
	h.totalCount++
	h.minBin = min(h.minBin, bin)
	h.maxBin = max(h.maxBin, bin)
}

// Count returns the number of readings in the histogram.
func (h *PowerHistogram) Count() uint64 {
	return h.totalCount
}

// Clear resets the histogram.
func (h *PowerHistogram) Clear() {
	h.bins = make(map[int]uint32)
	h.totalCount = 0
	h.minBin = math.MaxInt32
	h.maxBin = math.MinInt32
}

// PercentileBounds returns the 5th to 95th percentile power range, widened to
// at least 30 dB and padded by a 10% margin. Fewer than 20 readings give the
// default bounds.
func (h *PowerHistogram) PercentileBounds() PowerBounds {
	if h.totalCount < minimumSampleCount {
		return defaultPowerBounds()
	}

	target := h.totalCount * 5 / 100

	var count uint64
	lower, upper := h.minBin, h.maxBin

	for bin := h.minBin; bin <= h.maxBin; bin++ {
		count += uint64(h.bins[bin])
		if count > target {
			lower = bin
			break
		}
	}

	count = 0
	for bin := h.maxBin; bin >= h.minBin; bin-- {
		count += uint64(h.bins[bin])
		if count > target {
			upper = bin
			break
		}
	}

	var sumProduct float64
	for bin, n := range h.bins {
		sumProduct += (float64(bin) + 0.5) * float64(n)
	}
	mean := sumProduct / float64(h.totalCount)

	if upper-lower < minimumSpan {
		center := (upper + lower) / 2
		lower = center - minimumSpan/2
		upper = center + minimumSpan/2
	}

	margin := (upper - lower) / 10
	return PowerBounds{
		Min:       float64(lower - margin),
		Max:       float64(upper + margin),
		Mean:      mean,
		Reference: mean,
	}
}

// SmoothBounds tracks exponentially smoothed histogram bounds.
type SmoothBounds struct {
	hist    *PowerHistogram
	alpha   float64 // Smoothing factor (0-1)
	current PowerBounds
}

// NewSmoothBounds creates a bounds tracker with the given smoothing factor.
func NewSmoothBounds(alpha float64) *SmoothBounds {
	return &SmoothBounds{
		hist:    NewPowerHistogram(),
		alpha:   math.Max(0, math.Min(1, alpha)),
		current: defaultPowerBounds(),
	}
}

// Update adds a power reading and returns the smoothed bounds.
func (s *SmoothBounds) Update(power *float64) PowerBounds {
	if power == nil || math.IsNaN(*power) || math.IsInf(*power, 0) {
		return s.current
	}

	s.hist.Update(power)
	if s.hist.Count() < minimumSampleCount {
		return s.current
	}

	next := s.hist.PercentileBounds()
	if s.hist.Count() == minimumSampleCount {
		// first real estimate replaces the defaults outright
		s.current = next
		return s.current
	}

	s.current.Min = s.current.Min*(1-s.alpha) + next.Min*s.alpha
	s.current.Max = s.current.Max*(1-s.alpha) + next.Max*s.alpha
	s.current.Mean = next.Mean
	s.current.Reference = next.Reference

	return s.current
}

// Current returns the current smoothed bounds.
func (s *SmoothBounds) Current() PowerBounds {
	return s.current
}

// Clear resets the histogram and bounds.
func (s *SmoothBounds) Clear() {
	s.hist.Clear()
	s.current = defaultPowerBounds()
}
