package utils

import "math"

// RadToDeg converts radians to degrees.
func RadToDeg(radians float64) float64 {
	return radians * 180 / math.Pi
}

// MaxInt returns the larger of a and b.
func MaxInt(a, b int) int {
	if a < b {
		return b
	}
	return a
}

// MinInt returns the smaller of a and b.
func MinInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// ClampInt limits n to [lo, hi].
func ClampInt(n, lo, hi int) int {
	return MinInt(MaxInt(n, lo), hi)
}

// ClampF64 limits f to [lo, hi].
func ClampF64(f, lo, hi float64) float64 {
	return math.Min(math.Max(f, lo), hi)
}

// IsFinite is true when f is neither NaN nor infinite.
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// AllFinite is true when every value is finite.
func AllFinite(values ...float64) bool {
	for _, v := range values {
		if !IsFinite(v) {
			return false
		}
	}
	return true
}
