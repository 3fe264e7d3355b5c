// internal/runutil/runutil.go
package runutil

import "math"

// DistanceKmToPixels converts a ground distance to whole pixels at the
// working scale, truncating the fractional remainder.
func DistanceKmToPixels(km, scaleM float64) int {
	if scaleM <= 0 {
		return 0
	}
	return int(km / (scaleM / 1000))
}

// ReduceFactor returns the integer block size aggregating inputScaleM pixels
// to workScaleM pixels, never below 1. A warning string is returned when the
// scales are not an integer multiple and the factor had to be rounded.
func ReduceFactor(inputScaleM, workScaleM float64) (int, []string) {
	if inputScaleM <= 0 || workScaleM <= inputScaleM {
		return 1, nil
	}
	ratio := workScaleM / inputScaleM
	f := int(math.Round(ratio))
	if f < 1 {
		f = 1
	}
	var warns []string
	if math.Abs(ratio-float64(f)) > 1e-9 {
		warns = append(warns, "warning: working scale is not an integer multiple of the input resolution; rounding the aggregation factor")
	}
	return f, warns
}

// ValidateTiling rejects tile heights too small to be worth the scheduling
// overhead and returns the effective value with any warnings.
func ValidateTiling(tileRows int) (int, []string) {
	if tileRows < 0 {
		return 0, []string{"warning: --tile-rows must be >= 0; disabling tiling"}
	}
	if tileRows > 0 && tileRows < 16 {
		return 16, []string{"warning: --tile-rows below 16 wastes workers; using 16"}
	}
	return tileRows, nil
}
