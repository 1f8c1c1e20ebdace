package audio

import "math"

// DbToAmp converts decibels to a linear amplitude factor: 10^(db/20).
func DbToAmp(db float64) float64 {
	return math.Pow(10, db/20)
}

// AmpToDb is the inverse of DbToAmp. Zero amplitude maps to -Inf.
func AmpToDb(amp float64) float64 {
	if amp <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(amp)
}
