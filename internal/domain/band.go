package domain

import "math"

// subScoreCount is the number of criterion sub-scores required before an
// overall band may be computed. Averaging fewer would silently inflate
// or deflate the result, so a partial set yields BandUnavailable.
const subScoreCount = 4

// OverallBand derives the overall band from the criterion sub-scores.
// It never trusts an overall figure stated by the model; the value is
// recomputed here from the sub-scores that were actually recovered.
//
// Bands that are unavailable or non-numeric are skipped. If fewer than
// four numeric sub-scores remain, the overall is unavailable. Otherwise
// the average is rounded with the IELTS band rule: a fractional part
// below .25 rounds down to the whole band, below .75 rounds to the half
// band, and .75 or above rounds up to the next whole band.
func OverallBand(subs []Band) Band {
	var (
		sum   float64
		count int
	)
	for _, b := range subs {
		v, ok := b.Float()
		if !ok {
			continue
		}
		sum += v
		count++
	}
	if count < subScoreCount {
		return BandUnavailable
	}
	return BandFromFloat(roundBand(sum / float64(count)))
}

// roundBand applies the band rounding rule to an averaged score.
func roundBand(avg float64) float64 {
	whole := math.Floor(avg)
	switch frac := avg - whole; {
	case frac < 0.25:
		return whole
	case frac < 0.75:
		return whole + 0.5
	default:
		return whole + 1.0
	}
}
