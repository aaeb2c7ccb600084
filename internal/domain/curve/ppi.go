package curve

import "math"

// Regression constants for the preference score. These reproduce the
// published formula bit-for-bit; do not round or refactor them.
const (
	ppiIntercept      = 100.0795
	ppiStdevWeight    = 8.5
	ppiSlopeWeight    = 6.796
	ppiAvgErrorWeight = 3.475

	// Band cutoffs for the error statistics.
	stdevSlopeCutoff = 10000.0
	avgErrorLow      = 40.0
	avgErrorHigh     = 10000.0
)

// Score carries the PPI result for one device/target pairing.
type Score struct {
	Similarity float64 // 0-100, clamped
	Stdev      float64
	Slope      float64
	AvgError   float64
}

// PPI scores a candidate curve against a target. Both curves are aligned to
// the R40 grid and normalized at 1 kHz; the error is sampled at the grid's
// fixed log-spaced points. Stdev and slope use error points at or below
// 10 kHz (slope is the least-squares slope of error against ln frequency);
// the average error is the mean absolute error over [40 Hz, 10 kHz].
func PPI(candidate, target *Curve) Score {
	cand := candidate.AlignToR40().Normalize(NormalizeFrequency)
	targ := target.AlignToR40().Normalize(NormalizeFrequency)

	var (
		errs  []float64 // error points <= 10 kHz
		lnfs  []float64 // ln(frequency) for the same points
		absum float64   // |error| sum over [40 Hz, 10 kHz]
		abcnt int
	)
	for i, f := range cand.Frequencies {
		e := cand.DB[i] - targ.DB[i]
		if f <= stdevSlopeCutoff {
			errs = append(errs, e)
			lnfs = append(lnfs, math.Log(f))
		}
		if f >= avgErrorLow && f <= avgErrorHigh {
			absum += math.Abs(e)
			abcnt++
		}
	}

	s := Score{
		Stdev: stdev(errs),
		Slope: slope(lnfs, errs),
	}
	if abcnt > 0 {
		s.AvgError = absum / float64(abcnt)
	}

	raw := ppiIntercept -
		ppiStdevWeight*s.Stdev -
		ppiSlopeWeight*math.Abs(s.Slope) -
		ppiAvgErrorWeight*s.AvgError
	s.Similarity = math.Max(0, math.Min(100, raw))
	return s
}

// stdev computes the population standard deviation.
func stdev(xs []float64) float64 {
	n := float64(len(xs))
	if n == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / n
	var sq float64
	for _, x := range xs {
		d := x - mean
		sq += d * d
	}
	return math.Sqrt(sq / n)
}

// slope computes the least-squares slope of ys against xs.
func slope(xs, ys []float64) float64 {
	n := float64(len(xs))
	if n == 0 {
		return 0
	}
	var sx, sy float64
	for i := range xs {
		sx += xs[i]
		sy += ys[i]
	}
	mx, my := sx/n, sy/n
	var num, den float64
	for i := range xs {
		dx := xs[i] - mx
		num += dx * (ys[i] - my)
		den += dx * dx
	}
	if den == 0 {
		return 0
	}
	return num / den
}
