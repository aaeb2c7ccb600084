// Package curve implements frequency-response curve math: parsing,
// log-frequency interpolation, resampling onto the shared R40 grid,
// normalization, and channel/sample averaging.
package curve

import (
	"math"
	"strconv"
	"strings"
)

// Audible band limits; rows outside this range are discarded on parse.
const (
	MinFrequency = 20.0
	MaxFrequency = 20000.0
)

// Curve holds a measured frequency response as parallel arrays.
// Invariant: len(Frequencies) == len(DB), frequencies strictly increasing,
// every frequency within [MinFrequency, MaxFrequency].
type Curve struct {
	Frequencies []float64
	DB          []float64
}

// Len returns the number of sample points.
func (c *Curve) Len() int { return len(c.Frequencies) }

// Clone returns a deep copy.
func (c *Curve) Clone() *Curve {
	out := &Curve{
		Frequencies: make([]float64, len(c.Frequencies)),
		DB:          make([]float64, len(c.DB)),
	}
	copy(out.Frequencies, c.Frequencies)
	copy(out.DB, c.DB)
	return out
}

// Parse reads measurement text into a Curve. Blank lines and lines starting
// with '*' are ignored; remaining lines must carry a frequency and a dB value
// separated by whitespace, tabs, commas, or semicolons. Rows where either
// field is not a finite number, or the frequency falls outside the audible
// band, are skipped. Row order is preserved.
func Parse(text string) (*Curve, error) {
	c := &Curve{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "*") {
			continue
		}
		fields := splitRow(line)
		if len(fields) < 2 {
			continue
		}
		freq, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			continue
		}
		db, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			continue
		}
		if math.IsNaN(freq) || math.IsInf(freq, 0) || math.IsNaN(db) || math.IsInf(db, 0) {
			continue
		}
		if freq < MinFrequency || freq > MaxFrequency {
			continue
		}
		c.Frequencies = append(c.Frequencies, freq)
		c.DB = append(c.DB, db)
	}
	if c.Len() < minValidPoints {
		return nil, ErrTooFewPoints
	}
	return c, nil
}

// minValidPoints is the floor below which a parsed measurement is rejected.
const minValidPoints = 10

// splitRow splits a measurement row on any run of separator characters.
func splitRow(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		switch r {
		case ' ', '\t', ',', ';', '\r':
			return true
		}
		return false
	})
}

// Interpolate returns the dB value at frequency f, interpolating linearly in
// log10-frequency space between the bracketing sample points. Frequencies
// outside the curve's range clamp to the nearest boundary value; the curve is
// never extrapolated.
func (c *Curve) Interpolate(f float64) float64 {
	n := c.Len()
	if n == 0 {
		return 0
	}
	if f <= c.Frequencies[0] {
		return c.DB[0]
	}
	if f >= c.Frequencies[n-1] {
		return c.DB[n-1]
	}
	// Binary search for the first index with frequency >= f.
	lo, hi := 0, n-1
	for lo < hi {
		mid := (lo + hi) / 2
		if c.Frequencies[mid] < f {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	i := lo
	f0, f1 := c.Frequencies[i-1], c.Frequencies[i]
	if f1 == f0 {
		return c.DB[i]
	}
	t := (math.Log10(f) - math.Log10(f0)) / (math.Log10(f1) - math.Log10(f0))
	return c.DB[i-1] + t*(c.DB[i]-c.DB[i-1])
}

// r40Grid is the shared 1/12-octave resampling grid: 20 Hz multiplied by
// 2^(1/12) per step, with an explicit terminal point at 20 kHz.
var r40Grid = buildR40Grid()

func buildR40Grid() []float64 {
	step := math.Pow(2, 1.0/12.0)
	var grid []float64
	for f := MinFrequency; f < MaxFrequency; f *= step {
		grid = append(grid, f)
	}
	return append(grid, MaxFrequency)
}

// R40Grid returns a copy of the shared resampling grid.
func R40Grid() []float64 {
	out := make([]float64, len(r40Grid))
	copy(out, r40Grid)
	return out
}

// AlignToR40 resamples the curve onto the shared grid. Every downstream
// comparison operates on this common grid.
func (c *Curve) AlignToR40() *Curve {
	out := &Curve{
		Frequencies: R40Grid(),
		DB:          make([]float64, len(r40Grid)),
	}
	for i, f := range out.Frequencies {
		out.DB[i] = c.Interpolate(f)
	}
	return out
}

// NormalizeFrequency is the reference point curves are levelled at.
const NormalizeFrequency = 1000.0

// Normalize subtracts the interpolated value at the reference frequency from
// every bin, in place, and returns the curve.
func (c *Curve) Normalize(ref float64) *Curve {
	offset := c.Interpolate(ref)
	for i := range c.DB {
		c.DB[i] -= offset
	}
	return c
}

// Subtract removes comp from the curve bin-wise, log-interpolating comp onto
// the curve's own grid. Used to undo rig colouration before scoring against
// a target measured on a different rig.
func (c *Curve) Subtract(comp *Curve) *Curve {
	out := c.Clone()
	for i, f := range out.Frequencies {
		out.DB[i] -= comp.Interpolate(f)
	}
	return out
}

// Average returns the per-bin mean of a and b on a's grid, log-interpolating
// b. Used for L/R channel averaging.
func Average(a, b *Curve) *Curve {
	out := a.Clone()
	for i, f := range out.Frequencies {
		out.DB[i] = (out.DB[i] + b.Interpolate(f)) / 2
	}
	return out
}

// Averager accumulates an arbitrary number of curves into their mean via an
// iterative weighted running mean: at step i the existing mean is weighted
// i/(i+1) and the new sample 1/(i+1), so samples contribute equally
// regardless of arrival order.
type Averager struct {
	mean  *Curve
	count int
}

// Add folds a sample into the running mean. The first sample fixes the grid.
func (a *Averager) Add(sample *Curve) {
	if a.mean == nil {
		a.mean = sample.Clone()
		a.count = 1
		return
	}
	i := float64(a.count)
	w := i / (i + 1)
	for j, f := range a.mean.Frequencies {
		a.mean.DB[j] = a.mean.DB[j]*w + sample.Interpolate(f)/(i+1)
	}
	a.count++
}

// Count returns the number of samples folded in so far.
func (a *Averager) Count() int { return a.count }

// Mean returns the accumulated mean, or nil when no samples were added.
func (a *Averager) Mean() *Curve {
	if a.mean == nil {
		return nil
	}
	return a.mean.Clone()
}
