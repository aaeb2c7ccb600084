package scanner

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/okian/squigscan/internal/adapters/fetch"
	"github.com/okian/squigscan/internal/domain/curve"
	"github.com/okian/squigscan/internal/domain/model"
	"github.com/okian/squigscan/pkg/metrics"
)

// Resolver runs the measurement fallback chain for one domain's source.
// Order, per file base: independent left/right channel files tried
// concurrently (averaged when both answer, the survivor otherwise), then a
// single unsuffixed file. The chain is exhausted before a device is
// declared unmeasurable. Multi-sample rigs list several file bases per
// device; their results fold into a running mean.
type Resolver struct {
	src fetch.Source
}

// NewResolver builds a Resolver over a measurement source.
func NewResolver(src fetch.Source) *Resolver {
	return &Resolver{src: src}
}

// Measurement is a resolved device measurement: the text to content-address
// and the parsed curve.
type Measurement struct {
	Text  string
	Curve *curve.Curve
}

// Fetch resolves a device's measurement, or fails with the last error once
// every fallback is exhausted.
func (r *Resolver) Fetch(ctx context.Context, dev *model.Device) (Measurement, error) {
	var acc curve.Averager
	var soleText string
	var lastErr error

	for _, base := range dev.Files {
		c, raw, err := r.fetchBase(ctx, base)
		if err != nil {
			lastErr = err
			continue
		}
		acc.Add(c)
		soleText = raw
	}

	if acc.Count() == 0 {
		if lastErr == nil {
			lastErr = fmt.Errorf("%w: no measurement files listed", fetch.ErrUnavailable)
		}
		return Measurement{}, lastErr
	}

	m := Measurement{Curve: acc.Mean()}
	if acc.Count() == 1 && soleText != "" {
		// Single capture: keep the exact fetched text so the content
		// hash is stable across runs.
		m.Text = soleText
	} else {
		m.Text = renderCurve(m.Curve)
	}
	return m, nil
}

// fetchBase runs the L/R/unsuffixed chain for one file base. A channel pair
// averaged from both files has no exact source text; raw comes back empty.
func (r *Resolver) fetchBase(ctx context.Context, base string) (*curve.Curve, string, error) {
	type channelResult struct {
		c    *curve.Curve
		text string
		err  error
	}

	fetchOne := func(file string) channelResult {
		text, err := r.src.Measurement(ctx, file)
		if err != nil {
			return channelResult{err: err}
		}
		c, err := curve.Parse(text)
		if err != nil {
			metrics.RecordParseFailure()
			return channelResult{err: err}
		}
		return channelResult{c: c, text: text}
	}

	var left, right channelResult
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		left = fetchOne(base + " L.txt")
	}()
	go func() {
		defer wg.Done()
		right = fetchOne(base + " R.txt")
	}()
	wg.Wait()

	switch {
	case left.err == nil && right.err == nil:
		return curve.Average(left.c, right.c), "", nil
	case left.err == nil:
		return left.c, left.text, nil
	case right.err == nil:
		return right.c, right.text, nil
	}

	// A parse failure means the file existed but was unusable; falling back
	// to the unsuffixed name would score a different capture than the
	// archive intends, so only fetch failures continue the chain.
	if !errors.Is(left.err, fetch.ErrUnavailable) {
		return nil, "", left.err
	}
	if !errors.Is(right.err, fetch.ErrUnavailable) {
		return nil, "", right.err
	}

	single := fetchOne(base + ".txt")
	if single.err != nil {
		return nil, "", single.err
	}
	return single.c, single.text, nil
}

// renderCurve serializes an averaged curve as measurement text that Parse
// round-trips exactly.
func renderCurve(c *curve.Curve) string {
	var b strings.Builder
	for i, f := range c.Frequencies {
		b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
		b.WriteByte(' ')
		b.WriteString(strconv.FormatFloat(c.DB[i], 'g', -1, 64))
		b.WriteByte('\n')
	}
	return b.String()
}
