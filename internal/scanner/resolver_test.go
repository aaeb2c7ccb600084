package scanner_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/okian/squigscan/internal/adapters/fetch"
	"github.com/okian/squigscan/internal/domain/curve"
	"github.com/okian/squigscan/internal/domain/model"
	"github.com/okian/squigscan/internal/scanner"
	. "github.com/smartystreets/goconvey/convey"
)

// stubSource serves canned measurement files and counts requests.
type stubSource struct {
	mu    sync.Mutex
	files map[string]string
	calls map[string]int
}

func newStubSource(files map[string]string) *stubSource {
	return &stubSource{files: files, calls: map[string]int{}}
}

func (s *stubSource) Measurement(_ context.Context, file string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[file]++
	text, ok := s.files[file]
	if !ok {
		return "", fetch.ErrUnavailable
	}
	return text, nil
}

func (s *stubSource) callCount(file string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[file]
}

// flatCurve renders measurement text holding db across the audible band.
func flatCurve(db float64) string {
	freqs := []float64{20, 40, 80, 160, 315, 630, 1000, 2000, 4000, 8000, 16000, 20000}
	var b strings.Builder
	for _, f := range freqs {
		fmt.Fprintf(&b, "%g %g\n", f, db)
	}
	return b.String()
}

func TestResolver(t *testing.T) {
	ctx := context.Background()
	dev := func(files ...string) *model.Device {
		return &model.Device{Domain: "d", FileName: files[0], Files: files}
	}

	Convey("Given both channel files", t, func() {
		src := newStubSource(map[string]string{
			"Aria L.txt": flatCurve(0),
			"Aria R.txt": flatCurve(2),
		})
		r := scanner.NewResolver(src)

		Convey("When resolving", func() {
			m, err := r.Fetch(ctx, dev("Aria"))

			Convey("Then the channels average", func() {
				So(err, ShouldBeNil)
				So(m.Curve.Interpolate(1000), ShouldAlmostEqual, 1.0)
			})

			Convey("Then the unsuffixed fallback is never tried", func() {
				So(src.callCount("Aria.txt"), ShouldEqual, 0)
			})

			Convey("Then the rendered text round-trips through Parse", func() {
				reparsed, err := curve.Parse(m.Text)
				So(err, ShouldBeNil)
				So(reparsed.Interpolate(630), ShouldAlmostEqual, m.Curve.Interpolate(630))
			})
		})
	})

	Convey("Given only the left channel", t, func() {
		src := newStubSource(map[string]string{
			"Aria L.txt": flatCurve(-3),
		})
		r := scanner.NewResolver(src)

		Convey("When resolving", func() {
			m, err := r.Fetch(ctx, dev("Aria"))

			Convey("Then the survivor is used verbatim", func() {
				So(err, ShouldBeNil)
				So(m.Text, ShouldEqual, flatCurve(-3))
				So(m.Curve.Interpolate(1000), ShouldAlmostEqual, -3)
			})
		})
	})

	Convey("Given only an unsuffixed file", t, func() {
		src := newStubSource(map[string]string{
			"Aria.txt": flatCurve(1),
		})
		r := scanner.NewResolver(src)

		Convey("When resolving", func() {
			m, err := r.Fetch(ctx, dev("Aria"))

			Convey("Then the chain falls through to it", func() {
				So(err, ShouldBeNil)
				So(m.Text, ShouldEqual, flatCurve(1))
				So(src.callCount("Aria L.txt"), ShouldEqual, 1)
				So(src.callCount("Aria R.txt"), ShouldEqual, 1)
				So(src.callCount("Aria.txt"), ShouldEqual, 1)
			})
		})
	})

	Convey("Given a channel file that exists but does not parse", t, func() {
		src := newStubSource(map[string]string{
			"Aria L.txt": "this is not a measurement",
			"Aria.txt":   flatCurve(0),
		})
		r := scanner.NewResolver(src)

		Convey("When resolving", func() {
			_, err := r.Fetch(ctx, dev("Aria"))

			Convey("Then the parse failure is terminal, not a fallthrough", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, fetch.ErrUnavailable), ShouldBeFalse)
				So(src.callCount("Aria.txt"), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a multi-sample device with two bases", t, func() {
		src := newStubSource(map[string]string{
			"Var S1 L.txt": flatCurve(0),
			"Var S2 L.txt": flatCurve(4),
		})
		r := scanner.NewResolver(src)

		Convey("When resolving", func() {
			m, err := r.Fetch(ctx, dev("Var S1", "Var S2"))

			Convey("Then the samples fold into one mean", func() {
				So(err, ShouldBeNil)
				So(m.Curve.Interpolate(1000), ShouldAlmostEqual, 2.0)
			})
		})
	})

	Convey("Given no file answers at all", t, func() {
		src := newStubSource(nil)
		r := scanner.NewResolver(src)

		Convey("When resolving", func() {
			_, err := r.Fetch(ctx, dev("Ghost"))

			Convey("Then the device is unmeasurable", func() {
				So(errors.Is(err, fetch.ErrUnavailable), ShouldBeTrue)
			})
		})
	})
}
