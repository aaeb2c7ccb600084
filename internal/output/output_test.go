package output_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/squigscan/internal/adapters/cache"
	"github.com/okian/squigscan/internal/domain/curve"
	"github.com/okian/squigscan/internal/domain/model"
	"github.com/okian/squigscan/internal/output"
	"github.com/okian/squigscan/internal/targets"
	"github.com/okian/squigscan/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

var gridFreqs = []float64{20, 40, 80, 160, 315, 630, 1000, 2000, 4000, 8000, 16000, 20000}

// curveText renders measurement rows with db given per frequency.
func curveText(db func(f float64) float64) string {
	var b strings.Builder
	for _, f := range gridFreqs {
		fmt.Fprintf(&b, "%g %g\n", f, db(f))
	}
	return b.String()
}

func flat(v float64) string {
	return curveText(func(float64) float64 { return v })
}

func mustParse(t *testing.T, text string) *curve.Curve {
	t.Helper()
	c, err := curve.Parse(text)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

// seedDevice stores a measurement blob and indexes it.
func seedDevice(idx *cache.Index, blobs *cache.Blobs, key, name string, price *float64, typ model.DeviceType, rig model.Rig, text string) error {
	hash, err := blobs.Save(text)
	if err != nil {
		return err
	}
	idx.Put(key, cache.Entry{
		Hash:    hash,
		Name:    name,
		Price:   price,
		Quality: model.QualityHigh,
		Type:    typ,
		Rig:     rig,
	})
	return nil
}

func price(v float64) *float64 { return &v }

// exportedDoc mirrors the consumer's view of the curve export.
type exportedDoc struct {
	Version      int                      `json:"version"`
	Frequencies  []float64                `json:"frequencies"`
	Devices      map[string]exportedEntry `json:"devices"`
	Compensation map[string][]float64     `json:"compensation"`
}

type exportedEntry struct {
	Name string    `json:"name"`
	DB   []float64 `json:"db"`
}

func TestScoreAll(t *testing.T) {
	ctx := context.Background()

	Convey("Given a cache with in-ear and over-ear devices", t, func() {
		dir := t.TempDir()
		idx := cache.LoadIndex(ctx, dir)
		blobs, err := cache.NewBlobs(dir)
		So(err, ShouldBeNil)

		shelved := curveText(func(f float64) float64 {
			if f < 500 {
				return 5
			}
			return 0
		})
		So(seedDevice(idx, blobs, "a::Perfect", "Perfect IEM", price(100), model.TypeIEM, model.Rig711, flat(0)), ShouldBeNil)
		So(seedDevice(idx, blobs, "a::Shelved", "Shelved IEM", price(50), model.TypeIEM, model.Rig711, shelved), ShouldBeNil)
		So(seedDevice(idx, blobs, "a::Cans", "Some Cans", nil, model.TypeHeadphone, model.Rig711, flat(0)), ShouldBeNil)

		iemTarget := &targets.Group{
			Name: "Flat IE",
			Type: model.TypeIEM,
			Variants: map[string]*curve.Curve{
				targets.Variant711: mustParse(t, flat(0)),
			},
		}

		Convey("When scoring against an in-ear target", func() {
			lists := output.ScoreAll(ctx, idx, blobs, []*targets.Group{iemTarget}, nil)

			Convey("Then only in-ear devices are ranked, best first", func() {
				So(len(lists), ShouldEqual, 1)
				So(len(lists[0].Results), ShouldEqual, 2)
				So(lists[0].Results[0].Name, ShouldEqual, "Perfect IEM")
				So(lists[0].Results[0].Similarity, ShouldEqual, 100.0)
				So(lists[0].Results[0].AvgError, ShouldEqual, 0.0)
				So(lists[0].Results[1].Similarity, ShouldBeLessThan, 100.0)
				So(lists[0].Results[0].Variant, ShouldEqual, targets.Variant711)
			})
		})

		Convey("When two devices score identically", func() {
			So(seedDevice(idx, blobs, "b::Twin", "Twin IEM", price(40), model.TypeIEM, model.Rig711, flat(3)), ShouldBeNil)
			So(seedDevice(idx, blobs, "c::Unpriced", "Unpriced IEM", nil, model.TypeIEM, model.Rig711, flat(0)), ShouldBeNil)
			lists := output.ScoreAll(ctx, idx, blobs, []*targets.Group{iemTarget}, nil)

			Convey("Then ties break on ascending price, unpriced last", func() {
				results := lists[0].Results
				So(results[0].Similarity, ShouldEqual, 100.0)
				So(results[0].Name, ShouldEqual, "Twin IEM")
				So(results[1].Name, ShouldEqual, "Perfect IEM")
				So(results[2].Name, ShouldEqual, "Unpriced IEM")
			})
		})
	})

	Convey("Given a 5128-rig device and a 711-only target", t, func() {
		dir := t.TempDir()
		idx := cache.LoadIndex(ctx, dir)
		blobs, err := cache.NewBlobs(dir)
		So(err, ShouldBeNil)
		So(seedDevice(idx, blobs, "d::Shifted", "Shifted IEM", nil, model.TypeIEM, model.Rig5128, flat(3)), ShouldBeNil)

		group := &targets.Group{
			Name: "Flat IE",
			Type: model.TypeIEM,
			Variants: map[string]*curve.Curve{
				targets.Variant711: mustParse(t, flat(0)),
			},
		}
		comp := map[string]*curve.Curve{
			"5128 to 711": mustParse(t, flat(3)),
		}

		Convey("When the rig-compensation curve exists", func() {
			lists := output.ScoreAll(ctx, idx, blobs, []*targets.Group{group}, comp)

			Convey("Then the candidate scores in the target's rig frame", func() {
				So(lists[0].Results[0].Similarity, ShouldEqual, 100.0)
				So(lists[0].Results[0].Variant, ShouldEqual, targets.Variant711)
			})
		})
	})
}

func TestWriter(t *testing.T) {
	ctx := context.Background()

	Convey("Given scored results and a cache", t, func() {
		dir := t.TempDir()
		idx := cache.LoadIndex(ctx, dir)
		blobs, err := cache.NewBlobs(dir)
		So(err, ShouldBeNil)
		So(seedDevice(idx, blobs, "a::Perfect", "Perfect IEM", price(100), model.TypeIEM, model.Rig711, flat(0)), ShouldBeNil)

		group := &targets.Group{
			Name: "Harman IE 2019",
			Type: model.TypeIEM,
			Variants: map[string]*curve.Curve{
				targets.Variant711: mustParse(t, flat(0)),
			},
		}
		lists := output.ScoreAll(ctx, idx, blobs, []*targets.Group{group}, nil)

		outDir := filepath.Join(dir, "out")
		w := output.NewWriter(outDir)

		Convey("When writing rankings", func() {
			So(w.WriteRankings(ctx, lists), ShouldBeNil)

			Convey("Then the document round-trips with order intact", func() {
				data, err := os.ReadFile(filepath.Join(outDir, "rankings", "harman-ie-2019_iem.json"))
				So(err, ShouldBeNil)

				var got output.RankedList
				So(json.Unmarshal(data, &got), ShouldBeNil)
				So(got.Target, ShouldEqual, "Harman IE 2019")
				So(got.Type, ShouldEqual, model.TypeIEM)
				So(len(got.Results), ShouldEqual, 1)
				So(got.Results[0].Similarity, ShouldEqual, 100.0)
			})
		})

		Convey("When writing the curve export", func() {
			comp := map[string]*curve.Curve{
				"711 to 5128": mustParse(t, flat(-2)),
			}
			So(w.WriteExport(ctx, idx, blobs, comp), ShouldBeNil)

			Convey("Then every device rides the shared grid", func() {
				data, err := os.ReadFile(filepath.Join(outDir, "curves.json"))
				So(err, ShouldBeNil)

				var doc exportedDoc
				So(json.Unmarshal(data, &doc), ShouldBeNil)
				So(doc.Version, ShouldEqual, output.ExportVersion)
				So(len(doc.Frequencies), ShouldEqual, len(curve.R40Grid()))
				So(doc.Frequencies[0], ShouldAlmostEqual, 20.0, 0.01)
				So(doc.Frequencies[len(doc.Frequencies)-1], ShouldAlmostEqual, 20000.0, 0.01)

				dev, ok := doc.Devices["a::Perfect"]
				So(ok, ShouldBeTrue)
				So(dev.Name, ShouldEqual, "Perfect IEM")
				So(len(dev.DB), ShouldEqual, len(doc.Frequencies))

				So(doc.Compensation, ShouldContainKey, "711 to 5128")
				So(len(doc.Compensation["711 to 5128"]), ShouldEqual, len(doc.Frequencies))
			})
		})
	})
}
