package main

import (
	"os"
	"strings"
	"testing"

	"github.com/okian/squigscan/internal/domain/model"
	"github.com/okian/squigscan/internal/output"
	"github.com/okian/squigscan/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func TestRootCommand(t *testing.T) {
	Convey("Given the root command", t, func() {
		root := newRootCommand()

		Convey("Then every subcommand is registered", func() {
			names := make(map[string]bool)
			for _, c := range root.Commands() {
				names[c.Name()] = true
			}
			for _, want := range []string{"scan", "score", "export", "top", "version"} {
				So(names[want], ShouldBeTrue)
			}
		})
	})
}

func TestRenderRanking(t *testing.T) {
	Convey("Given a ranked list", t, func() {
		price := 80.0
		list := &output.RankedList{
			Target: "Flat IE",
			Type:   model.TypeIEM,
			Results: []model.ScoredDevice{
				{Name: "Moondrop Aria", Price: &price, Similarity: 98.7, Rig: model.Rig711, Quality: model.QualityHigh},
				{Name: "Mystery IEM", Similarity: 91.2, Rig: model.Rig5128, Quality: model.QualityLow},
			},
		}

		Convey("When rendering", func() {
			var b strings.Builder
			renderRanking(&b, list)
			out := b.String()

			Convey("Then the table carries names, scores, and a dash for no price", func() {
				So(out, ShouldContainSubstring, "Target: Flat IE (iem)")
				So(out, ShouldContainSubstring, "Moondrop Aria")
				So(out, ShouldContainSubstring, "98.7")
				So(out, ShouldContainSubstring, "Mystery IEM")
				So(out, ShouldContainSubstring, "-")
			})
		})
	})
}
