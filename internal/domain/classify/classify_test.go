package classify_test

import (
	"testing"

	"github.com/okian/squigscan/internal/config"
	classify "github.com/okian/squigscan/internal/domain/classify"
	"github.com/okian/squigscan/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClassify(t *testing.T) {
	Convey("Given the curated rule tables", t, func() {
		c := classify.Default()

		Convey("When classifying a registry over-ear model", func() {
			res := c.Classify("Sennheiser HD600", "harpo.squig.link")

			Convey("Then it is a headphone on the default rig", func() {
				So(res.Type, ShouldEqual, model.TypeHeadphone)
				So(res.Rig, ShouldEqual, model.Rig711)
				So(res.Pinna, ShouldEqual, model.PinnaKB5)
			})
		})

		Convey("When an explicit IEM keyword competes with a 5128 domain hint", func() {
			res := c.Classify("Moondrop Aria (IEM)", "something5128.squig.link")

			Convey("Then the keyword outweighs the domain bonus", func() {
				So(res.Type, ShouldEqual, model.TypeIEM)
			})

			Convey("And the 5128 marker still fixes the rig", func() {
				So(res.Rig, ShouldEqual, model.Rig5128)
			})
		})

		Convey("When a name with no hints comes from an in-ear-only domain", func() {
			res := c.Classify("S12", "iemworld.squig.link")

			Convey("Then the domain allowlist pushes it to iem", func() {
				So(res.Type, ShouldEqual, model.TypeIEM)
				So(res.Pinna, ShouldEqual, model.PinnaNone)
			})
		})

		Convey("When an over-ear registry hit meets an in-ear-only domain", func() {
			res := c.Classify("HD600", "iemworld.squig.link")

			Convey("Then the stronger in-ear domain weight wins", func() {
				So(res.Type, ShouldEqual, model.TypeIEM)
			})
		})

		Convey("When the name carries a pinna model number", func() {
			res := c.Classify("Focal Utopia KB5000", "harpo.squig.link")

			Convey("Then the keyword picks the pinna variant", func() {
				So(res.Type, ShouldEqual, model.TypeHeadphone)
				So(res.Pinna, ShouldEqual, model.PinnaKB5)
			})

			res = c.Classify("Focal Utopia KB0065", "harpo.squig.link")
			So(res.Pinna, ShouldEqual, model.PinnaKB0065)
		})

		Convey("When repeated keywords appear in one name", func() {
			res := c.Classify("Buds IEM earphone canal", "harpo.squig.link")

			Convey("Then the in-ear weight fires only once", func() {
				So(res.Type, ShouldEqual, model.TypeIEM)
			})
		})

		Convey("When checking true-wireless names", func() {
			So(c.IsTrueWireless("Galaxy Buds Pro"), ShouldBeTrue)
			So(c.IsTrueWireless("Sony WF-1000XM5 True Wireless"), ShouldBeTrue)
			So(c.IsTrueWireless("Sennheiser HD600"), ShouldBeFalse)
		})
	})

	Convey("Given a custom rule table", t, func() {
		c := classify.New(config.ClassifierRules{
			OverEarModels: []string{"bigcans"},
			InEarKeywords: []string{"tiny"},
			DomainHints:   []string{"headphone"},
		})

		Convey("Then only the injected rules participate", func() {
			So(c.Classify("BigCans Mk2", "x.example").Type, ShouldEqual, model.TypeHeadphone)
			So(c.Classify("tiny thing", "x.example").Type, ShouldEqual, model.TypeIEM)

			Convey("And with nothing else firing, a domain hint alone tips positive", func() {
				res := c.Classify("Mystery Device", "headphones.example")
				So(res.Type, ShouldEqual, model.TypeHeadphone)
			})
		})
	})
}
