package cache_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	cache "github.com/okian/squigscan/internal/adapters/cache"
	"github.com/okian/squigscan/internal/domain/model"
	"github.com/okian/squigscan/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func TestBlobs(t *testing.T) {
	Convey("Given a blob store", t, func() {
		dir := t.TempDir()
		blobs, err := cache.NewBlobs(dir)
		So(err, ShouldBeNil)

		Convey("When saving and loading arbitrary text", func() {
			text := "* header\n20\t-5.25\n1000\t0\n20000\t2\n"
			hash, err := blobs.Save(text)
			So(err, ShouldBeNil)

			Convey("Then the round trip is exact", func() {
				got, err := blobs.Load(hash)
				So(err, ShouldBeNil)
				So(got, ShouldEqual, text)
			})

			Convey("And the hash is the content address", func() {
				So(hash, ShouldEqual, cache.HashText(text))
				So(blobs.Has(hash), ShouldBeTrue)
			})

			Convey("And saving identical content stores exactly once", func() {
				again, err := blobs.Save(text)
				So(err, ShouldBeNil)
				So(again, ShouldEqual, hash)

				entries, err := os.ReadDir(filepath.Join(dir, "blobs"))
				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, 1)
			})
		})

		Convey("When loading a hash with no blob", func() {
			_, err := blobs.Load("deadbeef")

			Convey("Then ErrBlobNotFound surfaces", func() {
				So(err, ShouldWrap, cache.ErrBlobNotFound)
			})
		})
	})
}

func TestIndex(t *testing.T) {
	ctx := context.Background()

	Convey("Given a fresh cache directory", t, func() {
		dir := t.TempDir()

		Convey("When entries are written and the index reloaded", func() {
			idx := cache.LoadIndex(ctx, dir)
			price := 199.0
			idx.Put("a.squig.link::Device X", cache.Entry{
				Hash:    "h1",
				Name:    "Device X",
				Price:   &price,
				Quality: model.QualityLow,
				Type:    model.TypeIEM,
				Rig:     model.Rig711,
			})
			So(idx.Save(), ShouldBeNil)

			reloaded := cache.LoadIndex(ctx, dir)

			Convey("Then the entry survives with its dates stamped", func() {
				e, ok := reloaded.Get("a.squig.link::Device X")
				So(ok, ShouldBeTrue)
				So(e.Hash, ShouldEqual, "h1")
				So(*e.Price, ShouldEqual, 199.0)
				So(e.FirstSeen, ShouldNotBeEmpty)
				So(e.LastSeen, ShouldNotBeEmpty)
			})
		})

		Convey("When an entry is re-put later", func() {
			idx := cache.LoadIndex(ctx, dir)
			idx.Put("k", cache.Entry{Hash: "h1", FirstSeen: "2020-01-01"})
			idx.Put("k", cache.Entry{Hash: "h2"})

			Convey("Then FirstSeen is preserved and the hash updates", func() {
				e, _ := idx.Get("k")
				So(e.Hash, ShouldEqual, "h2")
				So(e.FirstSeen, ShouldEqual, "2020-01-01")
			})
		})

		Convey("When only metadata is refreshed", func() {
			idx := cache.LoadIndex(ctx, dir)
			idx.Put("k", cache.Entry{Hash: "h1", Name: "Old", Type: model.TypeIEM})
			price := 42.0
			ok := idx.RefreshMetadata("k", "New", &price, model.QualityHigh, model.TypeIEM, model.Rig711, model.PinnaNone)

			Convey("Then the hash is untouched", func() {
				So(ok, ShouldBeTrue)
				e, _ := idx.Get("k")
				So(e.Hash, ShouldEqual, "h1")
				So(e.Name, ShouldEqual, "New")
				So(e.Quality, ShouldEqual, model.QualityHigh)
			})
		})
	})

	Convey("Given a corrupt index file", t, func() {
		dir := t.TempDir()
		So(os.WriteFile(filepath.Join(dir, "index.json"), []byte("{torn"), 0o644), ShouldBeNil)

		Convey("When loading", func() {
			idx := cache.LoadIndex(ctx, dir)

			Convey("Then an empty but valid index is substituted", func() {
				So(idx.Len(), ShouldEqual, 0)
				So(idx.Save(), ShouldBeNil)
			})
		})
	})

	Convey("Given a version-1 index document", t, func() {
		dir := t.TempDir()
		v1 := map[string]any{
			"version": 1,
			"entries": map[string]any{
				"k": map[string]any{"hash": "h1", "name": "Old", "type": "iem"},
			},
		}
		data, err := json.Marshal(v1)
		So(err, ShouldBeNil)
		So(os.WriteFile(filepath.Join(dir, "index.json"), data, 0o644), ShouldBeNil)

		Convey("When loading", func() {
			idx := cache.LoadIndex(ctx, dir)

			Convey("Then it migrates without a rescan, defaulting quality", func() {
				e, ok := idx.Get("k")
				So(ok, ShouldBeTrue)
				So(e.Hash, ShouldEqual, "h1")
				So(e.Quality, ShouldEqual, model.QualityLow)
			})
		})
	})

	Convey("Given an index from the future", t, func() {
		dir := t.TempDir()
		So(os.WriteFile(filepath.Join(dir, "index.json"),
			[]byte(`{"version": 99, "entries": {"k": {"hash": "h"}}}`), 0o644), ShouldBeNil)

		Convey("Then it is treated as unreadable and recovered empty", func() {
			idx := cache.LoadIndex(ctx, dir)
			So(idx.Len(), ShouldEqual, 0)
		})
	})
}

func TestDomainHashes(t *testing.T) {
	ctx := context.Background()

	Convey("Given a domain hash table", t, func() {
		dir := t.TempDir()
		dh := cache.LoadDomainHashes(ctx, dir)

		Convey("When a domain is stamped and the table reloaded", func() {
			dh.Update("a.squig.link", "abc123", 42)
			So(dh.Save(), ShouldBeNil)

			reloaded := cache.LoadDomainHashes(ctx, dir)

			Convey("Then change detection sees the stored hash", func() {
				So(reloaded.Unchanged("a.squig.link", "abc123"), ShouldBeTrue)
				So(reloaded.Unchanged("a.squig.link", "other"), ShouldBeFalse)
				So(reloaded.Unchanged("unseen.squig.link", "abc123"), ShouldBeFalse)

				rec, ok := reloaded.Get("a.squig.link")
				So(ok, ShouldBeTrue)
				So(rec.EntryCount, ShouldEqual, 42)
			})
		})
	})
}

func TestCheckpoint(t *testing.T) {
	ctx := context.Background()

	Convey("Given a checkpoint", t, func() {
		dir := t.TempDir()
		cp := cache.LoadCheckpoint(ctx, dir)

		Convey("When domains are marked done and the marker reloaded", func() {
			cp.MarkDone("a.squig.link")
			cp.MarkDone("b.squig.link")
			cp.MarkDone("a.squig.link") // idempotent
			So(cp.Save(), ShouldBeNil)

			reloaded := cache.LoadCheckpoint(ctx, dir)

			Convey("Then completed domains are remembered once each", func() {
				So(len(reloaded.Completed), ShouldEqual, 2)
				So(reloaded.Done("a.squig.link"), ShouldBeTrue)
				So(reloaded.Done("c.squig.link"), ShouldBeFalse)
			})
		})

		Convey("When the run completes and the marker is cleared", func() {
			cp.MarkDone("a.squig.link")
			So(cp.Save(), ShouldBeNil)
			So(cp.Clear(), ShouldBeNil)

			Convey("Then a reload starts from scratch", func() {
				So(len(cache.LoadCheckpoint(ctx, dir).Completed), ShouldEqual, 0)
			})

			Convey("And clearing twice is harmless", func() {
				So(cp.Clear(), ShouldBeNil)
			})
		})
	})
}
