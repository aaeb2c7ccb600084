package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/squigscan/internal/config"
	"github.com/okian/squigscan/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoad(t *testing.T) {
	Convey("Given a clean environment", t, func() {
		os.Unsetenv("SQUIG_CONFIG")
		os.Unsetenv("SQUIG_CACHE_DIR")
		os.Unsetenv("SQUIG_DOMAIN_BATCH_SIZE")
		os.Unsetenv("SQUIG_FORCE_RESCAN")

		Convey("When loading with no file and no env", func() {
			cfg, err := config.Load(context.Background())

			Convey("Then defaults apply", func() {
				So(err, ShouldBeNil)
				So(cfg.CacheDir, ShouldEqual, "cache")
				So(cfg.DomainBatchSize, ShouldEqual, 5)
				So(cfg.MeasurementBatchSize, ShouldEqual, 8)
				So(cfg.CatalogTimeoutMS, ShouldBeGreaterThan, cfg.MeasurementTimeoutMS)
				So(cfg.ForceRescan, ShouldBeFalse)
			})
		})

		Convey("When a YAML file is provided", func() {
			dir := t.TempDir()
			path := filepath.Join(dir, "squig.yaml")
			yaml := "cache_dir: /var/lib/squig\ndomain_batch_size: 12\n"
			So(os.WriteFile(path, []byte(yaml), 0o644), ShouldBeNil)
			os.Setenv("SQUIG_CONFIG", path)
			defer os.Unsetenv("SQUIG_CONFIG")

			cfg, err := config.Load(context.Background())

			Convey("Then file values override defaults", func() {
				So(err, ShouldBeNil)
				So(cfg.CacheDir, ShouldEqual, "/var/lib/squig")
				So(cfg.DomainBatchSize, ShouldEqual, 12)
				So(cfg.MeasurementBatchSize, ShouldEqual, 8) // default kept
			})
		})

		Convey("When env vars are set on top of a file", func() {
			dir := t.TempDir()
			path := filepath.Join(dir, "squig.yaml")
			So(os.WriteFile(path, []byte("domain_batch_size: 12\n"), 0o644), ShouldBeNil)
			os.Setenv("SQUIG_CONFIG", path)
			os.Setenv("SQUIG_DOMAIN_BATCH_SIZE", "3")
			defer os.Unsetenv("SQUIG_CONFIG")
			defer os.Unsetenv("SQUIG_DOMAIN_BATCH_SIZE")

			cfg, err := config.Load(context.Background())

			Convey("Then env wins over the file", func() {
				So(err, ShouldBeNil)
				So(cfg.DomainBatchSize, ShouldEqual, 3)
			})
		})

		Convey("When validation fails", func() {
			os.Setenv("SQUIG_CACHE_DIR", "")
			os.Setenv("SQUIG_DOMAIN_BATCH_SIZE", "0")
			defer os.Unsetenv("SQUIG_CACHE_DIR")
			defer os.Unsetenv("SQUIG_DOMAIN_BATCH_SIZE")

			_, err := config.Load(context.Background())

			Convey("Then the sentinel error surfaces", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
			})
		})

		Convey("When the config file is missing", func() {
			os.Setenv("SQUIG_CONFIG", "/nonexistent/squig.yaml")
			defer os.Unsetenv("SQUIG_CONFIG")

			_, err := config.Load(context.Background())

			Convey("Then loading fails with ErrLoadConfig", func() {
				So(errors.Is(err, config.ErrLoadConfig), ShouldBeTrue)
			})
		})
	})
}

func TestStaticTables(t *testing.T) {
	Convey("Given the curated domain list", t, func() {
		domains := config.CuratedDomains()

		Convey("Then it is non-empty and free of duplicates", func() {
			So(len(domains), ShouldBeGreaterThan, 50)
			seen := map[string]bool{}
			for _, d := range domains {
				So(seen[d], ShouldBeFalse)
				seen[d] = true
			}
		})

		Convey("And mutating the returned slice does not leak", func() {
			domains[0] = "mutated"
			So(config.CuratedDomains()[0], ShouldNotEqual, "mutated")
		})
	})

	Convey("Given domain overrides", t, func() {
		Convey("Then encrypted sources carry a proxy URL", func() {
			o, ok := config.Override("crinacle.com")
			So(ok, ShouldBeTrue)
			So(o.Encrypted, ShouldBeTrue)
			So(o.ProxyURL, ShouldNotBeEmpty)
			So(o.Samples, ShouldBeGreaterThan, 1)
		})

		Convey("Then unknown domains have no override", func() {
			_, ok := config.Override("nope.example.com")
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given the quality allowlist", t, func() {
		So(config.QualityFor("crinacle.com"), ShouldEqual, model.QualityHigh)
		So(config.QualityFor("randomsite.squig.link"), ShouldEqual, model.QualityLow)
	})
}
