// Package service orchestrates a full scan run: lock, target library,
// cache, scanner, scoring pass, and output documents.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/okian/squigscan/internal/adapters/cache"
	"github.com/okian/squigscan/internal/adapters/fetch"
	"github.com/okian/squigscan/internal/config"
	"github.com/okian/squigscan/internal/domain/classify"
	"github.com/okian/squigscan/internal/domain/curve"
	"github.com/okian/squigscan/internal/domain/model"
	"github.com/okian/squigscan/internal/output"
	"github.com/okian/squigscan/internal/scanner"
	"github.com/okian/squigscan/internal/targets"
	"github.com/okian/squigscan/pkg/logger"
	"github.com/okian/squigscan/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const lockFile = "scan.lock"

// Service runs scans against the configured archive list.
type Service struct {
	cfg        *config.Config
	client     *fetch.Client
	classifier *classify.Classifier
	logger     logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithClient overrides the HTTP client, mostly for tests.
func WithClient(c *fetch.Client) Option {
	return func(s *Service) {
		if c != nil {
			s.client = c
		}
	}
}

// WithClassifier overrides the device classifier.
func WithClassifier(c *classify.Classifier) Option {
	return func(s *Service) {
		if c != nil {
			s.classifier = c
		}
	}
}

// New constructs a Service from configuration.
func New(cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		cfg: cfg,
		client: fetch.NewClient(
			fetch.WithTimeouts(
				time.Duration(cfg.CatalogTimeoutMS)*time.Millisecond,
				time.Duration(cfg.MeasurementTimeoutMS)*time.Millisecond,
			),
			fetch.WithRetry(cfg.CatalogRetries, time.Duration(cfg.BackoffBaseMS)*time.Millisecond),
			fetch.WithUserAgent(cfg.UserAgent),
		),
		classifier: classify.Default(),
		logger:     logger.Get().Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan runs one full scan-and-score cycle. Only one scan may run against a
// cache directory at a time; a held lock fails fast with ErrLocked. The
// checkpoint survives interruption and is cleared only after a fully
// successful run.
func (s *Service) Scan(ctx context.Context) error {
	release, err := s.acquireLock()
	if err != nil {
		return err
	}
	defer release()

	// Targets load before any network activity: scoring against an empty
	// library is meaningless, so this aborts the whole run.
	groups, err := targets.Load(ctx, s.cfg.TargetsDir)
	if err != nil {
		return err
	}
	comp, err := targets.LoadCompensation(ctx, s.cfg.CompensationDir)
	if err != nil {
		return err
	}

	stopMetrics := s.serveMetrics(ctx)
	defer stopMetrics()

	idx := cache.LoadIndex(ctx, s.cfg.CacheDir)
	blobs, err := cache.NewBlobs(s.cfg.CacheDir)
	if err != nil {
		return err
	}
	domains := cache.LoadDomainHashes(ctx, s.cfg.CacheDir)
	checkpoint := cache.LoadCheckpoint(ctx, s.cfg.CacheDir)

	started := time.Now()
	scanErr := scanner.New(scanner.Deps{
		Config:     s.cfg,
		Client:     s.client,
		Classifier: s.classifier,
		Index:      idx,
		Blobs:      blobs,
		Domains:    domains,
		Checkpoint: checkpoint,
	}).Run(ctx)
	metrics.UpdateScanDuration(time.Since(started).Seconds())
	metrics.UpdateLastScanUnix(float64(time.Now().Unix()))

	if scanErr != nil {
		// Best-effort persistence so a resume picks up from here. The
		// scanner saves between batches; this covers a mid-batch abort.
		if err := idx.Save(); err != nil {
			s.logger.Error(ctx, "index save on abort failed", logger.Error(err))
		}
		if err := domains.Save(); err != nil {
			s.logger.Error(ctx, "domain hashes save on abort failed", logger.Error(err))
		}
		if err := checkpoint.Save(); err != nil {
			s.logger.Error(ctx, "checkpoint save on abort failed", logger.Error(err))
		}
		return scanErr
	}

	if err := s.writeOutputs(ctx, idx, blobs, groups, comp); err != nil {
		return err
	}

	// The run completed; the next scan starts from a clean slate.
	if err := checkpoint.Clear(); err != nil {
		return err
	}
	s.logger.Info(ctx, "scan complete",
		logger.Int("devices", idx.Len()),
		logger.Duration("took", time.Since(started)))
	return nil
}

// Score re-runs the scoring pass and rewrites all outputs from the cache,
// with no network activity.
func (s *Service) Score(ctx context.Context) error {
	groups, err := targets.Load(ctx, s.cfg.TargetsDir)
	if err != nil {
		return err
	}
	comp, err := targets.LoadCompensation(ctx, s.cfg.CompensationDir)
	if err != nil {
		return err
	}
	idx := cache.LoadIndex(ctx, s.cfg.CacheDir)
	blobs, err := cache.NewBlobs(s.cfg.CacheDir)
	if err != nil {
		return err
	}
	return s.writeOutputs(ctx, idx, blobs, groups, comp)
}

// Export rewrites only the compact curve export from the cache.
func (s *Service) Export(ctx context.Context) error {
	comp, err := targets.LoadCompensation(ctx, s.cfg.CompensationDir)
	if err != nil {
		return err
	}
	idx := cache.LoadIndex(ctx, s.cfg.CacheDir)
	blobs, err := cache.NewBlobs(s.cfg.CacheDir)
	if err != nil {
		return err
	}
	return output.NewWriter(s.cfg.OutputDir).WriteExport(ctx, idx, blobs, comp)
}

// Top scores the cache against the named target family and returns the
// best n devices. An empty name selects the first family by name.
func (s *Service) Top(ctx context.Context, target string, n int) (*output.RankedList, error) {
	groups, err := targets.Load(ctx, s.cfg.TargetsDir)
	if err != nil {
		return nil, err
	}
	comp, err := targets.LoadCompensation(ctx, s.cfg.CompensationDir)
	if err != nil {
		return nil, err
	}
	idx := cache.LoadIndex(ctx, s.cfg.CacheDir)
	blobs, err := cache.NewBlobs(s.cfg.CacheDir)
	if err != nil {
		return nil, err
	}

	lists := output.ScoreAll(ctx, idx, blobs, groups, comp)
	var list *output.RankedList
	if target == "" {
		list = lists[0]
	} else {
		for _, l := range lists {
			if l.Target == target {
				list = l
				break
			}
		}
	}
	if list == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTarget, target)
	}
	if n > 0 && len(list.Results) > n {
		list.Results = list.Results[:n]
	}
	return list, nil
}

// Targets lists the loaded target family names, for CLI discovery.
func (s *Service) Targets(ctx context.Context) ([]string, []model.DeviceType, error) {
	groups, err := targets.Load(ctx, s.cfg.TargetsDir)
	if err != nil {
		return nil, nil, err
	}
	names := make([]string, len(groups))
	types := make([]model.DeviceType, len(groups))
	for i, g := range groups {
		names[i] = g.Name
		types[i] = g.Type
	}
	return names, types, nil
}

func (s *Service) writeOutputs(ctx context.Context, idx *cache.Index, blobs *cache.Blobs, groups []*targets.Group, comp map[string]*curve.Curve) error {
	lists := output.ScoreAll(ctx, idx, blobs, groups, comp)
	w := output.NewWriter(s.cfg.OutputDir)
	if err := w.WriteRankings(ctx, lists); err != nil {
		return err
	}
	return w.WriteExport(ctx, idx, blobs, comp)
}

// acquireLock takes the cache-directory scan lock without blocking.
func (s *Service) acquireLock() (func(), error) {
	lock := flock.New(filepath.Join(s.cfg.CacheDir, lockFile))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire scan lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			s.logger.Error(context.Background(), "release scan lock failed", logger.Error(err))
		}
	}, nil
}

// serveMetrics exposes the prometheus registry while a scan runs, when an
// address is configured. The returned func shuts the listener down.
func (s *Service) serveMetrics(ctx context.Context) func() {
	if s.cfg.MetricsAddr == "" {
		return func() {}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: s.cfg.MetricsAddr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(ctx, "metrics server failed", logger.Error(err))
		}
	}()
	s.logger.Info(ctx, "metrics listening", logger.String("addr", s.cfg.MetricsAddr))

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}
