package scanner

import (
	"context"
	"strings"
	"sync"

	"github.com/okian/squigscan/internal/adapters/cache"
	"github.com/okian/squigscan/internal/adapters/fetch"
	"github.com/okian/squigscan/internal/config"
	"github.com/okian/squigscan/internal/domain/classify"
	"github.com/okian/squigscan/internal/domain/model"
	"github.com/okian/squigscan/pkg/logger"
	"github.com/okian/squigscan/pkg/metrics"
)

// DomainState is the per-domain scan outcome.
type DomainState string

const (
	// StateNotFound: no catalog candidate answered. Terminal for this run.
	StateNotFound DomainState = "not_found"
	// StateUnchanged: catalog hash matched the stored one; cache untouched.
	StateUnchanged DomainState = "unchanged"
	// StateChanged: catalog differs; devices were extracted and fetched.
	StateChanged DomainState = "changed"
)

// Deps wires the scanner to its collaborators. All cache structures are
// owned by the caller; the scanner mutates them only between batches, on
// the Run goroutine.
type Deps struct {
	Config     *config.Config
	Client     *fetch.Client
	Classifier *classify.Classifier
	Index      *cache.Index
	Blobs      *cache.Blobs
	Domains    *cache.DomainHashes
	Checkpoint *cache.Checkpoint
}

// Scanner drives the scan across the domain list in bounded concurrent
// batches, persisting cache state between batches.
type Scanner struct {
	deps   Deps
	logger logger.Logger
}

// New creates a Scanner.
func New(deps Deps) *Scanner {
	return &Scanner{
		deps:   deps,
		logger: logger.Get().Named("scanner"),
	}
}

// Run scans every pending domain. Domains already completed by an
// interrupted run (per the checkpoint) are skipped outright. The index,
// domain-hash table, and checkpoint persist after every batch, so a kill
// between batches loses at most one batch of progress.
func (s *Scanner) Run(ctx context.Context) error {
	all := s.deps.Config.ScanDomains()
	var pending []string
	for _, d := range all {
		if s.deps.Checkpoint.Done(d) {
			continue
		}
		pending = append(pending, d)
	}
	if len(pending) < len(all) {
		s.logger.Info(ctx, "resuming from checkpoint",
			logger.Int("completed", len(all)-len(pending)),
			logger.Int("pending", len(pending)))
	}

	batchSize := s.deps.Config.DomainBatchSize
	for start := 0; start < len(pending); start += batchSize {
		end := start + batchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		outcomes := make([]*domainOutcome, len(batch))
		var wg sync.WaitGroup
		for i, domain := range batch {
			wg.Add(1)
			go func(i int, domain string) {
				defer wg.Done()
				outcomes[i] = s.scanDomain(ctx, domain)
			}(i, domain)
		}
		wg.Wait()

		// Synchronous continuation: all cache mutation happens here, on
		// this goroutine, after the batch's fetches have resolved.
		for _, out := range outcomes {
			s.apply(ctx, out)
		}
		if err := s.persist(); err != nil {
			return err
		}
		metrics.RecordBatchCompleted()
		metrics.UpdateDevicesIndexed(s.deps.Index.Len())

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}

func (s *Scanner) persist() error {
	if err := s.deps.Index.Save(); err != nil {
		return err
	}
	if err := s.deps.Domains.Save(); err != nil {
		return err
	}
	return s.deps.Checkpoint.Save()
}

type domainOutcome struct {
	domain     string
	state      DomainState
	hash       string
	entryCount int
	results    []deviceResult
}

type deviceResult struct {
	dev    model.Device
	cached bool
	meas   Measurement
	err    error
}

// scanDomain runs the per-domain state machine off the Run goroutine. It
// reads the cache but never writes it; mutations are returned as results.
func (s *Scanner) scanDomain(ctx context.Context, domain string) *domainOutcome {
	out := &domainOutcome{domain: domain}

	catalog, baseURL, ok := s.resolveCatalog(ctx, domain)
	if !ok {
		out.state = StateNotFound
		return out
	}
	metrics.RecordDomainProbed()

	out.hash = catalog.NormalizedHash()
	out.entryCount = catalog.EntryCount()
	if !s.deps.Config.ForceRescan && s.deps.Domains.Unchanged(domain, out.hash) {
		out.state = StateUnchanged
		return out
	}
	out.state = StateChanged

	devices := ExtractDevices(catalog, domain, s.deps.Classifier)
	resolver := NewResolver(s.sourceFor(domain, baseURL))

	if o, found := config.Override(domain); found && o.Samples > 0 {
		for i := range devices {
			if len(devices[i].Files) > o.Samples {
				devices[i].Files = devices[i].Files[:o.Samples]
			}
		}
	}

	out.results = s.fetchDevices(ctx, devices, resolver)
	return out
}

// resolveCatalog finds a domain's catalog via its hard override, else by
// probing the ordered candidate subpaths. First hit wins and fixes the
// measurement base URL.
func (s *Scanner) resolveCatalog(ctx context.Context, domain string) (Catalog, string, bool) {
	const catalogSuffix = "/data/phone_book.json"

	try := func(url string) (Catalog, bool) {
		body, err := s.deps.Client.GetCatalog(ctx, url)
		if err != nil {
			return nil, false
		}
		catalog, err := ParseCatalog(body)
		if err != nil {
			s.logger.Warn(ctx, "catalog unparseable", logger.String("url", url), logger.Error(err))
			return nil, false
		}
		return catalog, true
	}

	if o, found := config.Override(domain); found && o.CatalogURL != "" {
		if catalog, ok := try(o.CatalogURL); ok {
			base := o.BaseURL
			if base == "" {
				base = strings.TrimSuffix(o.CatalogURL, catalogSuffix)
			}
			return catalog, base, true
		}
		return nil, "", false
	}

	root := domain
	if !strings.Contains(root, "://") {
		root = "https://" + root
	}
	for _, sub := range config.CatalogSubpaths() {
		url := root + "/" + sub
		if catalog, ok := try(url); ok {
			return catalog, strings.TrimSuffix(url, catalogSuffix), true
		}
	}
	return nil, "", false
}

// sourceFor picks the measurement source: encrypted domains go through the
// decrypting proxy, everything else fetches plainly under the base URL.
func (s *Scanner) sourceFor(domain, baseURL string) fetch.Source {
	if o, found := config.Override(domain); found && o.Encrypted {
		return &fetch.EncryptedSource{Client: s.deps.Client, ProxyURL: o.ProxyURL}
	}
	return &fetch.PlainSource{Client: s.deps.Client, Base: baseURL}
}

// fetchDevices resolves measurements for a changed domain's devices,
// bounded by the measurement batch size. Devices whose current hash
// already has a stored blob skip the network entirely.
func (s *Scanner) fetchDevices(ctx context.Context, devices []model.Device, resolver *Resolver) []deviceResult {
	results := make([]deviceResult, len(devices))
	sem := make(chan struct{}, s.deps.Config.MeasurementBatchSize)
	var wg sync.WaitGroup

	for i := range devices {
		dev := devices[i]

		if entry, found := s.deps.Index.Get(dev.Key()); found &&
			entry.Hash != "" && s.deps.Blobs.Has(entry.Hash) {
			results[i] = deviceResult{dev: dev, cached: true}
			metrics.RecordBlobHit()
			continue
		}

		wg.Add(1)
		go func(i int, dev model.Device) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			meas, err := resolver.Fetch(ctx, &dev)
			results[i] = deviceResult{dev: dev, meas: meas, err: err}
		}(i, dev)
	}
	wg.Wait()
	return results
}

// apply folds one domain's outcome into the cache. Runs on the Run
// goroutine only.
func (s *Scanner) apply(ctx context.Context, out *domainOutcome) {
	switch out.state {
	case StateNotFound:
		// A cancelled probe is not a missing catalog; leave the domain
		// pending so the resumed run probes it for real.
		if ctx.Err() != nil {
			return
		}
		metrics.RecordDomainNotFound()
		s.logger.Warn(ctx, "no catalog found; domain skipped", logger.String("domain", out.domain))

	case StateUnchanged:
		metrics.RecordDomainUnchanged()
		s.deps.Domains.Update(out.domain, out.hash, out.entryCount)
		s.logger.Debug(ctx, "domain unchanged", logger.String("domain", out.domain))

	case StateChanged:
		fetched, failed := 0, 0
		storeFailed := false
		for i := range out.results {
			res := &out.results[i]
			switch {
			case res.cached:
				s.deps.Index.RefreshMetadata(res.dev.Key(), res.dev.Name, res.dev.Price,
					res.dev.Quality, res.dev.Type, res.dev.Rig, res.dev.Pinna)
			case res.err != nil:
				// Terminal for this device this run; any prior cache
				// entry stays untouched.
				failed++
				metrics.RecordMeasurementFailure()
				s.logger.Debug(ctx, "measurement unavailable",
					logger.String("device", res.dev.Key()), logger.Error(res.err))
			default:
				hash, err := s.deps.Blobs.Save(res.meas.Text)
				if err != nil {
					failed++
					storeFailed = true
					s.logger.Error(ctx, "blob write failed",
						logger.String("device", res.dev.Key()), logger.Error(err))
					continue
				}
				metrics.RecordBlobWrite()
				metrics.RecordMeasurementSuccess()
				fetched++
				s.deps.Index.Put(res.dev.Key(), cache.Entry{
					Hash:    hash,
					Name:    res.dev.Name,
					Price:   res.dev.Price,
					Quality: res.dev.Quality,
					Type:    res.dev.Type,
					Rig:     res.dev.Rig,
					Pinna:   res.dev.Pinna,
				})
			}
		}
		if storeFailed {
			metrics.RecordDomainFailed()
		}
		// A cancellation aborts in-flight fetches as failures. Keep what
		// did land, but leave the domain unmarked so the resumed run
		// retries it instead of recording a batch of spurious misses.
		if ctx.Err() != nil {
			return
		}
		s.deps.Domains.Update(out.domain, out.hash, out.entryCount)
		s.logger.Info(ctx, "domain scanned",
			logger.String("domain", out.domain),
			logger.Int("devices", len(out.results)),
			logger.Int("fetched", fetched),
			logger.Int("failed", failed))
	}

	s.deps.Checkpoint.MarkDone(out.domain)
}
