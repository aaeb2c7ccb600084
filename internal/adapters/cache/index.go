// Package cache persists everything a scan knows: a versioned, hash-indexed
// device catalog, content-addressed compressed measurement blobs, a
// per-domain hash table for change detection, and the resume checkpoint.
//
// Two invariants hold throughout:
//   - hash -> blob mappings are immutable; blobs are written once and never
//     rewritten or deleted by a scan,
//   - every persisted document is replaced whole-file (temp + rename), so an
//     interrupted run cannot corrupt the previous good snapshot.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/squigscan/internal/domain/model"
	"github.com/okian/squigscan/pkg/logger"
)

// SchemaVersion is the current index document version. Older versions are
// migrated on load; unknown newer versions fail with ErrBadSchema.
const SchemaVersion = 2

const (
	indexFile = "index.json"
	dateOnly  = "2006-01-02"
)

// Entry is the index's record for one device. The measurement itself lives
// in the blob store under Hash; the entry only carries metadata, which is
// refreshed every run even when the hash is unchanged.
type Entry struct {
	Hash      string           `json:"hash"`
	Name      string           `json:"name"`
	Price     *float64         `json:"price,omitempty"`
	Quality   model.Quality    `json:"quality"`
	Type      model.DeviceType `json:"type"`
	Rig       model.Rig        `json:"rig"`
	Pinna     model.Pinna      `json:"pinna,omitempty"`
	FirstSeen string           `json:"firstSeen"`
	LastSeen  string           `json:"lastSeen"`
}

type indexDoc struct {
	Version int              `json:"version"`
	Entries map[string]Entry `json:"entries"`
}

// Index is the sole mutable source of truth for what the scanner knows.
// It is loaded once at run start, mutated in place (never concurrently),
// and persisted between batches and at completion.
type Index struct {
	path    string
	entries map[string]Entry
	logger  logger.Logger
}

// LoadIndex reads the index from dir, migrating old schema versions. An
// unreadable or corrupt file is recovered as an empty index so the run can
// proceed as if first-time; prior blobs stay on disk and are re-adopted as
// devices are re-seen.
func LoadIndex(ctx context.Context, dir string) *Index {
	idx := &Index{
		path:    filepath.Join(dir, indexFile),
		entries: make(map[string]Entry),
		logger:  logger.Get().Named("cache"),
	}

	data, err := os.ReadFile(idx.path)
	if err != nil {
		if !os.IsNotExist(err) {
			idx.logger.Warn(ctx, "index unreadable; starting empty", logger.Error(err))
		}
		return idx
	}

	var doc indexDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		idx.logger.Warn(ctx, "index corrupt; starting empty", logger.Error(err))
		return idx
	}
	if err := migrateIndex(&doc); err != nil {
		idx.logger.Warn(ctx, "index schema not migratable; starting empty",
			logger.Int("version", doc.Version), logger.Error(err))
		return idx
	}
	if doc.Entries != nil {
		idx.entries = doc.Entries
	}
	return idx
}

// migrateIndex upgrades older documents in place. Version 1 predates the
// quality flag; its entries default to low quality.
func migrateIndex(doc *indexDoc) error {
	switch doc.Version {
	case SchemaVersion:
		return nil
	case 1:
		for k, e := range doc.Entries {
			if e.Quality == "" {
				e.Quality = model.QualityLow
			}
			doc.Entries[k] = e
		}
		doc.Version = SchemaVersion
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrBadSchema, doc.Version)
	}
}

// Get returns the entry for a device key.
func (i *Index) Get(key string) (Entry, bool) {
	e, ok := i.entries[key]
	return e, ok
}

// Len returns the number of indexed devices.
func (i *Index) Len() int { return len(i.entries) }

// Keys returns every device key in the index.
func (i *Index) Keys() []string {
	keys := make([]string, 0, len(i.entries))
	for k := range i.entries {
		keys = append(keys, k)
	}
	return keys
}

// Put records or refreshes a device entry. FirstSeen is preserved from any
// existing entry; LastSeen is stamped with today.
func (i *Index) Put(key string, e Entry) {
	today := time.Now().UTC().Format(dateOnly)
	if prev, ok := i.entries[key]; ok && prev.FirstSeen != "" {
		e.FirstSeen = prev.FirstSeen
	} else if e.FirstSeen == "" {
		e.FirstSeen = today
	}
	e.LastSeen = today
	i.entries[key] = e
}

// RefreshMetadata updates everything except the measurement hash. Used when
// the device's current hash already has a stored blob and no fetch happens.
func (i *Index) RefreshMetadata(key string, name string, price *float64, quality model.Quality, typ model.DeviceType, rig model.Rig, pinna model.Pinna) bool {
	e, ok := i.entries[key]
	if !ok {
		return false
	}
	e.Name = name
	e.Price = price
	e.Quality = quality
	e.Type = typ
	e.Rig = rig
	e.Pinna = pinna
	e.LastSeen = time.Now().UTC().Format(dateOnly)
	i.entries[key] = e
	return true
}

// Save persists the index as a whole-file replacement.
func (i *Index) Save() error {
	doc := indexDoc{Version: SchemaVersion, Entries: i.entries}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	return writeFileAtomic(i.path, data)
}
