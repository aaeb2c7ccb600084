package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/squigscan/pkg/logger"
)

const domainHashFile = "domain_hashes.json"

// DomainRecord tracks the last known shape of one domain's catalog. The hash
// covers a normalized, order-independent projection of the catalog document,
// so cosmetic reordering upstream does not force a rescan.
type DomainRecord struct {
	Hash        string    `json:"hash"`
	LastChecked time.Time `json:"lastChecked"`
	EntryCount  int       `json:"entryCount"`
}

// DomainHashes is the per-domain change-detection table.
type DomainHashes struct {
	path    string
	records map[string]DomainRecord
}

// LoadDomainHashes reads the table from dir, recovering an empty table from
// a missing or corrupt file.
func LoadDomainHashes(ctx context.Context, dir string) *DomainHashes {
	d := &DomainHashes{
		path:    filepath.Join(dir, domainHashFile),
		records: make(map[string]DomainRecord),
	}
	data, err := os.ReadFile(d.path)
	if err != nil {
		return d
	}
	if err := json.Unmarshal(data, &d.records); err != nil {
		logger.Get().Named("cache").Warn(ctx, "domain hash table corrupt; starting empty", logger.Error(err))
		d.records = make(map[string]DomainRecord)
	}
	return d
}

// Unchanged reports whether the domain's catalog hash matches the stored one.
func (d *DomainHashes) Unchanged(domain, hash string) bool {
	rec, ok := d.records[domain]
	return ok && rec.Hash == hash
}

// Update stamps a domain with its current catalog hash and entry count.
func (d *DomainHashes) Update(domain, hash string, entryCount int) {
	d.records[domain] = DomainRecord{
		Hash:        hash,
		LastChecked: time.Now().UTC(),
		EntryCount:  entryCount,
	}
}

// Get returns the stored record for a domain.
func (d *DomainHashes) Get(domain string) (DomainRecord, bool) {
	rec, ok := d.records[domain]
	return rec, ok
}

// Save persists the table as a whole-file replacement.
func (d *DomainHashes) Save() error {
	data, err := json.MarshalIndent(d.records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode domain hashes: %w", err)
	}
	return writeFileAtomic(d.path, data)
}
