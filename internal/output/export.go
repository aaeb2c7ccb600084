package output

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"github.com/okian/squigscan/internal/adapters/cache"
	"github.com/okian/squigscan/internal/domain/curve"
	"github.com/okian/squigscan/internal/domain/model"
	"github.com/okian/squigscan/pkg/logger"
)

// ExportVersion gates the curve-export document format. Field changes are
// additive only; breaking changes bump the version.
const ExportVersion = 1

const (
	exportFile  = "curves.json"
	rankingsDir = "rankings"
	exportRound = 100 // dB values round to 2 decimals
)

// ExportedDevice is one device's R40-aligned, 1 kHz-normalized response in
// the compact export.
type ExportedDevice struct {
	Name    string           `json:"name"`
	Price   *float64         `json:"price,omitempty"`
	Quality model.Quality    `json:"quality"`
	Type    model.DeviceType `json:"type"`
	Rig     model.Rig        `json:"rig"`
	Pinna   model.Pinna      `json:"pinna,omitempty"`
	DB      []float64        `json:"db"`
}

// exportDoc shares one frequency grid across every device so the document
// stays compact enough for a client to re-score against arbitrary targets
// offline.
type exportDoc struct {
	Version      int                       `json:"version"`
	Frequencies  []float64                 `json:"frequencies"`
	Devices      map[string]ExportedDevice `json:"devices"`
	Compensation map[string][]float64      `json:"compensation,omitempty"`
}

// Writer persists scoring output under one directory.
type Writer struct {
	dir    string
	logger logger.Logger
}

// NewWriter creates a Writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir, logger: logger.Get().Named("output")}
}

// WriteRankings writes one ranked-result document per target family.
func (w *Writer) WriteRankings(ctx context.Context, lists []*RankedList) error {
	for _, list := range lists {
		name := slug(list.Target) + "_" + string(list.Type) + ".json"
		path := filepath.Join(w.dir, rankingsDir, name)
		data, err := json.MarshalIndent(list, "", "  ")
		if err != nil {
			return fmt.Errorf("encode ranking %s: %w", list.Target, err)
		}
		if err := writeFileAtomic(path, data); err != nil {
			return err
		}
		w.logger.Info(ctx, "ranking written",
			logger.String("target", list.Target), logger.Int("devices", len(list.Results)))
	}
	return nil
}

// WriteExport writes the compact curve export for every cached device plus
// the shared compensation curves.
func (w *Writer) WriteExport(ctx context.Context, idx *cache.Index, blobs *cache.Blobs, comp map[string]*curve.Curve) error {
	doc := exportDoc{
		Version:     ExportVersion,
		Frequencies: roundAll(curve.R40Grid()),
		Devices:     make(map[string]ExportedDevice),
	}

	keys := idx.Keys()
	sort.Strings(keys)
	for _, key := range keys {
		entry, _ := idx.Get(key)
		text, err := blobs.Load(entry.Hash)
		if err != nil {
			continue
		}
		c, err := curve.Parse(text)
		if err != nil {
			continue
		}
		aligned := c.AlignToR40().Normalize(curve.NormalizeFrequency)
		doc.Devices[key] = ExportedDevice{
			Name:    entry.Name,
			Price:   entry.Price,
			Quality: entry.Quality,
			Type:    entry.Type,
			Rig:     entry.Rig,
			Pinna:   entry.Pinna,
			DB:      roundAll(aligned.DB),
		}
	}

	if len(comp) > 0 {
		doc.Compensation = make(map[string][]float64, len(comp))
		for name, c := range comp {
			doc.Compensation[name] = roundAll(c.AlignToR40().DB)
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode curve export: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(w.dir, exportFile), data); err != nil {
		return err
	}
	w.logger.Info(ctx, "curve export written", logger.Int("devices", len(doc.Devices)))
	return nil
}

// roundAll rounds every value to the export precision.
func roundAll(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = math.Round(x*exportRound) / exportRound
	}
	return out
}

// slug normalizes a target name into a file-safe token.
func slug(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case b.Len() > 0 && !strings.HasSuffix(b.String(), "-"):
			b.WriteByte('-')
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
