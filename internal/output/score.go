// Package output runs the scoring pass over the cache and writes the
// ranked result documents and the compact curve export.
package output

import (
	"context"
	"sort"
	"time"

	"github.com/okian/squigscan/internal/adapters/cache"
	"github.com/okian/squigscan/internal/domain/curve"
	"github.com/okian/squigscan/internal/domain/model"
	"github.com/okian/squigscan/internal/targets"
	"github.com/okian/squigscan/pkg/logger"
	"github.com/okian/squigscan/pkg/metrics"
)

// RankedList is one target family's scored devices, best first.
type RankedList struct {
	Target      string               `json:"target"`
	Type        model.DeviceType     `json:"type"`
	GeneratedAt string               `json:"generatedAt"`
	Results     []model.ScoredDevice `json:"results"`
}

// Compensation curve names used to move a candidate between rig frames
// when a family has no variant matching the device's rig.
const (
	compTo711  = "5128 to 711"
	compTo5128 = "711 to 5128"
)

// ScoreAll scores every cached device against every compatible target
// family and returns one ranked list per family. Devices whose blob is
// missing or unparseable are skipped, never fatal.
func ScoreAll(ctx context.Context, idx *cache.Index, blobs *cache.Blobs, groups []*targets.Group, comp map[string]*curve.Curve) []*RankedList {
	log := logger.Get().Named("output")
	now := time.Now().UTC().Format(time.RFC3339)

	lists := make([]*RankedList, len(groups))
	for i, g := range groups {
		lists[i] = &RankedList{Target: g.Name, Type: g.Type, GeneratedAt: now}
	}

	keys := idx.Keys()
	sort.Strings(keys)
	for _, key := range keys {
		entry, _ := idx.Get(key)
		text, err := blobs.Load(entry.Hash)
		if err != nil {
			log.Warn(ctx, "blob missing; device skipped",
				logger.String("device", key), logger.Error(err))
			continue
		}
		measured, err := curve.Parse(text)
		if err != nil {
			log.Warn(ctx, "cached measurement unparseable; device skipped",
				logger.String("device", key), logger.Error(err))
			continue
		}

		for i, g := range groups {
			if g.Type != entry.Type {
				continue
			}
			variant, target, ok := g.VariantFor(entry.Type, entry.Rig, entry.Pinna)
			if !ok {
				continue
			}
			candidate := compensate(measured, entry.Rig, variant, comp)
			score := curve.PPI(candidate, target)
			metrics.RecordDeviceScored()

			lists[i].Results = append(lists[i].Results, model.ScoredDevice{
				Key:        key,
				Name:       entry.Name,
				Price:      entry.Price,
				Quality:    entry.Quality,
				Type:       entry.Type,
				Rig:        entry.Rig,
				Pinna:      entry.Pinna,
				Similarity: score.Similarity,
				Stdev:      score.Stdev,
				Slope:      score.Slope,
				AvgError:   score.AvgError,
				Variant:    variant,
			})
		}
	}

	for _, list := range lists {
		rank(list.Results)
	}
	return lists
}

// compensate moves a candidate into the chosen variant's rig frame when
// the rigs differ and the matching compensation curve exists. Without a
// curve the candidate scores uncompensated.
func compensate(c *curve.Curve, rig model.Rig, variant string, comp map[string]*curve.Curve) *curve.Curve {
	switch {
	case rig == model.Rig5128 && variant != targets.Variant5128:
		if adj, ok := comp[compTo711]; ok {
			return c.Subtract(adj)
		}
	case rig != model.Rig5128 && variant == targets.Variant5128:
		if adj, ok := comp[compTo5128]; ok {
			return c.Subtract(adj)
		}
	}
	return c
}

// rank orders results by descending similarity; ties break on ascending
// price, with unpriced devices last.
func rank(results []model.ScoredDevice) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		pi, pj := results[i].Price, results[j].Price
		switch {
		case pi == nil && pj == nil:
			return false
		case pi == nil:
			return false
		case pj == nil:
			return true
		default:
			return *pi < *pj
		}
	})
}
