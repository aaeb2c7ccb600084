// Package targets loads the on-disk target curve library: named families
// with per-rig/pinna variants, plus the shared rig-compensation curves.
package targets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/okian/squigscan/internal/domain/curve"
	"github.com/okian/squigscan/internal/domain/model"
	"github.com/okian/squigscan/pkg/logger"
)

// Variant names a target family's rig/pinna edition. Files carry the
// variant as a trailing parenthesized token; an unsuffixed file is the
// family's kb0065 default.
const (
	Variant711    = "711"
	Variant5128   = "5128"
	VariantKB5    = "kb5"
	VariantKB0065 = "kb0065"
)

// Group is one target family: a base name with up to four variant curves.
type Group struct {
	Name     string
	Type     model.DeviceType
	Variants map[string]*curve.Curve
}

// VariantFor picks the group's curve matching a device's rig and pinna,
// falling through a fixed preference order when the exact variant is
// absent. Returns the chosen variant name alongside the curve.
func (g *Group) VariantFor(typ model.DeviceType, rig model.Rig, pinna model.Pinna) (string, *curve.Curve, bool) {
	for _, v := range variantPreference(typ, rig, pinna) {
		if c, ok := g.Variants[v]; ok {
			return v, c, true
		}
	}
	return "", nil, false
}

func variantPreference(typ model.DeviceType, rig model.Rig, pinna model.Pinna) []string {
	if typ == model.TypeIEM {
		if rig == model.Rig5128 {
			return []string{Variant5128, Variant711}
		}
		return []string{Variant711, Variant5128}
	}

	// Over-ear: the pinna the device was measured with leads, then the
	// sibling pinna, then raw rig variants.
	if rig == model.Rig5128 {
		return []string{Variant5128, VariantKB0065, VariantKB5, Variant711}
	}
	if pinna == model.PinnaKB0065 {
		return []string{VariantKB0065, VariantKB5, Variant711, Variant5128}
	}
	return []string{VariantKB5, VariantKB0065, Variant711, Variant5128}
}

// Load reads every .txt target file under dir into variant-grouped
// families, sorted by name. An empty library is fatal: scoring is
// meaningless without at least one target.
func Load(ctx context.Context, dir string) ([]*Group, error) {
	log := logger.Get().Named("targets")

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNoTargets, dir, err)
	}

	byName := make(map[string]*Group)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".txt") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			log.Warn(ctx, "target unreadable; skipped", logger.String("file", e.Name()), logger.Error(err))
			continue
		}
		c, err := curve.Parse(string(data))
		if err != nil {
			log.Warn(ctx, "target unparseable; skipped", logger.String("file", e.Name()), logger.Error(err))
			continue
		}

		base, variant := splitVariant(strings.TrimSuffix(e.Name(), ".txt"))
		g, ok := byName[base]
		if !ok {
			g = &Group{
				Name:     base,
				Type:     inferType(base),
				Variants: make(map[string]*curve.Curve),
			}
			byName[base] = g
		}
		g.Variants[variant] = c
	}

	if len(byName) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoTargets, dir)
	}

	groups := make([]*Group, 0, len(byName))
	for _, g := range byName {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	log.Info(ctx, "target library loaded",
		logger.Int("families", len(groups)), logger.String("dir", dir))
	return groups, nil
}

// splitVariant peels a trailing "(711)"-style token off a file base name.
// Unrecognized tokens stay part of the family name.
func splitVariant(base string) (string, string) {
	open := strings.LastIndex(base, " (")
	if open < 0 || !strings.HasSuffix(base, ")") {
		return base, VariantKB0065
	}
	token := strings.ToLower(base[open+2 : len(base)-1])
	switch {
	case token == "711":
		return base[:open], Variant711
	case token == "5128":
		return base[:open], Variant5128
	case strings.HasPrefix(token, "kb0065"):
		return base[:open], VariantKB0065
	case strings.HasPrefix(token, "kb5"):
		return base[:open], VariantKB5
	}
	return base, VariantKB0065
}

// overEarMarkers classify a target family from its filename. Everything
// else is an in-ear target.
var overEarMarkers = []string{"kemar df", "harman 2018", "harman oe", "over-ear"}

func inferType(base string) model.DeviceType {
	lower := strings.ToLower(base)
	for _, m := range overEarMarkers {
		if strings.Contains(lower, m) {
			return model.TypeHeadphone
		}
	}
	return model.TypeIEM
}

// LoadCompensation reads the rig-compensation curves under dir, keyed by
// file base name. A missing directory yields an empty map: compensation
// is an optional refinement, not a precondition.
func LoadCompensation(ctx context.Context, dir string) (map[string]*curve.Curve, error) {
	log := logger.Get().Named("targets")
	comp := make(map[string]*curve.Curve)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return comp, nil
		}
		return nil, fmt.Errorf("read compensation dir %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".txt") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			log.Warn(ctx, "compensation unreadable; skipped", logger.String("file", e.Name()), logger.Error(err))
			continue
		}
		c, err := curve.Parse(string(data))
		if err != nil {
			log.Warn(ctx, "compensation unparseable; skipped", logger.String("file", e.Name()), logger.Error(err))
			continue
		}
		comp[strings.TrimSuffix(e.Name(), ".txt")] = c
	}
	return comp, nil
}
