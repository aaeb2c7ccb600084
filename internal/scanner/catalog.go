// Package scanner walks the curated domain list, detects catalog changes,
// fetches measurements through fallback chains, and keeps the cache current.
package scanner

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/okian/squigscan/internal/config"
	"github.com/okian/squigscan/internal/domain/classify"
	"github.com/okian/squigscan/internal/domain/model"
	"github.com/okian/squigscan/pkg/metrics"
)

// Catalog mirrors the phone_book.json document archives publish: an array
// of brands, each listing measured phones.
type Catalog []Brand

// Brand is one manufacturer block in a catalog.
type Brand struct {
	Name   string  `json:"name"`
	Phones []Phone `json:"phones"`
}

// Phone is one measured device. File is a string for single-capture
// archives and an array for multi-sample rigs; Price arrives as a number,
// a "$99"-style string, or not at all.
type Phone struct {
	Name  string          `json:"name"`
	File  json.RawMessage `json:"file"`
	Price json.RawMessage `json:"price,omitempty"`
}

// ParseCatalog decodes a catalog document.
func ParseCatalog(data []byte) (Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return c, nil
}

// Files expands the phone's file field to a list of file base names.
func (p *Phone) Files() []string {
	var single string
	if err := json.Unmarshal(p.File, &single); err == nil {
		if single == "" {
			return nil
		}
		return []string{single}
	}
	var many []string
	if err := json.Unmarshal(p.File, &many); err == nil {
		return many
	}
	return nil
}

// PriceValue parses the price field, tolerating currency prefixes and
// thousands separators. Missing or unparseable prices return nil.
func (p *Phone) PriceValue() *float64 {
	if len(p.Price) == 0 {
		return nil
	}
	var num float64
	if err := json.Unmarshal(p.Price, &num); err == nil {
		return &num
	}
	var s string
	if err := json.Unmarshal(p.Price, &s); err != nil {
		return nil
	}
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "$€£¥")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return &v
	}
	return nil
}

// NormalizedHash digests the catalog's meaningful content — device names,
// primary file, and price — independent of ordering, so upstream cosmetic
// reshuffles do not defeat domain-level change detection.
func (c Catalog) NormalizedHash() string {
	var lines []string
	for _, brand := range c {
		for i := range brand.Phones {
			p := &brand.Phones[i]
			primary := ""
			if files := p.Files(); len(files) > 0 {
				primary = files[0]
			}
			price := ""
			if v := p.PriceValue(); v != nil {
				price = strconv.FormatFloat(*v, 'g', -1, 64)
			}
			lines = append(lines, brand.Name+"|"+p.Name+"|"+primary+"|"+price)
		}
	}
	sort.Strings(lines)
	sum := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(sum[:])
}

// EntryCount returns the number of phones listed.
func (c Catalog) EntryCount() int {
	n := 0
	for _, b := range c {
		n += len(b.Phones)
	}
	return n
}

// ExtractDevices turns a catalog into classified device records for one
// domain. True-wireless entries are dropped here, before any fetch.
func ExtractDevices(c Catalog, domain string, cls *classify.Classifier) []model.Device {
	var devices []model.Device
	for _, brand := range c {
		for i := range brand.Phones {
			p := &brand.Phones[i]
			files := p.Files()
			if len(files) == 0 {
				continue
			}
			name := strings.TrimSpace(brand.Name + " " + p.Name)
			if cls.IsTrueWireless(name) {
				metrics.RecordTWSExcluded()
				continue
			}
			res := cls.Classify(name, domain)
			devices = append(devices, model.Device{
				Domain:   domain,
				FileName: files[0],
				Name:     name,
				Price:    p.PriceValue(),
				Quality:  config.QualityFor(domain),
				Type:     res.Type,
				Rig:      res.Rig,
				Pinna:    res.Pinna,
				Files:    files,
			})
		}
	}
	return devices
}
