// Package classify decides device type, rig, and pinna from noisy free-text
// catalog names plus the publishing domain. Classification is additive
// scoring over an ordered rule table, not first-match: competing hints
// accumulate and the sign of the total decides. This is a tuned heuristic
// over ad-hoc product names; near-ties are expected.
package classify

import (
	"sort"
	"strings"

	"github.com/okian/squigscan/internal/config"
	"github.com/okian/squigscan/internal/domain/model"
)

// Rule weights. Magnitudes are tuned so a single strong in-ear signal
// outvotes an over-ear registry hit plus a domain hint.
const (
	weightOverEar     = 100
	weightInEarName   = -200
	weightInEarDomain = -150
	weightDomainHint  = 30
)

// Rule is one (pattern, weight) entry. Patterns match case-insensitively as
// substrings; Domain selects whether the pattern is checked against the
// device name or the publishing domain.
type Rule struct {
	Pattern string
	Weight  int
	Domain  bool
}

// Classifier evaluates the rule tables. Build one with New and share it
// across the run; it is immutable after construction.
type Classifier struct {
	rules       []Rule
	twsKeywords []string
	pinnaModels []pinnaRule
}

// pinnaRule keeps model-number matching in a fixed order.
type pinnaRule struct {
	keyword string
	pinna   model.Pinna
}

// Result is a classification outcome.
type Result struct {
	Type  model.DeviceType
	Rig   model.Rig
	Pinna model.Pinna
}

// New builds a Classifier from rule tables. The rule list is assembled in a
// fixed order so evaluation is deterministic and individually testable.
func New(rules config.ClassifierRules) *Classifier {
	c := &Classifier{
		twsKeywords: lowerAll(rules.TWSKeywords),
	}
	for _, p := range rules.OverEarTags {
		c.rules = append(c.rules, Rule{Pattern: strings.ToLower(p), Weight: weightOverEar})
	}
	for _, p := range rules.OverEarModels {
		c.rules = append(c.rules, Rule{Pattern: strings.ToLower(p), Weight: weightOverEar})
	}
	for _, p := range rules.InEarBrands {
		c.rules = append(c.rules, Rule{Pattern: strings.ToLower(p), Weight: weightInEarName})
	}
	for _, p := range rules.InEarKeywords {
		c.rules = append(c.rules, Rule{Pattern: strings.ToLower(p), Weight: weightInEarName})
	}
	for _, p := range rules.InEarDomains {
		c.rules = append(c.rules, Rule{Pattern: strings.ToLower(p), Weight: weightInEarDomain, Domain: true})
	}
	for _, p := range rules.DomainHints {
		c.rules = append(c.rules, Rule{Pattern: strings.ToLower(p), Weight: weightDomainHint, Domain: true})
	}
	for kw, pinna := range rules.PinnaModels {
		c.pinnaModels = append(c.pinnaModels, pinnaRule{
			keyword: strings.ToLower(kw),
			pinna:   model.Pinna(pinna),
		})
	}
	sort.Slice(c.pinnaModels, func(i, j int) bool {
		return c.pinnaModels[i].keyword < c.pinnaModels[j].keyword
	})
	return c
}

// Default builds a Classifier over the curated rule tables.
func Default() *Classifier {
	return New(config.DefaultClassifierRules())
}

// Classify scores name+domain against the rule table. A rule of a given
// weight fires at most once: three in-ear keywords in one name still count
// -200, keeping one noisy name from drowning the other signals.
func (c *Classifier) Classify(name, domain string) Result {
	lname := strings.ToLower(name)
	ldomain := strings.ToLower(domain)

	score := 0
	fired := map[int]bool{}
	for _, r := range c.rules {
		if fired[r.Weight] {
			continue
		}
		subject := lname
		if r.Domain {
			subject = ldomain
		}
		if strings.Contains(subject, r.Pattern) {
			score += r.Weight
			fired[r.Weight] = true
		}
	}

	res := Result{Type: model.TypeIEM}
	if score > 0 {
		res.Type = model.TypeHeadphone
	}
	res.Rig, res.Pinna = c.detectRig(lname, ldomain, res.Type)
	return res
}

// IsTrueWireless reports whether the name marks a TWS device. Checked
// independently of type scoring; TWS devices are excluded before any fetch.
func (c *Classifier) IsTrueWireless(name string) bool {
	lname := strings.ToLower(name)
	for _, kw := range c.twsKeywords {
		if strings.Contains(lname, kw) {
			return true
		}
	}
	return false
}

// detectRig resolves rig and pinna with a fixed precedence chain:
// explicit 5128 marker in domain or name > domain hard override >
// model-number keyword > defaults (711 rig; kb5 pinna for headphones).
func (c *Classifier) detectRig(lname, ldomain string, typ model.DeviceType) (model.Rig, model.Pinna) {
	if strings.Contains(ldomain, "5128") || strings.Contains(lname, "5128") {
		return model.Rig5128, model.Pinna5128
	}
	if o, ok := config.Override(ldomain); ok && o.Rig != "" {
		pinna := o.Pinna
		if pinna == model.PinnaNone && typ == model.TypeHeadphone {
			pinna = model.PinnaKB5
		}
		return o.Rig, pinna
	}
	for _, pr := range c.pinnaModels {
		if strings.Contains(lname, pr.keyword) {
			return model.Rig711, pr.pinna
		}
	}
	if typ == model.TypeHeadphone {
		return model.Rig711, model.PinnaKB5
	}
	return model.Rig711, model.PinnaNone
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
