package config

// ClassifierRules is the data behind device classification. The weights are
// empirically tuned against a noisy, ever-changing product-name corpus;
// treat them as configuration to adjust, not constants to preserve.
type ClassifierRules struct {
	// OverEarTags are explicit over-ear markers in a device name. Weight +100.
	OverEarTags []string
	// OverEarModels is a curated registry of known over-ear model names.
	// Weight +100.
	OverEarModels []string
	// InEarBrands lists brands that only make in-ears. Weight -200.
	InEarBrands []string
	// InEarKeywords force in-ear regardless of other hints. Weight -200.
	InEarKeywords []string
	// InEarDomains are archives that only measure in-ears. Weight -150.
	InEarDomains []string
	// DomainHints suggest over-ear when they appear in the domain itself.
	// Weight +30.
	DomainHints []string
	// TWSKeywords mark true-wireless devices, which are excluded before
	// any fetch.
	TWSKeywords []string
	// PinnaModels maps a model-number keyword in the name to a pinna
	// variant, checked after explicit 5128 markers and domain overrides.
	PinnaModels map[string]string
}

// DefaultClassifierRules returns the curated rule tables.
func DefaultClassifierRules() ClassifierRules {
	return ClassifierRules{
		OverEarTags: []string{
			"over-ear", "over ear", "overear", "on-ear", "on ear",
			"(open)", "(closed)", "earpads", "pads",
		},
		OverEarModels: []string{
			// Sennheiser
			"hd800", "hd 800", "hd650", "hd 650", "hd600", "hd 600",
			"hd560", "hd 560", "hd580", "hd58x", "hd6xx", "hd490",
			// Beyerdynamic
			"dt770", "dt 770", "dt880", "dt 880", "dt990", "dt 990",
			"dt1990", "dt 1990", "dt700", "dt900",
			// AKG / Audio-Technica / Sony / Focal / HiFiMAN / Audeze
			"k371", "k361", "k702", "k712", "ath-m50", "ath-r70x",
			"mdr-7506", "mdr-z1r", "wh-1000xm", "mh40",
			"clear mg", "elex", "utopia", "stellia", "celestee",
			"sundara", "ananda", "arya", "susvara", "edition xs", "he400",
			"lcd-2", "lcd-x", "lcd-5", "mm-500", "maxwell",
			// Others that show up constantly in archives
			"srh440", "srh840", "srh1540", "m1570", "t60rp", "t50rp",
			"porta pro", "ksc75", "grado", "hemp", "sr80", "sr325",
			"planar", "verite", "atrium", "caldera", "expanse",
			"meze 99", "meze 109", "empyrean", "elite",
		},
		InEarBrands: []string{
			"truthear", "moondrop chu", "tangzu", "kiwi ears", "tripowin",
			"qdc", "softears", "kinera", "mangird", "thieaudio",
			"shuoer", "letshuoer", "tforce", "cca ", "kz ", "trn ",
			"blon", "tin hifi", "tinhifi", "penon", "dunu", "simgot",
			"7hz", "7 hertz", "etymotic", "fiio f", "juzear", "ziigaat",
			"xenns", "unique melody", "noble audio", "empire ears",
			"64 audio", "vision ears", "elysian", "symphonium",
		},
		InEarKeywords: []string{
			"iem", "in-ear", "in ear", "earphone", "eartips",
			"tws", "buds", "earbud", "canal",
		},
		InEarDomains: []string{
			"iemocean.squig.link",
			"iemsalae.squig.link",
			"iemworld.squig.link",
			"nymz.squig.link",
			"cqtek.squig.link",
			"earphonesarchive.squig.link",
		},
		DomainHints: []string{"5128", "headphone"},
		TWSKeywords: []string{
			"tws", "true wireless", "truewireless", "buds", "airpods",
			"freebuds", "soundcore liberty", "earfun",
		},
		PinnaModels: map[string]string{
			"kb5000": "kb5",
			"kb5010": "kb5",
			"kb50":   "kb5",
			"kb0065": "kb0065",
			"kb006x": "kb0065",
		},
	}
}
