package config

import "github.com/okian/squigscan/internal/domain/model"

// DomainOverride pins down a source whose layout breaks the shared URL
// conventions.
type DomainOverride struct {
	// CatalogURL replaces subpath probing with a fixed catalog location.
	CatalogURL string
	// BaseURL replaces the derived measurement base.
	BaseURL string
	// Encrypted routes measurement fetches through the decrypting proxy.
	Encrypted bool
	// ProxyURL is the decrypting proxy endpoint for encrypted sources.
	ProxyURL string
	// Rig / Pinna force the measurement apparatus for every device the
	// domain publishes, overriding name-based detection.
	Rig   model.Rig
	Pinna model.Pinna
	// Samples is how many repeated same-channel captures the source
	// publishes per device (multi-sample headphone rigs).
	Samples int
}

// CatalogSubpaths is the ordered list of candidate locations probed for a
// domain's catalog when no override pins it. Order matters: the first hit
// wins and fixes the measurement base URL.
func CatalogSubpaths() []string {
	return []string{
		"data/phone_book.json",
		"squig/data/phone_book.json",
		"iems/data/phone_book.json",
		"headphones/data/phone_book.json",
		"5128/data/phone_book.json",
		"711/data/phone_book.json",
		"earbuds/data/phone_book.json",
	}
}

// curatedDomains is the fixed archive list. The scanner never crawls beyond
// it. Kept sorted for stable batch composition across runs.
var curatedDomains = []string{
	"achoreviews.squig.link",
	"ageysaudio.squig.link",
	"akros.squig.link",
	"alphaaudio.squig.link",
	"amplifiedears.squig.link",
	"angrydadreviews.squig.link",
	"animagus.squig.link",
	"antdroid.squig.link",
	"aokisquig.link",
	"arn.squig.link",
	"audio-fi.squig.link",
	"audioamigo.squig.link",
	"audiodiscourse.squig.link",
	"audiogeek.squig.link",
	"audiojournal.squig.link",
	"audioreviews.squig.link",
	"bakkwatan.squig.link",
	"basra.squig.link",
	"bedrock.squig.link",
	"bggar.squig.link",
	"bry.squig.link",
	"cammyfi.squig.link",
	"canalworks.squig.link",
	"cqtek.squig.link",
	"crinacle.com",
	"dchpgall.squig.link",
	"dhrme.squig.link",
	"dongaudio.squig.link",
	"earphonesarchive.squig.link",
	"eliseaudio.squig.link",
	"enryfi.squig.link",
	"eplv.squig.link",
	"ericaudio.squig.link",
	"feelsaudio.squig.link",
	"fahryst.squig.link",
	"gadgetrytech.squig.link",
	"gizaudio.squig.link",
	"grahamslab.squig.link",
	"harpo.squig.link",
	"hawaiibadboy.squig.link",
	"hifiaudio.squig.link",
	"hore.squig.link",
	"hypethesonics.squig.link",
	"iemocean.squig.link",
	"iemsalae.squig.link",
	"iemworld.squig.link",
	"ianfann.squig.link",
	"jacstone.squig.link",
	"jaytiss.squig.link",
	"joshvalour.squig.link",
	"kazi.squig.link",
	"kr0mka.squig.link",
	"kurin.squig.link",
	"lestianto.squig.link",
	"listener.squig.link",
	"loyaltyaudio.squig.link",
	"mdsquig.link",
	"melatonin.squig.link",
	"mochill.squig.link",
	"mura.squig.link",
	"musicgeek.squig.link",
	"nymz.squig.link",
	"obodio.squig.link",
	"oscarstewart.squig.link",
	"paulwasabii.squig.link",
	"pw.squig.link",
	"practiphile.squig.link",
	"precog.squig.link",
	"pridetech.squig.link",
	"recode.squig.link",
	"regancipher.squig.link",
	"rg.squig.link",
	"rikudougoku.squig.link",
	"roncho.squig.link",
	"saraudio.squig.link",
	"seael.squig.link",
	"sai.squig.link",
	"smirk.squig.link",
	"sofre.squig.link",
	"sonicmax.squig.link",
	"soundcheck39.squig.link",
	"squiglink.usyless.uk",
	"superreview.squig.link",
	"suporsalad.squig.link",
	"tdpsmm.squig.link",
	"tektaudio.squig.link",
	"telyatnikov.squig.link",
	"tgx78.squig.link",
	"timmyv.squig.link",
	"tonedeafmonk.squig.link",
	"treblewellness.squig.link",
	"vortexreviews.squig.link",
	"vsg.squig.link",
	"wds.squig.link",
	"yanyin.squig.link",
	"yuraudio.squig.link",
	"zise.squig.link",
	"audio.nekoko.web.id",
	"graph.hangout.audio",
	"pricedroppedav.squig.link",
	"ruderagequit.squig.link",
}

// CuratedDomains returns a copy of the fixed archive list.
func CuratedDomains() []string {
	out := make([]string, len(curatedDomains))
	copy(out, curatedDomains)
	return out
}

// domainOverrides pins the sources with non-standard layouts. Encrypted
// sources serve ciphertext through a proxy and may publish several repeated
// captures per headphone.
var domainOverrides = map[string]DomainOverride{
	"crinacle.com": {
		CatalogURL: "https://crinacle.com/graphing/data/phone_book.json",
		BaseURL:    "https://crinacle.com/graphing",
		Encrypted:  true,
		ProxyURL:   "https://crinacle.com/graphtool/proxy.php",
		Samples:    3,
	},
	"graph.hangout.audio": {
		CatalogURL: "https://graph.hangout.audio/iem/5128/data/phone_book.json",
		BaseURL:    "https://graph.hangout.audio/iem/5128",
		Rig:        model.Rig5128,
		Pinna:      model.Pinna5128,
	},
	"squiglink.usyless.uk": {
		CatalogURL: "https://squiglink.usyless.uk/data/phone_book.json",
		BaseURL:    "https://squiglink.usyless.uk",
	},
}

// Override returns the domain's override entry, if any.
func Override(domain string) (DomainOverride, bool) {
	o, ok := domainOverrides[domain]
	return o, ok
}

// highQualityDomains marks archives whose rigs and methodology earn the
// "high" quality flag; everything else is "low".
var highQualityDomains = map[string]struct{}{
	"crinacle.com":             {},
	"precog.squig.link":        {},
	"superreview.squig.link":   {},
	"timmyv.squig.link":        {},
	"graph.hangout.audio":      {},
	"listener.squig.link":      {},
	"hypethesonics.squig.link": {},
}

// QualityFor returns the quality flag for a domain.
func QualityFor(domain string) model.Quality {
	if _, ok := highQualityDomains[domain]; ok {
		return model.QualityHigh
	}
	return model.QualityLow
}
