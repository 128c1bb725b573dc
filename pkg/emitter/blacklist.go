package emitter

import (
	"strings"

	"github.com/rfmap/rfmap/pkg"
)

// Curated label sets for emitters that are almost certainly mobile: phone
// tethering defaults, vehicle manufacturer AP defaults and transit operator
// networks. Matching is case-folded. Cellular emitters are never
// label-blacklisted.

// blacklistSubstrings match anywhere in the folded label.
var blacklistSubstrings = []string{
	"iphone",
	"ipad",
	"hotspot",
	"mobile wifi",
	"mifi",
	"tether",
	"portable",
}

// blacklistPrefixes match the start of the folded label.
var blacklistPrefixes = []string{
	"androidap",
	"android-",
	"direct-",
	"galaxy s",
	"galaxy note",
	"galaxy tab",
	"verizon-",
	"vz ",
	"my passport",
	"audi_mmi_",
	"bmw ",
	"gmc wifi",
	"chevrolet wifi",
	"vw_",
	"skoda_",
	"seat_",
	"myvolvo",
	"tesla",
	"gopro",
}

// blacklistSuffixes match the end of the folded label.
var blacklistSuffixes = []string{
	"_nomap", // industry opt-out marker
	"-mifi",
	" hotspot",
	"'s wifi",
	" phone",
}

// blacklistExact match the entire folded label.
var blacklistExact = []string{
	"wifionice",
	"wifi_rail",
	"cdwifi",
	"svciob",
	"oebb",
	"amtrak_wifi",
	"amtrakconnect",
	"sncf_wifi",
	"thalysnet",
	"flixbus",
	"flixbus wi-fi",
	"flixbus wifi",
	"muenet",
	"mvg wifi",
	"sbb-free",
	"bus wifi",
	"buswifi",
	"gwr wifi",
	"via rail",
	"telekom_ice",
	"westbahn",
}

// blacklistWords match any whitespace-delimited word of the folded label.
var blacklistWords = []string{
	"bus",
	"train",
	"tram",
	"ferry",
	"taxi",
	"shuttle",
	"onboard",
}

// BlacklistedLabel reports whether the label alone marks the emitter as
// mobile. Only short-range radio types carry meaningful labels; everything
// else returns false.
func BlacklistedLabel(label string, id pkg.Identity) bool {
	if !id.Type.ShortRange() || label == "" {
		return false
	}

	folded := strings.ToLower(strings.TrimSpace(label))

	for _, s := range blacklistExact {
		if folded == s {
			return true
		}
	}
	for _, s := range blacklistSubstrings {
		if strings.Contains(folded, s) {
			return true
		}
	}
	for _, s := range blacklistPrefixes {
		if strings.HasPrefix(folded, s) {
			return true
		}
	}
	for _, s := range blacklistSuffixes {
		if strings.HasSuffix(folded, s) {
			return true
		}
	}
	for _, word := range strings.Fields(folded) {
		for _, s := range blacklistWords {
			if word == s {
				return true
			}
		}
	}

	return labelMatchesAddressTail(folded, id.ID)
}

// labelMatchesAddressTail detects the common vehicle-AP default of naming
// the network after the trailing octets of its own hardware address, e.g.
// label "A1B2C3" for address aa:bb:cc:a1:b2:c3.
func labelMatchesAddressTail(folded, address string) bool {
	stripped := stripSeparators(folded)
	if len(stripped) != 4 && len(stripped) != 6 {
		return false
	}
	if !isHex(stripped) {
		return false
	}
	return strings.HasSuffix(stripSeparators(strings.ToLower(address)), stripped)
}

func stripSeparators(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ':' || r == '-' || r == '.' || r == ' ' {
			return -1
		}
		return r
	}, s)
}

func isHex(s string) bool {
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return len(s) > 0
}
