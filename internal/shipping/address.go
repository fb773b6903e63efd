package shipping

import (
	"regexp"
	"strings"
)

var pincodeInText = regexp.MustCompile(`\b\d{6}\b`)

// parseLegacyAddress recovers city/state/pincode from a single free-text
// address line. Orders created by this pipeline carry a structured
// address and never need it; it exists for rows imported from the old
// single-string schema. Empty components mean "let the provider
// auto-detect from the pincode".
func parseLegacyAddress(full string) (city, state, pincode string) {
	pincode = pincodeInText.FindString(full)

	parts := strings.Split(full, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	// Trailing segments are usually "..., city, state pincode" or
	// "..., city, state, pincode".
	var segs []string
	for _, p := range parts {
		stripped := strings.TrimSpace(pincodeInText.ReplaceAllString(p, ""))
		if stripped != "" {
			segs = append(segs, stripped)
		}
	}

	if len(segs) >= 2 {
		state = segs[len(segs)-1]
		city = segs[len(segs)-2]
	} else if len(segs) == 1 && segs[0] != full {
		city = segs[0]
	}
	return city, state, pincode
}
