package locale

import "strings"

// InferCountryFromPhone matches an E.164 number against the known calling
// codes, longest prefix first. Nil when nothing matches.
func InferCountryFromPhone(phone string) *Country {
	normalized := strings.TrimSpace(phone)
	if !strings.HasPrefix(normalized, "+") {
		return nil
	}

	var best *Country
	bestLen := 0
	for code := range Countries {
		country := Countries[code]
		for _, prefix := range country.PhonePrefixes {
			if len(prefix) > bestLen && strings.HasPrefix(normalized, prefix) {
				best, bestLen = &country, len(prefix)
			}
		}
	}
	return best
}
