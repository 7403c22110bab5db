package landing

import "strings"

const phoneDigits = 11

// FormatPhone renders the digits of raw as (DD) DDDDD-DDDD, or the prefix of
// that pattern the digits reach. Digits past the eleventh are dropped.
func FormatPhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			if b.Len() == phoneDigits {
				break
			}
		}
	}
	d := b.String()

	switch {
	case len(d) <= 2:
		return d
	case len(d) <= 7:
		return "(" + d[:2] + ") " + d[2:]
	default:
		return "(" + d[:2] + ") " + d[2:7] + "-" + d[7:]
	}
}
