package topic

import "strings"

const (
	// Wildcard matches exactly one level: "uvm/v1/status/+".
	Wildcard = "+"

	// MultiWildcard matches the remaining levels and must come last: "uvm/v1/#".
	MultiWildcard = "#"

	sharePrefix = "$share/"
)

// Match reports whether topic is selected by filter. A shared subscription
// filter ($share/{group}/{filter}) matches like its inner filter.
func Match(filter, topic string) bool {
	filter = StripShare(filter)
	if filter == topic {
		return true
	}
	if !strings.ContainsAny(filter, Wildcard+MultiWildcard) {
		return false
	}

	for {
		fpart, frest, fmore := strings.Cut(filter, "/")
		if fpart == MultiWildcard {
			return true
		}
		tpart, trest, tmore := strings.Cut(topic, "/")
		if fpart != Wildcard && fpart != tpart {
			return false
		}
		if !fmore || !tmore {
			// "a/#" also matches its parent level "a".
			return fmore == tmore || frest == MultiWildcard
		}
		filter, topic = frest, trest
	}
}

// StripShare removes a "$share/{group}/" prefix from filter.
func StripShare(filter string) string {
	rest, ok := strings.CutPrefix(filter, sharePrefix)
	if !ok {
		return filter
	}
	if _, inner, ok := strings.Cut(rest, "/"); ok {
		return inner
	}
	return filter
}
