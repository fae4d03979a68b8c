package service

import "strings"

// Launch-to-institution linkage in the legacy data is by name convention,
// not a foreign key: "Hospital X - Mañana" and "Hospital X - Tarde" are
// variants of the "Hospital X" offering. The separator is a spaced hyphen or
// a spaced en dash, whichever appears first.
var groupSeparators = []string{" - ", " – "}

// GroupDisplayName returns the display-group name for a launch: the trimmed
// substring before the first separator, or the whole trimmed name when no
// separator is present.
func GroupDisplayName(name string) string {
	name = strings.TrimSpace(name)
	cut := -1
	for _, sep := range groupSeparators {
		if idx := strings.Index(name, sep); idx >= 0 && (cut < 0 || idx < cut) {
			cut = idx
		}
	}
	if cut < 0 {
		return name
	}
	return strings.TrimSpace(name[:cut])
}
