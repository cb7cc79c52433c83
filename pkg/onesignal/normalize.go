package onesignal

import "strings"

// NormalizeSegmentName maps a segment name to the tag key used for membership:
// surrounding whitespace trimmed, spaces replaced by underscores, lowercased.
func NormalizeSegmentName(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "_"))
}
