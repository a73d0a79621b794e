package geoip

import (
	"regexp"
	"strings"
)

var (
	pathCountryRe = regexp.MustCompile(`/([a-z]{2})/`)
	fileCountryRe = regexp.MustCompile(`[-_/]([a-z]{2})\.txt`)
)

// InferFromSourceURL guesses a feed's country from its URL, the way
// curated feed repos name their files: a two-letter path segment
// (".../configs/us/all.txt", last one wins) or a filename suffix
// (".../mix-de.txt"). Returns "" when the URL gives no hint.
func InferFromSourceURL(sourceURL string) string {
	u := strings.ToLower(sourceURL)
	if matches := pathCountryRe.FindAllStringSubmatch(u, -1); len(matches) > 0 {
		return strings.ToUpper(matches[len(matches)-1][1])
	}
	if m := fileCountryRe.FindStringSubmatch(u); m != nil {
		return strings.ToUpper(m[1])
	}
	return ""
}
