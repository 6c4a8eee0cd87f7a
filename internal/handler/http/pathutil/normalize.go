// Package pathutil keeps HTTP metric labels bounded.
package pathutil

import "strings"

// UnmatchedPath labels every request to a path the server does not route.
const UnmatchedPath = "unmatched"

var knownPaths = map[string]struct{}{
	"/api/digest/summaries": {},
	"/api/digest/questions": {},
	"/api/creations":        {},
	"/health":               {},
	"/ready":                {},
	"/live":                 {},
	"/metrics":              {},
}

// NormalizePath returns path when it is a routed endpoint and UnmatchedPath
// otherwise, so scanners probing random URLs cannot grow label cardinality.
// Query strings and a trailing slash are ignored.
func NormalizePath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	if _, ok := knownPaths[path]; ok {
		return path
	}
	return UnmatchedPath
}

// ExpectedCardinality is the maximum number of distinct path labels.
func ExpectedCardinality() int {
	return len(knownPaths) + 1
}
