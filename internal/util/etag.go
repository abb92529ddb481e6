package util

import (
	"strconv"
	"strings"
)

// ETag returns the quoted decimal form of version, e.g. version 3
// becomes `"3"`. This is the only place that formats a version as an
// ETag; StoredItem.ETag is always produced by this function.
func ETag(version int64) string {
	return `"` + strconv.FormatInt(version, 10) + `"`
}

// ParseIfMatch accepts either the quoted form `"N"` or the bare decimal
// form `N`, trimming surrounding whitespace. It returns (version, true)
// on success. An empty string (after trimming) is treated as "no
// precondition" and returns (0, false) with no error — callers must
// check the ok flag before treating the input as a malformed
// precondition; whether an absent header reaches here at all is a
// decision for the caller.
func ParseIfMatch(raw string) (version int64, ok bool, malformed bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, false, false
	}
	if len(trimmed) >= 2 && trimmed[0] == '"' && trimmed[len(trimmed)-1] == '"' {
		trimmed = trimmed[1 : len(trimmed)-1]
	}
	trimmed = strings.TrimSpace(trimmed)
	if trimmed == "" {
		return 0, false, false
	}
	n, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil || n <= 0 {
		return 0, false, true
	}
	return n, true, false
}
