package redisadapter

import "strings"

// composeKey centralizes the backend key format so cursors (which only
// ever encode the raw item key) never need to know about it:
// t:<tenant>:n:<namespace>:u:<user>:k:<key>.
func composeKey(tenantID, namespace, userID, key string) string {
	var b strings.Builder
	b.Grow(len(tenantID) + len(namespace) + len(userID) + len(key) + 16)
	b.WriteString("t:")
	b.WriteString(tenantID)
	b.WriteString(":n:")
	b.WriteString(namespace)
	b.WriteString(":u:")
	b.WriteString(userID)
	b.WriteString(":k:")
	b.WriteString(key)
	return b.String()
}

// scanPattern returns the MATCH pattern for SCAN-ing every key in a
// scope, optionally narrowed to a key prefix.
func scanPattern(tenantID, namespace, userID, prefix string) string {
	return composeKey(tenantID, namespace, userID, prefix) + "*"
}

// itemKeyFromComposed extracts the item key portion of a composed
// backend key, i.e. everything after the last ":k:" marker.
func itemKeyFromComposed(composed string) string {
	const marker = ":k:"
	idx := strings.LastIndex(composed, marker)
	if idx < 0 {
		return composed
	}
	return composed[idx+len(marker):]
}
