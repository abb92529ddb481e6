package util

import "encoding/base64"

// EncodeCursor turns the last key seen on a page into an opaque cursor
// token. Callers must treat the result as opaque; only DecodeCursor may
// interpret it.
func EncodeCursor(lastKey string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(lastKey))
}

// DecodeCursor reverses EncodeCursor. A malformed cursor (not valid
// base64url) returns ok=false; callers surface that as a validation
// error rather than guessing a starting point.
func DecodeCursor(cursor string) (key string, ok bool) {
	b, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return "", false
	}
	return string(b), true
}
