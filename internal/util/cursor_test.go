package util

import "testing"

func TestCursorRoundTrip(t *testing.T) {
	for _, key := range []string{"", "a", "user:settings:theme", "\x00binary\x01"} {
		encoded := EncodeCursor(key)
		decoded, ok := DecodeCursor(encoded)
		if !ok {
			t.Fatalf("DecodeCursor(%q) not ok", encoded)
		}
		if decoded != key {
			t.Fatalf("round trip for %q produced %q", key, decoded)
		}
	}
}

func TestDecodeCursorMalformed(t *testing.T) {
	if _, ok := DecodeCursor("not valid base64url!!"); ok {
		t.Fatal("expected DecodeCursor to reject malformed input")
	}
}
