package util

import "encoding/json"

// JSONSize returns the number of bytes value would occupy once marshaled
// to its canonical JSON form, which is the quantity maxValueBytes limits
// against. An unmarshalable value (e.g. a channel nested in a map)
// returns ok=false; callers treat that as a validation error rather than
// panicking.
func JSONSize(value interface{}) (size int, ok bool) {
	b, err := json.Marshal(value)
	if err != nil {
		return 0, false
	}
	return len(b), true
}
