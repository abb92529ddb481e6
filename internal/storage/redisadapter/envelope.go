package redisadapter

import (
	"encoding/json"
	"time"

	"github.com/dreamware/kvsync/internal/types"
	"github.com/dreamware/kvsync/internal/util"
)

// envelope is the JSON-encoded record stored at one composed Redis key:
// the backend-agnostic record spec.md §4.2 calls out for KV backends
// ("value is a JSON envelope carrying all fields").
type envelope struct {
	Value     json.RawMessage `json:"value"`
	Version   int64           `json:"version"`
	ExpiresAt *time.Time      `json:"expiresAt,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func (e envelope) active(now time.Time) bool {
	return e.ExpiresAt == nil || e.ExpiresAt.After(now)
}

// toItemWithRawValue builds a StoredItem directly from an already
// in-memory value, avoiding a redundant marshal/unmarshal round trip
// right after Put encoded the same value.
func (e envelope) toItemWithRawValue(key string, value interface{}) (types.StoredItem, error) {
	return types.StoredItem{
		Key:       key,
		Value:     value,
		Version:   e.Version,
		ETag:      util.ETag(e.Version),
		ExpiresAt: e.ExpiresAt,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}, nil
}

func (e envelope) toItem(key string) (types.StoredItem, error) {
	var value interface{}
	if err := json.Unmarshal(e.Value, &value); err != nil {
		return types.StoredItem{}, err
	}
	return types.StoredItem{
		Key:       key,
		Value:     value,
		Version:   e.Version,
		ETag:      util.ETag(e.Version),
		ExpiresAt: e.ExpiresAt,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}, nil
}

func encodeEnvelope(value interface{}, version int64, expiresAt *time.Time, createdAt, updatedAt time.Time) ([]byte, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	e := envelope{
		Value:     raw,
		Version:   version,
		ExpiresAt: expiresAt,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
	return json.Marshal(e)
}

func decodeEnvelope(raw []byte) (envelope, error) {
	var e envelope
	err := json.Unmarshal(raw, &e)
	return e, err
}
