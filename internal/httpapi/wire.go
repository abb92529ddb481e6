package httpapi

import (
	"time"

	"github.com/dreamware/kvsync/internal/types"
)

// itemView is the full wire representation of a StoredItem, used
// wherever a response embeds the value (GET, batchGet, list).
type itemView struct {
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
	ExpiresAt *time.Time  `json:"expiresAt,omitempty"`
	Key       string      `json:"key"`
	ETag      string      `json:"etag"`
	Value     interface{} `json:"value"`
	Version   int64       `json:"version"`
}

// metaView is the metadata-only response PUT and batchPut return: the
// spec's wire table omits value from these responses since the caller
// already supplied it.
type metaView struct {
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Key       string     `json:"key"`
	ETag      string     `json:"etag"`
	Version   int64      `json:"version"`
}

func toItemView(item types.StoredItem) itemView {
	return itemView{
		Key: item.Key, Value: item.Value, ETag: item.ETag, Version: item.Version,
		ExpiresAt: item.ExpiresAt, CreatedAt: item.CreatedAt, UpdatedAt: item.UpdatedAt,
	}
}

func toMetaView(item types.StoredItem) metaView {
	return metaView{
		Key: item.Key, ETag: item.ETag, Version: item.Version,
		ExpiresAt: item.ExpiresAt, CreatedAt: item.CreatedAt, UpdatedAt: item.UpdatedAt,
	}
}

type batchGetRequest struct {
	Keys []string `json:"keys"`
}

type batchGetResponse struct {
	Items map[string]*itemView `json:"items"`
}

type batchPutEntryRequest struct {
	Value      interface{} `json:"value"`
	Key        string      `json:"key"`
	IfMatch    string      `json:"ifMatch,omitempty"`
	TTLSeconds *int64      `json:"ttlSeconds,omitempty"`
}

type batchPutRequest struct {
	Entries []batchPutEntryRequest `json:"entries"`
}

type batchPutItemResult struct {
	*metaView
	Error *errorBody `json:"error,omitempty"`
}

type batchPutResponse struct {
	Items map[string]batchPutItemResult `json:"items"`
}

type listResponse struct {
	NextCursor *string    `json:"nextCursor"`
	Items      []itemView `json:"items"`
}
