// Package httpapi implements the /v1 HTTP surface of spec.md §6: the
// item CRUD endpoints, batch operations, prefix listing, and the
// operational healthz/readyz/metrics routes, on top of the standard
// library's net/http.ServeMux, in the teacher's small-handler-function
// style.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/dreamware/kvsync/internal/apperrors"
	"github.com/dreamware/kvsync/internal/identity"
	"github.com/dreamware/kvsync/internal/readiness"
	"github.com/dreamware/kvsync/internal/service"
	"github.com/dreamware/kvsync/internal/storage"
	"github.com/dreamware/kvsync/internal/types"
)

// API wires a service.Service, an identity.Resolver, and a
// readiness.Prober into a http.Handler implementing the full /v1
// surface.
type API struct {
	svc      *service.Service
	resolver identity.Resolver
	prober   *readiness.Prober
	log      zerolog.Logger
	started  time.Time
}

// New returns an API ready to be mounted, e.g. via
// http.ListenAndServe(addr, api.Handler()).
func New(svc *service.Service, resolver identity.Resolver, prober *readiness.Prober, log zerolog.Logger) *API {
	return &API{svc: svc, resolver: resolver, prober: prober, log: log, started: time.Now()}
}

// Handler builds the routed http.Handler. Every /v1/items* route runs
// behind the identity middleware; healthz/readyz/metrics do not, since
// they carry no scope.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/healthz", a.handleHealthz)
	mux.HandleFunc("GET /v1/readyz", a.handleReadyz)
	mux.HandleFunc("GET /v1/metrics", a.handleMetrics)

	scoped := func(h http.HandlerFunc) http.Handler {
		return a.resolver.Middleware(h)
	}
	mux.Handle("PUT /v1/items/{key}", scoped(a.handlePut))
	mux.Handle("GET /v1/items/{key}", scoped(a.handleGet))
	mux.Handle("DELETE /v1/items/{key}", scoped(a.handleDelete))
	mux.Handle("POST /v1/items:batchGet", scoped(a.handleBatchGet))
	mux.Handle("POST /v1/items:batchPut", scoped(a.handleBatchPut))
	mux.Handle("GET /v1/items", scoped(a.handleList))

	return mux
}

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (a *API) handleReadyz(w http.ResponseWriter, r *http.Request) {
	result := a.prober.Ready(r.Context())
	status := http.StatusOK
	if !result.OK {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]interface{}{
		"ok":      result.OK,
		"details": result.Details,
	})
}

func (a *API) handleMetrics(w http.ResponseWriter, r *http.Request) {
	stats := a.svc.Stats()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"gets":      stats.Gets,
		"puts":      stats.Puts,
		"deletes":   stats.Deletes,
		"batchGets": stats.BatchGets,
		"batchPuts": stats.BatchPuts,
		"lists":     stats.Lists,
		"uptime":    time.Since(a.started).String(),
	})
}

func (a *API) handlePut(w http.ResponseWriter, r *http.Request) {
	scope, ok := identity.FromContext(r.Context())
	if !ok {
		a.writeError(w, apperrors.Unauthorized("missing identity"))
		return
	}
	key := r.PathValue("key")

	var value interface{}
	if err := json.NewDecoder(r.Body).Decode(&value); err != nil {
		a.writeError(w, apperrors.Validation("request body is not valid JSON: %v", err))
		return
	}

	opts := types.PutOptions{}
	if ttlRaw := r.URL.Query().Get("ttlSeconds"); ttlRaw != "" {
		ttl, err := strconv.ParseInt(ttlRaw, 10, 64)
		if err != nil {
			a.writeError(w, apperrors.Validation("ttlSeconds must be an integer, got %q", ttlRaw))
			return
		}
		opts.TTLSeconds = &ttl
	}
	ifMatch, err := service.ParseIfMatch(r.Header.Get("If-Match"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	opts.IfMatchVersion = ifMatch

	item, err := a.svc.SetItem(r.Context(), scope, key, value, opts)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMetaView(item))
}

func (a *API) handleGet(w http.ResponseWriter, r *http.Request) {
	scope, ok := identity.FromContext(r.Context())
	if !ok {
		a.writeError(w, apperrors.Unauthorized("missing identity"))
		return
	}
	key := r.PathValue("key")

	item, found, err := a.svc.GetItem(r.Context(), scope, key)
	if err != nil {
		a.writeError(w, err)
		return
	}
	if !found {
		a.writeError(w, apperrors.NotFound("key %q not found", key))
		return
	}

	w.Header().Set("ETag", item.ETag)
	if item.ExpiresAt != nil {
		w.Header().Set("X-Expires-At", item.ExpiresAt.UTC().Format(time.RFC3339))
	}
	writeJSON(w, http.StatusOK, item.Value)
}

func (a *API) handleDelete(w http.ResponseWriter, r *http.Request) {
	scope, ok := identity.FromContext(r.Context())
	if !ok {
		a.writeError(w, apperrors.Unauthorized("missing identity"))
		return
	}
	key := r.PathValue("key")

	ifMatch, err := service.ParseIfMatch(r.Header.Get("If-Match"))
	if err != nil {
		a.writeError(w, err)
		return
	}

	deleted, err := a.svc.RemoveItem(r.Context(), scope, key, types.DeleteOptions{IfMatchVersion: ifMatch})
	if err != nil {
		a.writeError(w, err)
		return
	}
	if !deleted {
		a.writeError(w, apperrors.NotFound("key %q not found", key))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleBatchGet(w http.ResponseWriter, r *http.Request) {
	scope, ok := identity.FromContext(r.Context())
	if !ok {
		a.writeError(w, apperrors.Unauthorized("missing identity"))
		return
	}

	var req batchGetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, apperrors.Validation("request body is not valid JSON: %v", err))
		return
	}

	results, err := a.svc.BatchGet(r.Context(), scope, req.Keys)
	if err != nil {
		a.writeError(w, err)
		return
	}

	items := make(map[string]*itemView, len(results))
	for _, res := range results {
		if !res.Found {
			items[res.Key] = nil
			continue
		}
		v := toItemView(res.Item)
		items[res.Key] = &v
	}
	writeJSON(w, http.StatusOK, batchGetResponse{Items: items})
}

func (a *API) handleBatchPut(w http.ResponseWriter, r *http.Request) {
	scope, ok := identity.FromContext(r.Context())
	if !ok {
		a.writeError(w, apperrors.Unauthorized("missing identity"))
		return
	}

	var req batchPutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, apperrors.Validation("request body is not valid JSON: %v", err))
		return
	}

	entries := make([]storage.BatchPutEntry, 0, len(req.Entries))
	for _, e := range req.Entries {
		opts := types.PutOptions{TTLSeconds: e.TTLSeconds}
		ifMatch, err := service.ParseIfMatch(e.IfMatch)
		if err != nil {
			a.writeError(w, err)
			return
		}
		opts.IfMatchVersion = ifMatch
		entries = append(entries, storage.BatchPutEntry{Key: e.Key, Value: e.Value, Opts: opts})
	}

	results, err := a.svc.BatchPut(r.Context(), scope, entries)
	if err != nil {
		a.writeError(w, err)
		return
	}

	items := make(map[string]batchPutItemResult, len(results))
	for _, res := range results {
		if res.Err != nil {
			var appErr *apperrors.Error
			apperrors.As(res.Err, &appErr)
			items[res.Key] = batchPutItemResult{Error: &errorBody{Code: appErr.Code, Message: appErr.Message}}
			continue
		}
		v := toMetaView(res.Item)
		items[res.Key] = batchPutItemResult{metaView: &v}
	}
	writeJSON(w, http.StatusOK, batchPutResponse{Items: items})
}

func (a *API) handleList(w http.ResponseWriter, r *http.Request) {
	scope, ok := identity.FromContext(r.Context())
	if !ok {
		a.writeError(w, apperrors.Unauthorized("missing identity"))
		return
	}

	q := r.URL.Query()
	opts := types.ListOptions{}
	if prefix := q.Get("prefix"); prefix != "" {
		opts.Prefix = &prefix
	}
	if cursor := q.Get("cursor"); cursor != "" {
		opts.Cursor = &cursor
	}
	if limitRaw := q.Get("limit"); limitRaw != "" {
		limit, err := strconv.Atoi(limitRaw)
		if err != nil {
			a.writeError(w, apperrors.Validation("limit must be an integer, got %q", limitRaw))
			return
		}
		opts.Limit = &limit
	}

	result, err := a.svc.List(r.Context(), scope, opts)
	if err != nil {
		a.writeError(w, err)
		return
	}

	views := make([]itemView, 0, len(result.Items))
	for _, it := range result.Items {
		views = append(views, toItemView(it))
	}
	writeJSON(w, http.StatusOK, listResponse{Items: views, NextCursor: result.NextCursor})
}
