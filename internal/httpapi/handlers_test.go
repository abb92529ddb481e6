package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/kvsync/internal/identity"
	"github.com/dreamware/kvsync/internal/readiness"
	"github.com/dreamware/kvsync/internal/service"
	"github.com/dreamware/kvsync/internal/storage"
	"github.com/dreamware/kvsync/internal/storage/memoryadapter"
)

func newTestAPI() *API {
	svc := service.New(memoryadapter.New(), service.DefaultLimits())
	prober := readiness.New(func(ctx context.Context) storage.Health {
		return svc.Health(ctx)
	}, time.Hour, time.Hour)
	return New(svc, identity.Resolver{}, prober, zerolog.Nop())
}

func withIdentity(r *http.Request) *http.Request {
	r.Header.Set("x-tenant-id", "t1")
	r.Header.Set("x-namespace", "ns1")
	r.Header.Set("x-user-id", "u1")
	return r
}

func TestHandlePutThenGet(t *testing.T) {
	api := newTestAPI()
	h := api.Handler()

	body, _ := json.Marshal("hello")
	req := withIdentity(httptest.NewRequest(http.MethodPut, "/v1/items/greeting", bytes.NewReader(body)))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var meta metaView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &meta))
	assert.Equal(t, int64(1), meta.Version)

	getReq := withIdentity(httptest.NewRequest(http.MethodGet, "/v1/items/greeting", nil))
	getW := httptest.NewRecorder()
	h.ServeHTTP(getW, getReq)
	require.Equal(t, http.StatusOK, getW.Code)
	assert.Equal(t, `"1"`, getW.Header().Get("ETag"))

	var value string
	require.NoError(t, json.Unmarshal(getW.Body.Bytes(), &value))
	assert.Equal(t, "hello", value)
}

func TestHandleGetMissingReturns404(t *testing.T) {
	api := newTestAPI()
	h := api.Handler()

	req := withIdentity(httptest.NewRequest(http.MethodGet, "/v1/items/missing", nil))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandlePutWithoutIdentityReturns401(t *testing.T) {
	api := newTestAPI()
	h := api.Handler()

	body, _ := json.Marshal("v")
	req := httptest.NewRequest(http.MethodPut, "/v1/items/k", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandlePutIfMatchMismatchReturns412(t *testing.T) {
	api := newTestAPI()
	h := api.Handler()

	body, _ := json.Marshal("v1")
	putReq := withIdentity(httptest.NewRequest(http.MethodPut, "/v1/items/k", bytes.NewReader(body)))
	putW := httptest.NewRecorder()
	h.ServeHTTP(putW, putReq)
	require.Equal(t, http.StatusOK, putW.Code)

	body2, _ := json.Marshal("v2")
	req := withIdentity(httptest.NewRequest(http.MethodPut, "/v1/items/k", bytes.NewReader(body2)))
	req.Header.Set("If-Match", `"99"`)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
}

func TestHandleDeleteMissingReturns404(t *testing.T) {
	api := newTestAPI()
	h := api.Handler()

	req := withIdentity(httptest.NewRequest(http.MethodDelete, "/v1/items/missing", nil))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleBatchGet(t *testing.T) {
	api := newTestAPI()
	h := api.Handler()

	body, _ := json.Marshal("v1")
	putReq := withIdentity(httptest.NewRequest(http.MethodPut, "/v1/items/k1", bytes.NewReader(body)))
	h.ServeHTTP(httptest.NewRecorder(), putReq)

	reqBody, _ := json.Marshal(batchGetRequest{Keys: []string{"k1", "missing"}})
	req := withIdentity(httptest.NewRequest(http.MethodPost, "/v1/items:batchGet", bytes.NewReader(reqBody)))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp batchGetResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotNil(t, resp.Items["k1"])
	assert.Nil(t, resp.Items["missing"])
}

func TestHandleList(t *testing.T) {
	api := newTestAPI()
	h := api.Handler()

	for _, k := range []string{"a", "b"} {
		body, _ := json.Marshal(k)
		req := withIdentity(httptest.NewRequest(http.MethodPut, "/v1/items/"+k, bytes.NewReader(body)))
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	req := withIdentity(httptest.NewRequest(http.MethodGet, "/v1/items?limit=10", nil))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp listResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Items, 2)
}

func TestHandleHealthzAndReadyz(t *testing.T) {
	api := newTestAPI()
	h := api.Handler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
