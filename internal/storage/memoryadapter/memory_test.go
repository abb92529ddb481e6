package memoryadapter

import (
	"context"
	"testing"

	"github.com/dreamware/kvsync/internal/apperrors"
	"github.com/dreamware/kvsync/internal/storage"
	"github.com/dreamware/kvsync/internal/types"
	"github.com/dreamware/kvsync/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testScope() types.Scope {
	return types.Scope{TenantID: "t1", Namespace: "ns1", UserID: "u1"}
}

func TestPutThenGet(t *testing.T) {
	a := New()
	ctx := context.Background()
	scope := testScope()

	item, err := a.Put(ctx, scope, "k", "v1", types.PutOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), item.Version)
	assert.Equal(t, `"1"`, item.ETag)

	got, found, err := a.Get(ctx, scope, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "v1", got.Value)
}

func TestPutIncrementsVersion(t *testing.T) {
	a := New()
	ctx := context.Background()
	scope := testScope()

	_, err := a.Put(ctx, scope, "k", "v1", types.PutOptions{})
	require.NoError(t, err)
	second, err := a.Put(ctx, scope, "k", "v2", types.PutOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.Version)
	assert.Equal(t, "v2", second.Value)
}

func TestIfMatchMismatchFails(t *testing.T) {
	a := New()
	ctx := context.Background()
	scope := testScope()

	_, err := a.Put(ctx, scope, "k", "v1", types.PutOptions{})
	require.NoError(t, err)

	bad := int64(99)
	_, err = a.Put(ctx, scope, "k", "v2", types.PutOptions{IfMatchVersion: &bad})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindPreconditionFailed))
}

func TestIfMatchOnMissingFails(t *testing.T) {
	a := New()
	ctx := context.Background()
	scope := testScope()

	want := int64(1)
	_, err := a.Put(ctx, scope, "k", "v1", types.PutOptions{IfMatchVersion: &want})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindPreconditionFailed))
}

func TestDeleteReturnsFalseWhenAbsent(t *testing.T) {
	a := New()
	ctx := context.Background()
	scope := testScope()

	deleted, err := a.Delete(ctx, scope, "missing", types.DeleteOptions{})
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestDeleteThenPutResetsVersion(t *testing.T) {
	a := New()
	ctx := context.Background()
	scope := testScope()

	_, err := a.Put(ctx, scope, "k", "v1", types.PutOptions{})
	require.NoError(t, err)
	deleted, err := a.Delete(ctx, scope, "k", types.DeleteOptions{})
	require.NoError(t, err)
	assert.True(t, deleted)

	item, err := a.Put(ctx, scope, "k", "v2", types.PutOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), item.Version)
}

func TestScopeIsolation(t *testing.T) {
	a := New()
	ctx := context.Background()
	s1 := types.Scope{TenantID: "t1", Namespace: "ns", UserID: "u"}
	s2 := types.Scope{TenantID: "t2", Namespace: "ns", UserID: "u"}

	_, err := a.Put(ctx, s1, "k", "v1", types.PutOptions{})
	require.NoError(t, err)

	_, found, err := a.Get(ctx, s2, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestListOrderingAndPrefix(t *testing.T) {
	a := New()
	ctx := context.Background()
	scope := testScope()

	for _, k := range []string{"b", "a", "c", "ax"} {
		_, err := a.Put(ctx, scope, k, k, types.PutOptions{})
		require.NoError(t, err)
	}

	tenLimit := 10
	result, err := a.List(ctx, scope, types.ListOptions{Limit: &tenLimit})
	require.NoError(t, err)
	var keys []string
	for _, it := range result.Items {
		keys = append(keys, it.Key)
	}
	assert.Equal(t, []string{"a", "ax", "b", "c"}, keys)
	assert.Nil(t, result.NextCursor)

	prefix := "a"
	result, err = a.List(ctx, scope, types.ListOptions{Prefix: &prefix, Limit: &tenLimit})
	require.NoError(t, err)
	keys = nil
	for _, it := range result.Items {
		keys = append(keys, it.Key)
	}
	assert.Equal(t, []string{"a", "ax"}, keys)
}

func TestListPagination(t *testing.T) {
	a := New()
	ctx := context.Background()
	scope := testScope()

	for _, k := range []string{"a", "b", "c", "d"} {
		_, err := a.Put(ctx, scope, k, k, types.PutOptions{})
		require.NoError(t, err)
	}

	twoLimit := 2
	page1, err := a.List(ctx, scope, types.ListOptions{Limit: &twoLimit})
	require.NoError(t, err)
	require.Len(t, page1.Items, 2)
	require.NotNil(t, page1.NextCursor)
	assert.Equal(t, util.EncodeCursor("b"), *page1.NextCursor)

	page2, err := a.List(ctx, scope, types.ListOptions{Limit: &twoLimit, Cursor: page1.NextCursor})
	require.NoError(t, err)
	require.Len(t, page2.Items, 2)
	assert.Equal(t, "c", page2.Items[0].Key)
	assert.Equal(t, "d", page2.Items[1].Key)
	assert.Nil(t, page2.NextCursor)
}

func TestBatchGetReturnsEntryPerKey(t *testing.T) {
	a := New()
	ctx := context.Background()
	scope := testScope()

	_, err := a.Put(ctx, scope, "k1", "v1", types.PutOptions{})
	require.NoError(t, err)

	results, err := a.BatchGet(ctx, scope, []string{"k1", "missing"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Found)
	assert.False(t, results[1].Found)
}

func TestBatchPutPartialFailure(t *testing.T) {
	a := New()
	ctx := context.Background()
	scope := testScope()

	bad := int64(5)
	entries := []storage.BatchPutEntry{
		{Key: "ok", Value: "v"},
		{Key: "bad", Value: "v", Opts: types.PutOptions{IfMatchVersion: &bad}},
	}
	results, err := a.BatchPut(ctx, scope, entries)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)

	_, found, err := a.Get(ctx, scope, "ok")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestHealthAndClose(t *testing.T) {
	a := New()
	h := a.Health(context.Background())
	assert.True(t, h.OK)

	require.NoError(t, a.Close())
	h = a.Health(context.Background())
	assert.False(t, h.OK)
}
