package redisadapter

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/kvsync/internal/apperrors"
	"github.com/dreamware/kvsync/internal/types"
)

func openTest(t *testing.T) *Adapter {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	a, err := Open(context.Background(), mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func testScope() types.Scope {
	return types.Scope{TenantID: "t1", Namespace: "ns1", UserID: "u1"}
}

func TestComposeKeyFormat(t *testing.T) {
	got := composeKey("t1", "ns1", "u1", "mykey")
	assert.Equal(t, "t:t1:n:ns1:u:u1:k:mykey", got)
	assert.Equal(t, "mykey", itemKeyFromComposed(got))
}

func TestPutGetRoundTrip(t *testing.T) {
	a := openTest(t)
	ctx := context.Background()
	scope := testScope()

	item, err := a.Put(ctx, scope, "k", "v1", types.PutOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), item.Version)

	got, found, err := a.Get(ctx, scope, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "v1", got.Value)
}

func TestIfMatchMismatch(t *testing.T) {
	a := openTest(t)
	ctx := context.Background()
	scope := testScope()

	_, err := a.Put(ctx, scope, "k", "v1", types.PutOptions{})
	require.NoError(t, err)

	bad := int64(7)
	_, err = a.Put(ctx, scope, "k", "v2", types.PutOptions{IfMatchVersion: &bad})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindPreconditionFailed))
}

func TestDeleteAbsentReturnsFalse(t *testing.T) {
	a := openTest(t)
	deleted, err := a.Delete(context.Background(), testScope(), "missing", types.DeleteOptions{})
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestDeleteThenRecreateResetsVersion(t *testing.T) {
	a := openTest(t)
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

func TestListAcrossScope(t *testing.T) {
	a := openTest(t)
	ctx := context.Background()
	scope := testScope()

	for _, k := range []string{"b", "a", "c"} {
		_, err := a.Put(ctx, scope, k, k, types.PutOptions{})
		require.NoError(t, err)
	}

	limit := 10
	result, err := a.List(ctx, scope, types.ListOptions{Limit: &limit})
	require.NoError(t, err)
	require.Len(t, result.Items, 3)
	assert.Equal(t, "a", result.Items[0].Key)
	assert.Equal(t, "b", result.Items[1].Key)
	assert.Equal(t, "c", result.Items[2].Key)
}

func TestBatchGet(t *testing.T) {
	a := openTest(t)
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

func TestHealth(t *testing.T) {
	a := openTest(t)
	h := a.Health(context.Background())
	assert.True(t, h.OK)
}
