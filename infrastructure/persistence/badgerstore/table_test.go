package badgerstore

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"learnboard/infrastructure/persistence/table"
)

func newTestTable(t *testing.T) *Table {
	t.Helper()
	tbl, err := Open(Options{InMemory: true}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = tbl.Close() })
	return tbl
}

func s(v string) types.AttributeValue { return &types.AttributeValueMemberS{Value: v} }

func item(pk, sk string, attrs map[string]string) table.Item {
	it := table.Item{table.AttrPK: s(pk), table.AttrSK: s(sk)}
	for k, v := range attrs {
		it[k] = s(v)
	}
	return it
}

func TestGetPutDelete(t *testing.T) {
	ctx := context.Background()
	tbl := newTestTable(t)
	key := table.Key{PK: "TOPIC#t1", SK: "METADATA"}

	_, err := tbl.Get(ctx, key)
	assert.ErrorIs(t, err, table.ErrNotFound)

	require.NoError(t, tbl.Put(ctx, table.PutRequest{Item: item(key.PK, key.SK, map[string]string{"slug": "alphabet"})}))

	got, err := tbl.Get(ctx, key)
	require.NoError(t, err)
	slug, _ := table.StringAttr(got, "slug")
	assert.Equal(t, "alphabet", slug)

	require.NoError(t, tbl.Delete(ctx, key))
	_, err = tbl.Get(ctx, key)
	assert.ErrorIs(t, err, table.ErrNotFound)
}

func TestRoundTripsNestedAttributes(t *testing.T) {
	ctx := context.Background()
	tbl := newTestTable(t)

	in := item("LEVEL#l1", "EXERCISE#e1", nil)
	in["config"] = &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
		"time_limit": &types.AttributeValueMemberN{Value: "30"},
		"choices":    &types.AttributeValueMemberL{Value: []types.AttributeValue{s("a"), s("b")}},
	}}
	in["is_published"] = &types.AttributeValueMemberBOOL{Value: true}
	require.NoError(t, tbl.Put(ctx, table.PutRequest{Item: in}))

	out, err := tbl.Get(ctx, table.Key{PK: "LEVEL#l1", SK: "EXERCISE#e1"})
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestConditionalPuts(t *testing.T) {
	ctx := context.Background()
	tbl := newTestTable(t)

	first := item("USER#u1", "PROGRESS#e1", nil)
	first[table.AttrVersion] = &types.AttributeValueMemberN{Value: "1"}
	require.NoError(t, tbl.Put(ctx, table.PutRequest{Item: first, IfNotExists: true}))

	err := tbl.Put(ctx, table.PutRequest{Item: first, IfNotExists: true})
	assert.ErrorIs(t, err, table.ErrConditionFailed)

	stale := int64(0)
	err = tbl.Put(ctx, table.PutRequest{Item: first, IfVersion: &stale})
	assert.ErrorIs(t, err, table.ErrConditionFailed)

	current := int64(1)
	second := item("USER#u1", "PROGRESS#e1", nil)
	second[table.AttrVersion] = &types.AttributeValueMemberN{Value: "2"}
	assert.NoError(t, tbl.Put(ctx, table.PutRequest{Item: second, IfVersion: &current}))
}

func TestConditionalPutOnUnversionedItem(t *testing.T) {
	ctx := context.Background()
	tbl := newTestTable(t)

	missing := item("USER#u9", "PROGRESS#e9", nil)
	err := tbl.Put(ctx, table.PutRequest{Item: missing, IfUnversioned: true})
	assert.ErrorIs(t, err, table.ErrConditionFailed, "a missing item is not unversioned")

	require.NoError(t, tbl.Put(ctx, table.PutRequest{Item: item("USER#u1", "PROGRESS#e1", map[string]string{"status": "completed"})}))

	zero := int64(0)
	err = tbl.Put(ctx, table.PutRequest{Item: item("USER#u1", "PROGRESS#e1", nil), IfVersion: &zero})
	assert.ErrorIs(t, err, table.ErrConditionFailed, "an absent version never equals a value")

	stamped := item("USER#u1", "PROGRESS#e1", nil)
	stamped[table.AttrVersion] = &types.AttributeValueMemberN{Value: "1"}
	require.NoError(t, tbl.Put(ctx, table.PutRequest{Item: stamped, IfUnversioned: true}))

	err = tbl.Put(ctx, table.PutRequest{Item: stamped, IfUnversioned: true})
	assert.ErrorIs(t, err, table.ErrConditionFailed)
}

func TestTransactPutIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	tbl := newTestTable(t)

	require.NoError(t, tbl.Put(ctx, table.PutRequest{Item: item("EMAIL#a@x.io", "EMAIL", nil)}))

	err := tbl.TransactPut(ctx,
		table.PutRequest{Item: item("USER#u2", "METADATA", nil), IfNotExists: true},
		table.PutRequest{Item: item("EMAIL#a@x.io", "EMAIL", nil), IfNotExists: true},
	)
	assert.ErrorIs(t, err, table.ErrConditionFailed)

	_, err = tbl.Get(ctx, table.Key{PK: "USER#u2", SK: "METADATA"})
	assert.ErrorIs(t, err, table.ErrNotFound, "first put must be rolled back")
}

func TestQueryPartitionIsPrefixBoundAndOrdered(t *testing.T) {
	ctx := context.Background()
	tbl := newTestTable(t)

	for _, it := range []table.Item{
		item("TOPIC#t1", "METADATA", nil),
		item("TOPIC#t1", "LEVEL#b", nil),
		item("TOPIC#t1", "LEVEL#a", nil),
		item("TOPIC#t10", "LEVEL#z", nil),
	} {
		require.NoError(t, tbl.Put(ctx, table.PutRequest{Item: it}))
	}

	got, err := tbl.Query(ctx, table.PartitionQuery("TOPIC#t1", "LEVEL#"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	sk0, _ := table.StringAttr(got[0], table.AttrSK)
	sk1, _ := table.StringAttr(got[1], table.AttrSK)
	assert.Equal(t, []string{"LEVEL#a", "LEVEL#b"}, []string{sk0, sk1})
}

func TestQueryIndexOrdersByRangeKey(t *testing.T) {
	ctx := context.Background()
	tbl := newTestTable(t)

	puts := []table.Item{
		item("TOPIC#b", "METADATA", map[string]string{"entity_type": "topic", "created_at": "2025-01-02T00:00:00.000000Z"}),
		item("TOPIC#a", "METADATA", map[string]string{"entity_type": "topic", "created_at": "2025-01-01T00:00:00.000000Z"}),
		item("LANG#pt_BR", "METADATA", map[string]string{"entity_type": "language", "created_at": "2025-01-01T00:00:00.000000Z"}),
		// Missing the range attribute, so absent from the sparse index.
		item("TOPIC#c", "METADATA", map[string]string{"entity_type": "topic"}),
	}
	for _, it := range puts {
		require.NoError(t, tbl.Put(ctx, table.PutRequest{Item: it}))
	}

	got, err := tbl.Query(ctx, table.IndexQuery(table.IndexEntityType, "topic", ""))
	require.NoError(t, err)
	require.Len(t, got, 2)
	pk0, _ := table.StringAttr(got[0], table.AttrPK)
	assert.Equal(t, "TOPIC#a", pk0)

	_, err = tbl.Query(ctx, table.IndexQuery("nope", "x", ""))
	assert.ErrorIs(t, err, table.ErrUnknownIndex)
}

func TestScanFilters(t *testing.T) {
	ctx := context.Background()
	tbl := newTestTable(t)

	for _, it := range []table.Item{
		item("USER#u1", "PROGRESS#e1", map[string]string{"entity_type": "user_progress", "level_id": "l1"}),
		item("USER#u1", "PROGRESS#e2", map[string]string{"entity_type": "user_progress", "level_id": "l2"}),
		item("USER#u1", "METADATA", map[string]string{"entity_type": "user"}),
	} {
		require.NoError(t, tbl.Put(ctx, table.PutRequest{Item: it}))
	}

	all, err := tbl.Scan(ctx, table.Eq("entity_type", "user_progress"))
	require.NoError(t, err)
	assert.Len(t, all, 2)

	l1, err := tbl.Scan(ctx, table.Eq("entity_type", "user_progress"), table.Eq("level_id", "l1"))
	require.NoError(t, err)
	assert.Len(t, l1, 1)
}
