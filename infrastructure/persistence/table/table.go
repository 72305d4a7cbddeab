// Package table defines the single-table contract shared by every storage
// driver. Items are DynamoDB attribute maps regardless of the driver, so the
// typed repositories marshal once and run unchanged against DynamoDB or the
// embedded store.
package table

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Attribute names of the primary key and the secondary indexes.
const (
	AttrPK         = "PK"
	AttrSK         = "SK"
	AttrEntityType = "entity_type"
	AttrCreatedAt  = "created_at"
	AttrTopicID    = "topic_id"
	AttrEmail      = "email"
	AttrLevelID    = "level_id"
	AttrVersion    = "version"
)

// Secondary index names.
const (
	IndexEntityType = "entity_type-created_at-index"
	IndexTopicSK    = "topic_id-SK-index"
	IndexEmail      = "email-index"
)

// IndexDefinition describes the key attributes of a secondary index.
type IndexDefinition struct {
	Name      string
	HashAttr  string
	RangeAttr string
}

// Indexes lists the global secondary indexes of the content table.
var Indexes = []IndexDefinition{
	{Name: IndexEntityType, HashAttr: AttrEntityType, RangeAttr: AttrCreatedAt},
	{Name: IndexTopicSK, HashAttr: AttrTopicID, RangeAttr: AttrSK},
	{Name: IndexEmail, HashAttr: AttrEmail},
}

// LookupIndex returns the definition of a named index.
func LookupIndex(name string) (IndexDefinition, bool) {
	for _, idx := range Indexes {
		if idx.Name == name {
			return idx, true
		}
	}
	return IndexDefinition{}, false
}

var (
	// ErrNotFound is returned by Get when no item has the key.
	ErrNotFound = errors.New("item not found")
	// ErrConditionFailed is returned when a conditional write is rejected.
	ErrConditionFailed = errors.New("conditional check failed")
	// ErrUnknownIndex is returned for queries against an undeclared index.
	ErrUnknownIndex = errors.New("unknown index")
)

// Item is a raw table row.
type Item = map[string]types.AttributeValue

// Key is the composite primary key of an item.
type Key struct {
	PK string
	SK string
}

// Attributes renders the key as an attribute map.
func (k Key) Attributes() Item {
	return Item{
		AttrPK: &types.AttributeValueMemberS{Value: k.PK},
		AttrSK: &types.AttributeValueMemberS{Value: k.SK},
	}
}

// KeyOf extracts the primary key of an item.
func KeyOf(item Item) (Key, bool) {
	pk, okPK := StringAttr(item, AttrPK)
	sk, okSK := StringAttr(item, AttrSK)
	return Key{PK: pk, SK: sk}, okPK && okSK
}

// PutRequest is a full-item write with an optional condition. At most one of
// IfNotExists, IfUnversioned and IfVersion is set. IfUnversioned requires the
// stored item to exist without a version attribute; IfVersion requires the
// stored version attribute to equal the given value.
type PutRequest struct {
	Item          Item
	IfNotExists   bool
	IfUnversioned bool
	IfVersion     *int64
}

// Conditional reports whether the write carries a condition.
func (r PutRequest) Conditional() bool {
	return r.IfNotExists || r.IfUnversioned || r.IfVersion != nil
}

// Filter is an equality predicate on a string attribute.
type Filter struct {
	Attr  string
	Value string
}

// Eq builds a Filter.
func Eq(attr, value string) Filter {
	return Filter{Attr: attr, Value: value}
}

// Query selects items sharing a hash key value, optionally narrowed by a
// range-key prefix and filters. Results are ordered by the range key.
type Query struct {
	// IndexName is empty for the base table.
	IndexName   string
	HashValue   string
	RangePrefix string
	Filters     []Filter
}

// PartitionQuery queries the base table by PK and an SK prefix.
func PartitionQuery(pk, skPrefix string, filters ...Filter) Query {
	return Query{HashValue: pk, RangePrefix: skPrefix, Filters: filters}
}

// IndexQuery queries a secondary index by its hash value.
func IndexQuery(index, hashValue, rangePrefix string) Query {
	return Query{IndexName: index, HashValue: hashValue, RangePrefix: rangePrefix}
}

// KeyAttributes returns the hash and range attribute names the query uses.
func (q Query) KeyAttributes() (hash, rng string, err error) {
	if q.IndexName == "" {
		return AttrPK, AttrSK, nil
	}
	idx, ok := LookupIndex(q.IndexName)
	if !ok {
		return "", "", ErrUnknownIndex
	}
	return idx.HashAttr, idx.RangeAttr, nil
}

// Table is the storage contract of the content table. Reads that span many
// items return every page or an error; a partial result is never returned.
type Table interface {
	Get(ctx context.Context, key Key) (Item, error)
	Put(ctx context.Context, req PutRequest) error
	Delete(ctx context.Context, key Key) error
	Query(ctx context.Context, q Query) ([]Item, error)
	Scan(ctx context.Context, filters ...Filter) ([]Item, error)
	// TransactPut applies all puts or none.
	TransactPut(ctx context.Context, reqs ...PutRequest) error
	Ping(ctx context.Context) error
}

// StringAttr reads a string attribute.
func StringAttr(item Item, name string) (string, bool) {
	v, ok := item[name].(*types.AttributeValueMemberS)
	if !ok {
		return "", false
	}
	return v.Value, true
}

// NumberAttr reads a numeric attribute as int64.
func NumberAttr(item Item, name string) (int64, bool) {
	v, ok := item[name].(*types.AttributeValueMemberN)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(v.Value, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// MatchesFilters evaluates filters against an item.
func MatchesFilters(item Item, filters []Filter) bool {
	for _, f := range filters {
		v, ok := StringAttr(item, f.Attr)
		if !ok || v != f.Value {
			return false
		}
	}
	return true
}

// MatchesQuery reports whether item belongs to the result set of q, and
// returns its range key value for ordering.
func MatchesQuery(item Item, q Query) (string, bool) {
	hashAttr, rangeAttr, err := q.KeyAttributes()
	if err != nil {
		return "", false
	}
	if h, ok := StringAttr(item, hashAttr); !ok || h != q.HashValue {
		return "", false
	}

	var rng string
	if rangeAttr != "" {
		var ok bool
		if rng, ok = StringAttr(item, rangeAttr); !ok {
			return "", false
		}
		if !strings.HasPrefix(rng, q.RangePrefix) {
			return "", false
		}
	}
	if !MatchesFilters(item, q.Filters) {
		return "", false
	}
	return rng, true
}

// SortByRange orders items by the given range values, keeping the input order
// for equal values. ranges[i] belongs to items[i].
func SortByRange(items []Item, ranges []string) {
	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return ranges[idx[a]] < ranges[idx[b]]
	})

	sorted := make([]Item, len(items))
	for i, j := range idx {
		sorted[i] = items[j]
	}
	copy(items, sorted)
}
