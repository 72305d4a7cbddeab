// Package badgerstore is an embedded implementation of the content table on
// BadgerDB. It backs local development without DynamoDB and the store tests,
// where it runs in in-memory mode.
package badgerstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"learnboard/infrastructure/persistence/table"
)

// Options configures the embedded table.
type Options struct {
	// Path of the database directory. Empty means in-memory.
	Path string
	// InMemory forces in-memory mode even if Path is set.
	InMemory bool
}

// Table implements table.Table on BadgerDB.
type Table struct {
	db     *badger.DB
	logger *zap.Logger
}

var _ table.Table = (*Table)(nil)

// Open opens (or creates) the embedded table.
func Open(opts Options, logger *zap.Logger) (*Table, error) {
	badgerOpts := badger.DefaultOptions(opts.Path).WithLogger(nil)
	if opts.Path == "" || opts.InMemory {
		badgerOpts = badgerOpts.WithInMemory(true)
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}

	logger.Info("Embedded table opened",
		zap.String("path", opts.Path),
		zap.Bool("inMemory", badgerOpts.InMemory),
	)

	return &Table{db: db, logger: logger}, nil
}

// Close releases the database.
func (t *Table) Close() error {
	return t.db.Close()
}

// Get returns the item stored under key.
func (t *Table) Get(ctx context.Context, key table.Key) (table.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var item table.Item
	err := t.db.View(func(txn *badger.Txn) error {
		var err error
		item, err = readItem(txn, encodeKey(key))
		return err
	})
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, table.ErrNotFound
	}
	return item, nil
}

// Put writes a full item, honoring its condition.
func (t *Table) Put(ctx context.Context, req table.PutRequest) error {
	return t.TransactPut(ctx, req)
}

// TransactPut writes all items in one Badger transaction.
func (t *Table) TransactPut(ctx context.Context, reqs ...table.PutRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := t.db.Update(func(txn *badger.Txn) error {
		for _, req := range reqs {
			key, ok := table.KeyOf(req.Item)
			if !ok {
				return fmt.Errorf("item is missing %s/%s", table.AttrPK, table.AttrSK)
			}
			encoded := encodeKey(key)

			if req.Conditional() {
				existing, err := readItem(txn, encoded)
				if err != nil {
					return err
				}
				if !conditionHolds(existing, req) {
					return table.ErrConditionFailed
				}
			}

			data, err := marshalItem(req.Item)
			if err != nil {
				return err
			}
			if err := txn.Set(encoded, data); err != nil {
				return fmt.Errorf("set item: %w", err)
			}
		}
		return nil
	})
	if errors.Is(err, badger.ErrConflict) {
		// A concurrent transaction changed an item this one checked.
		return table.ErrConditionFailed
	}
	return err
}

func conditionHolds(existing table.Item, req table.PutRequest) bool {
	if req.IfNotExists {
		return existing == nil
	}
	if existing == nil {
		return false
	}
	_, versioned := existing[table.AttrVersion]
	if req.IfUnversioned {
		return !versioned
	}
	version, _ := table.NumberAttr(existing, table.AttrVersion)
	return versioned && version == *req.IfVersion
}

// Delete removes the item under key. Deleting a missing item is not an error.
func (t *Table) Delete(ctx context.Context, key table.Key) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(encodeKey(key))
	})
}

// Query answers base-table queries with a prefix iteration and index queries
// by evaluating the index key attributes of every item.
func (t *Table) Query(ctx context.Context, q table.Query) ([]table.Item, error) {
	if _, _, err := q.KeyAttributes(); err != nil {
		return nil, fmt.Errorf("%w: %s", err, q.IndexName)
	}

	if q.IndexName == "" {
		var items []table.Item
		err := t.iterate(ctx, partitionPrefix(q.HashValue, q.RangePrefix), func(item table.Item) {
			if table.MatchesFilters(item, q.Filters) {
				items = append(items, item)
			}
		})
		return items, err
	}

	var (
		items  []table.Item
		ranges []string
	)
	err := t.iterate(ctx, []byte(itemPrefix), func(item table.Item) {
		if rng, ok := table.MatchesQuery(item, q); ok {
			items = append(items, item)
			ranges = append(ranges, rng)
		}
	})
	if err != nil {
		return nil, err
	}
	table.SortByRange(items, ranges)
	return items, nil
}

// Scan returns every item matching the filters.
func (t *Table) Scan(ctx context.Context, filters ...table.Filter) ([]table.Item, error) {
	var items []table.Item
	err := t.iterate(ctx, []byte(itemPrefix), func(item table.Item) {
		if table.MatchesFilters(item, filters) {
			items = append(items, item)
		}
	})
	return items, err
}

// Ping reports whether the database is open.
func (t *Table) Ping(ctx context.Context) error {
	if t.db.IsClosed() {
		return errors.New("badger db is closed")
	}
	return ctx.Err()
}

func (t *Table) iterate(ctx context.Context, prefix []byte, fn func(table.Item)) error {
	return t.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var item table.Item
			err := it.Item().Value(func(val []byte) error {
				var err error
				item, err = unmarshalItem(val)
				return err
			})
			if err != nil {
				return fmt.Errorf("read %q: %w", bytes.TrimPrefix(it.Item().Key(), []byte(itemPrefix)), err)
			}
			fn(item)
		}
		return nil
	})
}

func readItem(txn *badger.Txn, key []byte) (table.Item, error) {
	entry, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}

	var item table.Item
	err = entry.Value(func(val []byte) error {
		var err error
		item, err = unmarshalItem(val)
		return err
	})
	return item, err
}
