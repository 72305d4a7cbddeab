package services

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"learnboard/application/ports"
	"learnboard/domain/core/entities"
	"learnboard/domain/events"
	"learnboard/infrastructure/persistence/badgerstore"
	"learnboard/infrastructure/persistence/store"
	"learnboard/infrastructure/persistence/table"
)

type repos struct {
	table        table.Table
	users        *store.UserRepository
	topics       *store.TopicRepository
	levels       *store.LevelRepository
	exercises    *store.ExerciseRepository
	translations *store.TranslationResolver
	progress     *store.ProgressRepository
	languages    *store.LanguageRepository
}

func newRepos(t *testing.T) *repos {
	t.Helper()
	tbl, err := badgerstore.Open(badgerstore.Options{InMemory: true}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = tbl.Close() })

	logger := zap.NewNop()
	tr := store.NewTranslationResolver(tbl, logger)
	return &repos{
		table:        tbl,
		users:        store.NewUserRepository(tbl, logger),
		topics:       store.NewTopicRepository(tbl, tr, logger),
		levels:       store.NewLevelRepository(tbl, tr, logger),
		exercises:    store.NewExerciseRepository(tbl, tr, logger),
		translations: tr,
		progress:     store.NewProgressRepository(tbl, logger),
		languages:    store.NewLanguageRepository(tbl, logger),
	}
}

func scorePtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

// memoryCache is a minimal ports.Cache for exercising the board cache.
type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]byte)}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.sets++
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memoryCache) Incr(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, _ := strconv.ParseInt(string(c.data[key]), 10, 64)
	n++
	c.data[key] = []byte(strconv.FormatInt(n, 10))
	return n, nil
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.DomainEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) PublishBatch(ctx context.Context, es []events.DomainEvent) error {
	for _, e := range es {
		if err := p.Publish(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// conflictingProgress loses every conditional write.
type conflictingProgress struct {
	ports.ProgressRepository
	saves int
}

func (p *conflictingProgress) Get(context.Context, string, string) (*entities.ProgressRecord, error) {
	return &entities.ProgressRecord{UserID: "u1", ExerciseID: "e1", LevelID: "l1", Attempts: 1, Version: 1}, nil
}

func (p *conflictingProgress) Save(context.Context, *entities.ProgressRecord) error {
	p.saves++
	return ports.ErrVersionConflict
}

// failingProgress fails every listing with err.
type failingProgress struct {
	ports.ProgressRepository
	err error
}

func (p *failingProgress) ListAll(context.Context) ([]*entities.ProgressRecord, error) {
	return nil, p.err
}

func (p *failingProgress) ListByLevel(context.Context, string) ([]*entities.ProgressRecord, error) {
	return nil, p.err
}
