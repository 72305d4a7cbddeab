package store

import (
	"context"
	"slices"
	"strings"

	"go.uber.org/zap"

	"learnboard/application/ports"
	"learnboard/domain/core/entities"
	"learnboard/infrastructure/persistence/keys"
	"learnboard/infrastructure/persistence/table"
	"learnboard/pkg/utils"
)

// LanguageRepository implements ports.LanguageRepository.
type LanguageRepository struct {
	table  table.Table
	logger *zap.Logger
}

var _ ports.LanguageRepository = (*LanguageRepository)(nil)

// NewLanguageRepository creates a new LanguageRepository
func NewLanguageRepository(t table.Table, logger *zap.Logger) *LanguageRepository {
	return &LanguageRepository{table: t, logger: logger}
}

func (r *LanguageRepository) Get(ctx context.Context, code string) (*entities.Language, error) {
	if err := validateIDs(code); err != nil {
		return nil, err
	}
	var it languageItem
	if err := getItem(ctx, r.table, keys.Language(code), "Language", &it); err != nil {
		return nil, err
	}
	return it.toEntity(), nil
}

func (r *LanguageRepository) Put(ctx context.Context, lang *entities.Language) error {
	if err := validateIDs(lang.Code); err != nil {
		return err
	}
	key := keys.Language(lang.Code)
	return putItem(ctx, r.table, languageItem{
		PK:         key.PK,
		SK:         key.SK,
		EntityType: entityLanguage,
		Code:       lang.Code,
		Name:       lang.Name,
		NativeName: lang.NativeName,
		IsActive:   lang.IsActive,
		CreatedAt:  utils.FormatTimestamp(lang.CreatedAt),
	})
}

// List returns languages ordered by code.
func (r *LanguageRepository) List(ctx context.Context, activeOnly bool) ([]*entities.Language, error) {
	items, err := r.table.Query(ctx, table.IndexQuery(table.IndexEntityType, entityLanguage, ""))
	if err != nil {
		return nil, storeError("Query", err)
	}
	langs, err := decodeAll(items, languageItem.toEntity)
	if err != nil {
		return nil, err
	}
	if activeOnly {
		langs = slices.DeleteFunc(langs, func(l *entities.Language) bool { return !l.IsActive })
	}
	slices.SortFunc(langs, func(a, b *entities.Language) int { return strings.Compare(a.Code, b.Code) })
	return langs, nil
}
