// Package store holds the typed repositories of the content table. Raw items
// are decoded into private structs and converted to domain entities at this
// boundary; nothing above it sees attribute maps or key strings.
package store

import (
	"context"
	"errors"
	"slices"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"golang.org/x/sync/errgroup"

	"learnboard/domain/core/entities"
	"learnboard/infrastructure/persistence/keys"
	"learnboard/infrastructure/persistence/table"
	apperrors "learnboard/pkg/errors"
)

// translationConcurrency bounds parallel translation lookups per listing.
const translationConcurrency = 8

// storeError maps driver errors onto the application error vocabulary.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	if apperrors.IsAppError(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return apperrors.NewStoreUnavailableError(op, err)
}

// invalidID turns a key validation failure into a validation error.
func invalidID(err error) error {
	return apperrors.NewValidationError(err.Error()).WithCause(err)
}

func validateIDs(ids ...string) error {
	if err := keys.ValidateIDs(ids...); err != nil {
		return invalidID(err)
	}
	return nil
}

// getItem loads one item and decodes it into out.
func getItem(ctx context.Context, t table.Table, key table.Key, resource string, out interface{}) error {
	item, err := t.Get(ctx, key)
	if errors.Is(err, table.ErrNotFound) {
		return apperrors.NewNotFoundError(resource)
	}
	if err != nil {
		return storeError("Get", err)
	}
	if err := attributevalue.UnmarshalMap(item, out); err != nil {
		return apperrors.NewDatabaseError("decode "+resource, err)
	}
	return nil
}

// putItem encodes in and writes it unconditionally.
func putItem(ctx context.Context, t table.Table, in interface{}) error {
	av, err := attributevalue.MarshalMap(in)
	if err != nil {
		return apperrors.NewInternalError("failed to encode item").WithCause(err)
	}
	return storeError("Put", t.Put(ctx, table.PutRequest{Item: av}))
}

// decodeAll converts raw items with conv, preserving order.
func decodeAll[I any, E any](items []table.Item, conv func(I) E) ([]E, error) {
	out := make([]E, 0, len(items))
	for _, raw := range items {
		var it I
		if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
			return nil, apperrors.NewDatabaseError("decode item", err)
		}
		out = append(out, conv(it))
	}
	return out, nil
}

// publishedOnly drops unpublished entities when requested.
func publishedOnly[E any](list []E, enabled bool, published func(E) bool) []E {
	if !enabled {
		return list
	}
	return slices.DeleteFunc(list, func(e E) bool { return !published(e) })
}

// sortByPosition orders by the sort key ascending, keeping read order on ties.
func sortByPosition[E any](list []E, key func(E) int) {
	slices.SortStableFunc(list, func(a, b E) int { return key(a) - key(b) })
}

// attachTranslations resolves the translation of every entity concurrently.
func attachTranslations[E any](ctx context.Context, r *TranslationResolver, kind entities.ContentKind, language string, list []E, id func(E) string, set func(E, *entities.Translation)) error {
	if language == "" || len(list) == 0 {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(translationConcurrency)
	for _, e := range list {
		g.Go(func() error {
			tr, err := r.Resolve(ctx, kind, id(e), language)
			if err != nil {
				return err
			}
			set(e, tr)
			return nil
		})
	}
	return g.Wait()
}
