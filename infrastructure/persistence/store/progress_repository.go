package store

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"go.uber.org/zap"

	"learnboard/application/ports"
	"learnboard/domain/core/entities"
	"learnboard/infrastructure/persistence/keys"
	"learnboard/infrastructure/persistence/table"
	apperrors "learnboard/pkg/errors"
	"learnboard/pkg/utils"
)

// ProgressRepository implements ports.ProgressRepository. Records live in
// the user's partition and carry a denormalized level_id for level scoping.
type ProgressRepository struct {
	table  table.Table
	logger *zap.Logger
}

var _ ports.ProgressRepository = (*ProgressRepository)(nil)

// NewProgressRepository creates a new ProgressRepository
func NewProgressRepository(t table.Table, logger *zap.Logger) *ProgressRepository {
	return &ProgressRepository{table: t, logger: logger}
}

// Get loads the record of one (user, exercise) pair.
func (r *ProgressRepository) Get(ctx context.Context, userID, exerciseID string) (*entities.ProgressRecord, error) {
	if err := validateIDs(userID, exerciseID); err != nil {
		return nil, err
	}
	var it progressItem
	if err := getItem(ctx, r.table, keys.Progress(userID, exerciseID), "Progress", &it); err != nil {
		return nil, err
	}
	return it.toEntity(), nil
}

// Save writes the full record conditioned on the version that was read. A
// record stored without a version is claimed by the first writer that
// stamps one.
func (r *ProgressRepository) Save(ctx context.Context, rec *entities.ProgressRecord) error {
	if err := validateIDs(rec.UserID, rec.ExerciseID, rec.LevelID); err != nil {
		return err
	}

	next := rec.Version + 1
	key := keys.Progress(rec.UserID, rec.ExerciseID)
	av, err := attributevalue.MarshalMap(progressItem{
		PK:            key.PK,
		SK:            key.SK,
		EntityType:    entityProgress,
		UserID:        rec.UserID,
		ExerciseID:    rec.ExerciseID,
		LevelID:       rec.LevelID,
		Status:        string(rec.Status),
		Attempts:      rec.Attempts,
		Score:         formatOptionalFloat(rec.Score),
		BestScore:     formatOptionalFloat(rec.BestScore),
		Data:          rec.Data,
		CreatedAt:     utils.FormatTimestamp(rec.CreatedAt),
		UpdatedAt:     utils.FormatTimestamp(rec.UpdatedAt),
		LastAttemptAt: utils.FormatTimestamp(rec.LastAttemptAt),
		Version:       aws.Int64(next),
	})
	if err != nil {
		return apperrors.NewInternalError("failed to encode progress").WithCause(err)
	}

	req := table.PutRequest{Item: av}
	switch {
	case rec.Unversioned:
		req.IfUnversioned = true
	case rec.Version == 0:
		req.IfNotExists = true
	default:
		expected := rec.Version
		req.IfVersion = &expected
	}

	err = r.table.Put(ctx, req)
	if errors.Is(err, table.ErrConditionFailed) {
		return ports.ErrVersionConflict
	}
	if err != nil {
		return storeError("Put", err)
	}
	rec.Version = next
	rec.Unversioned = false
	return nil
}

// ListByUser returns every record of a user.
func (r *ProgressRepository) ListByUser(ctx context.Context, userID string) ([]*entities.ProgressRecord, error) {
	if err := validateIDs(userID); err != nil {
		return nil, err
	}
	return r.query(ctx, table.PartitionQuery(keys.UserPK(userID), keys.ProgressPrefix))
}

// ListByUserLevel returns the records of a user within one level.
func (r *ProgressRepository) ListByUserLevel(ctx context.Context, userID, levelID string) ([]*entities.ProgressRecord, error) {
	if err := validateIDs(userID, levelID); err != nil {
		return nil, err
	}
	return r.query(ctx, table.PartitionQuery(keys.UserPK(userID), keys.ProgressPrefix, table.Eq(table.AttrLevelID, levelID)))
}

// ListAll scans every progress record in the table.
func (r *ProgressRepository) ListAll(ctx context.Context) ([]*entities.ProgressRecord, error) {
	return r.scan(ctx, table.Eq(table.AttrEntityType, entityProgress))
}

// ListByLevel scans the progress records of one level. Exercises and level
// translations also carry level_id, so the entity type is filtered too.
func (r *ProgressRepository) ListByLevel(ctx context.Context, levelID string) ([]*entities.ProgressRecord, error) {
	if err := validateIDs(levelID); err != nil {
		return nil, err
	}
	return r.scan(ctx, table.Eq(table.AttrEntityType, entityProgress), table.Eq(table.AttrLevelID, levelID))
}

func (r *ProgressRepository) query(ctx context.Context, q table.Query) ([]*entities.ProgressRecord, error) {
	items, err := r.table.Query(ctx, q)
	if err != nil {
		return nil, storeError("Query", err)
	}
	return decodeAll(items, progressItem.toEntity)
}

func (r *ProgressRepository) scan(ctx context.Context, filters ...table.Filter) ([]*entities.ProgressRecord, error) {
	items, err := r.table.Scan(ctx, filters...)
	if err != nil {
		return nil, storeError("Scan", err)
	}
	r.logger.Debug("Progress scan completed", zap.Int("records", len(items)))
	return decodeAll(items, progressItem.toEntity)
}
