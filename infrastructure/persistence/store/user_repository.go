package store

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"go.uber.org/zap"

	"learnboard/application/ports"
	"learnboard/domain/core/entities"
	"learnboard/infrastructure/persistence/keys"
	"learnboard/infrastructure/persistence/table"
	apperrors "learnboard/pkg/errors"
	"learnboard/pkg/utils"
)

// UserRepository implements ports.UserRepository on the content table.
type UserRepository struct {
	table  table.Table
	logger *zap.Logger
}

var _ ports.UserRepository = (*UserRepository)(nil)

// NewUserRepository creates a new UserRepository
func NewUserRepository(t table.Table, logger *zap.Logger) *UserRepository {
	return &UserRepository{table: t, logger: logger}
}

func newUserItem(u *entities.User) userItem {
	key := keys.User(u.ID)
	return userItem{
		PK:                 key.PK,
		SK:                 key.SK,
		EntityType:         entityUser,
		UserID:             u.ID,
		Email:              u.Email,
		Name:               u.Name,
		PasswordHash:       u.PasswordHash,
		Role:               string(u.Role),
		IsActive:           u.IsActive,
		LanguagePreference: u.LanguagePreference,
		CreatedAt:          utils.FormatTimestamp(u.CreatedAt),
		UpdatedAt:          utils.FormatTimestamp(u.UpdatedAt),
	}
}

// Create writes the user and its email claim in one transaction so that two
// concurrent registrations of the same address cannot both succeed. Users
// stored without a claim are found through the email index first.
func (r *UserRepository) Create(ctx context.Context, u *entities.User) error {
	if err := validateIDs(u.ID); err != nil {
		return err
	}
	u.Email = entities.NormalizeEmail(u.Email)
	if u.Email == "" {
		return apperrors.NewValidationError("email is required")
	}

	existing, err := r.GetByEmail(ctx, u.Email)
	switch {
	case err == nil:
		r.logger.Info("Registration rejected, email already in use",
			zap.String("userID", u.ID),
			zap.String("existingUserID", existing.ID),
		)
		return apperrors.NewConflictError("Email already registered")
	case !apperrors.IsNotFound(err):
		return err
	}

	userAV, err := attributevalue.MarshalMap(newUserItem(u))
	if err != nil {
		return apperrors.NewInternalError("failed to encode user").WithCause(err)
	}
	claimKey := keys.EmailClaim(u.Email)
	claimAV, err := attributevalue.MarshalMap(emailClaimItem{
		PK:         claimKey.PK,
		SK:         claimKey.SK,
		EntityType: entityEmailClaim,
		UserID:     u.ID,
		CreatedAt:  utils.FormatTimestamp(u.CreatedAt),
	})
	if err != nil {
		return apperrors.NewInternalError("failed to encode email claim").WithCause(err)
	}

	err = r.table.TransactPut(ctx,
		table.PutRequest{Item: userAV, IfNotExists: true},
		table.PutRequest{Item: claimAV, IfNotExists: true},
	)
	if errors.Is(err, table.ErrConditionFailed) {
		r.logger.Info("Registration rejected, email already claimed", zap.String("userID", u.ID))
		return apperrors.NewConflictError("Email already registered")
	}
	return storeError("TransactPut", err)
}

// Update overwrites an existing user item.
func (r *UserRepository) Update(ctx context.Context, u *entities.User) error {
	if err := validateIDs(u.ID); err != nil {
		return err
	}
	return putItem(ctx, r.table, newUserItem(u))
}

// GetByID loads a user by id.
func (r *UserRepository) GetByID(ctx context.Context, userID string) (*entities.User, error) {
	if err := validateIDs(userID); err != nil {
		return nil, err
	}
	var it userItem
	if err := getItem(ctx, r.table, keys.User(userID), "User", &it); err != nil {
		return nil, err
	}
	return it.toEntity(), nil
}

// GetByEmail looks a user up through the email index.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	email = entities.NormalizeEmail(email)
	if email == "" {
		return nil, apperrors.NewNotFoundError("User")
	}

	items, err := r.table.Query(ctx, table.IndexQuery(table.IndexEmail, email, ""))
	if err != nil {
		return nil, storeError("Query", err)
	}
	users, err := decodeAll(items, userItem.toEntity)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.ID != "" {
			return u, nil
		}
	}
	return nil, apperrors.NewNotFoundError("User")
}

// List returns every user in creation order.
func (r *UserRepository) List(ctx context.Context) ([]*entities.User, error) {
	items, err := r.table.Query(ctx, table.IndexQuery(table.IndexEntityType, entityUser, ""))
	if err != nil {
		return nil, storeError("Query", err)
	}
	return decodeAll(items, userItem.toEntity)
}
