package repository

import (
	"context"
	"errors"

	"github.com/gfconnector/billing-console/internal/model"
	"github.com/gfconnector/billing-console/pkg/pg"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrDuplicateUsername = errors.New("username already exists")

type UserRepository struct {
	*pg.DB
}

func NewUserRepository(db *pg.DB) *UserRepository {
	return &UserRepository{
		db,
	}
}

// Create inserts u unless the username is taken.
func (r *UserRepository) Create(ctx context.Context, u model.User) (model.User, error) {
	entity := toUserEntity(u)
	if entity.Role == "" {
		entity.Role = model.RoleUser
	}
	err := r.WithinTransaction(ctx, func(ctx context.Context) error {
		var existing UserEntity
		err := r.Write(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("username = ?", entity.Username).
			First(&existing).
			Error
		if err == nil {
			return ErrDuplicateUsername
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return r.Write(ctx).Create(entity).Error
	})
	if err != nil {
		return model.User{}, err
	}
	return toUserModel(entity), nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (model.User, error) {
	var entity UserEntity
	err := r.Read(ctx).Where("username = ?", username).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, err
	}
	return toUserModel(&entity), nil
}
