package repository

import (
	"context"
	"errors"

	"github.com/gfconnector/billing-console/internal/model"
	"github.com/gfconnector/billing-console/pkg/pg"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BillingSettingsRepository struct {
	*pg.DB
}

func NewBillingSettingsRepository(db *pg.DB) *BillingSettingsRepository {
	return &BillingSettingsRepository{
		db,
	}
}

func (r *BillingSettingsRepository) Active(ctx context.Context) (model.BillingSettings, error) {
	var entity BillingSettingsEntity
	err := r.Read(ctx).Where("activo = ?", true).Order("updated_at DESC").First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.BillingSettings{}, ErrNotFound
		}
		return model.BillingSettings{}, err
	}
	return toBillingSettingsModel(&entity), nil
}

func (r *BillingSettingsRepository) Get(ctx context.Context, id string) (model.BillingSettings, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return model.BillingSettings{}, ErrNotFound
	}
	var entity BillingSettingsEntity
	if err := r.Read(ctx).Where("id = ?", uid).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.BillingSettings{}, ErrNotFound
		}
		return model.BillingSettings{}, err
	}
	return toBillingSettingsModel(&entity), nil
}

func (r *BillingSettingsRepository) List(ctx context.Context) ([]model.BillingSettings, error) {
	var entities []*BillingSettingsEntity
	if err := r.Read(ctx).Order("created_at DESC").Find(&entities).Error; err != nil {
		return nil, err
	}
	out := make([]model.BillingSettings, len(entities))
	for i, e := range entities {
		out[i] = toBillingSettingsModel(e)
	}
	return out, nil
}

// Create stores s. When s is active every other row is deactivated in the same transaction.
func (r *BillingSettingsRepository) Create(ctx context.Context, s model.BillingSettings) (model.BillingSettings, error) {
	entity := toBillingSettingsEntity(s)
	entity.ID = uuid.Nil
	err := r.WithinTransaction(ctx, func(ctx context.Context) error {
		if entity.Activo {
			if err := r.deactivateAll(ctx); err != nil {
				return err
			}
		}
		return r.Write(ctx).Create(entity).Error
	})
	if err != nil {
		return model.BillingSettings{}, err
	}
	return toBillingSettingsModel(entity), nil
}

func (r *BillingSettingsRepository) Update(ctx context.Context, s model.BillingSettings) (model.BillingSettings, error) {
	current, err := r.Get(ctx, s.ID)
	if err != nil {
		return model.BillingSettings{}, err
	}
	entity := toBillingSettingsEntity(s)
	entity.CreatedAt = current.CreatedAt
	err = r.WithinTransaction(ctx, func(ctx context.Context) error {
		if entity.Activo && !current.Activo {
			if err := r.deactivateAll(ctx); err != nil {
				return err
			}
		}
		return r.Write(ctx).Save(entity).Error
	})
	if err != nil {
		return model.BillingSettings{}, err
	}
	return toBillingSettingsModel(entity), nil
}

// Activate makes id the only active settings row.
func (r *BillingSettingsRepository) Activate(ctx context.Context, id string) (model.BillingSettings, error) {
	if _, err := r.Get(ctx, id); err != nil {
		return model.BillingSettings{}, err
	}
	err := r.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := r.deactivateAll(ctx); err != nil {
			return err
		}
		return r.Write(ctx).Model(&BillingSettingsEntity{}).
			Where("id = ?", uuid.MustParse(id)).
			Update("activo", true).
			Error
	})
	if err != nil {
		return model.BillingSettings{}, err
	}
	return r.Get(ctx, id)
}

func (r *BillingSettingsRepository) deactivateAll(ctx context.Context) error {
	return r.Write(ctx).Model(&BillingSettingsEntity{}).
		Where("activo = ?", true).
		Update("activo", false).
		Error
}
