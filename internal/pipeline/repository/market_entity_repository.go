package repository

import (
	"context"

	"golang-market-intel/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MarketEntityRepository defines the interface for market entities. Uniqueness
// on (name, type) makes Upsert idempotent; entities are never deleted.
type MarketEntityRepository interface {
	// Upsert inserts the entity or refreshes its instrument data on conflict,
	// and fills in the persisted ID either way.
	Upsert(ctx context.Context, e *entity.MarketEntity) error
	FindByNameAndType(ctx context.Context, name string, entityType entity.EntityType) (*entity.MarketEntity, error)
}

// NewMarketEntityRepository creates a new instance of MarketEntityRepository.
func NewMarketEntityRepository(db *gorm.DB) MarketEntityRepository {
	return &marketEntityRepository{db: db}
}

type marketEntityRepository struct {
	db *gorm.DB
}

func (r *marketEntityRepository) Upsert(ctx context.Context, e *entity.MarketEntity) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}, {Name: "entity_type"}},
		DoUpdates: clause.AssignmentColumns([]string{"ticker", "related_tickers", "metadata", "updated_at"}),
	}).Create(e).Error
	if err != nil {
		return err
	}

	// On conflict gorm does not reliably backfill the existing row's ID.
	if e.ID == 0 {
		var existing entity.MarketEntity
		if err := r.db.WithContext(ctx).
			Where("name = ? AND entity_type = ?", e.Name, e.EntityType).
			First(&existing).Error; err != nil {
			return err
		}
		e.ID = existing.ID
	}
	return nil
}

func (r *marketEntityRepository) FindByNameAndType(ctx context.Context, name string, entityType entity.EntityType) (*entity.MarketEntity, error) {
	var e entity.MarketEntity
	err := r.db.WithContext(ctx).
		Where("name = ? AND entity_type = ?", name, entityType).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}
