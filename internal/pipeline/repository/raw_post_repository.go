package repository

import (
	"context"
	"fmt"

	"golang-market-intel/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RawPostRepository defines the interface for the filter stage's audit trail.
type RawPostRepository interface {
	// CreateIgnoreConflict inserts the post, silently succeeding if post_id
	// already exists. The unique constraint on post_id is the system's
	// deduplication barrier.
	CreateIgnoreConflict(ctx context.Context, rawPost *entity.RawPost) error
	// CreateWithFiltered inserts the raw post and, when filtered is non-nil,
	// its FilteredPost in the same transaction. A duplicate raw post skips the
	// filtered insert: the earlier submission already owns the survivor record.
	CreateWithFiltered(ctx context.Context, rawPost *entity.RawPost, filtered *entity.FilteredPost) error
	CountByPlatform(ctx context.Context, platform string) (int64, error)
}

// NewRawPostRepository creates a new instance of RawPostRepository.
func NewRawPostRepository(db *gorm.DB) RawPostRepository {
	return &rawPostRepository{db: db}
}

type rawPostRepository struct {
	db *gorm.DB
}

func (r *rawPostRepository) CreateIgnoreConflict(ctx context.Context, rawPost *entity.RawPost) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "post_id"}},
		DoNothing: true,
	}).Create(rawPost).Error
}

func (r *rawPostRepository) CreateWithFiltered(ctx context.Context, rawPost *entity.RawPost, filtered *entity.FilteredPost) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "post_id"}},
			DoNothing: true,
		}).Create(rawPost)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 || filtered == nil {
			return nil
		}

		filtered.RawPostID = rawPost.ID
		if err := tx.Create(filtered).Error; err != nil {
			return fmt.Errorf("insert filtered post error: %w", err)
		}
		return nil
	})
}

func (r *rawPostRepository) CountByPlatform(ctx context.Context, platform string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.RawPost{}).
		Where("platform = ?", platform).
		Count(&count).Error
	return count, err
}
