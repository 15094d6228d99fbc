package repository

import (
	"context"
	"time"

	"golang-market-intel/internal/entity"

	"gorm.io/gorm"
)

// FilteredPostRepository defines the interface for filter-stage survivors.
type FilteredPostRepository interface {
	// FindUnanalyzed returns up to limit posts with analyzed=false, oldest
	// first, raw post preloaded.
	FindUnanalyzed(ctx context.Context, limit int) ([]entity.FilteredPost, error)
	// MarkAnalyzed flips analyzed false to true. The transition happens at
	// most once; an already-analyzed post is left untouched.
	MarkAnalyzed(ctx context.Context, id uint) error
	// FindSince returns all posts filtered after the cutoff, raw post
	// preloaded. Used by the synthesis window.
	FindSince(ctx context.Context, cutoff time.Time) ([]entity.FilteredPost, error)
}

// NewFilteredPostRepository creates a new instance of FilteredPostRepository.
func NewFilteredPostRepository(db *gorm.DB) FilteredPostRepository {
	return &filteredPostRepository{db: db}
}

type filteredPostRepository struct {
	db *gorm.DB
}

func (r *filteredPostRepository) FindUnanalyzed(ctx context.Context, limit int) ([]entity.FilteredPost, error) {
	var posts []entity.FilteredPost
	err := r.db.WithContext(ctx).
		Preload("RawPost").
		Where("analyzed = ?", false).
		Order("filtered_at ASC").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

func (r *filteredPostRepository) MarkAnalyzed(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&entity.FilteredPost{}).
		Where("id = ? AND analyzed = ?", id, false).
		Update("analyzed", true).Error
}

func (r *filteredPostRepository) FindSince(ctx context.Context, cutoff time.Time) ([]entity.FilteredPost, error) {
	var posts []entity.FilteredPost
	err := r.db.WithContext(ctx).
		Preload("RawPost").
		Where("filtered_at >= ?", cutoff).
		Order("filtered_at ASC").
		Find(&posts).Error
	return posts, err
}
