package repository

import (
	"context"

	"golang-market-intel/internal/entity"

	"gorm.io/gorm"
)

// SentimentScoreRepository defines the interface for per-entity sentiment
// scores. Scores are immutable once created.
type SentimentScoreRepository interface {
	Create(ctx context.Context, score *entity.SentimentScore) error
	FindByFilteredPostIDs(ctx context.Context, ids []uint) ([]entity.SentimentScore, error)
}

// NewSentimentScoreRepository creates a new instance of SentimentScoreRepository.
func NewSentimentScoreRepository(db *gorm.DB) SentimentScoreRepository {
	return &sentimentScoreRepository{db: db}
}

type sentimentScoreRepository struct {
	db *gorm.DB
}

func (r *sentimentScoreRepository) Create(ctx context.Context, score *entity.SentimentScore) error {
	return r.db.WithContext(ctx).Create(score).Error
}

func (r *sentimentScoreRepository) FindByFilteredPostIDs(ctx context.Context, ids []uint) ([]entity.SentimentScore, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var scores []entity.SentimentScore
	err := r.db.WithContext(ctx).
		Where("filtered_post_id IN ?", ids).
		Find(&scores).Error
	return scores, err
}
