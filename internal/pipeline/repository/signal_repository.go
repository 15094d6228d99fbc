package repository

import (
	"context"
	"time"

	"golang-market-intel/internal/entity"

	"gorm.io/gorm"
)

// SignalRepository defines the interface for persisted trading signals.
type SignalRepository interface {
	Create(ctx context.Context, signal *entity.Signal) error
	FindActive(ctx context.Context, now time.Time) ([]entity.Signal, error)
}

// NewSignalRepository creates a new instance of SignalRepository.
func NewSignalRepository(db *gorm.DB) SignalRepository {
	return &signalRepository{db: db}
}

type signalRepository struct {
	db *gorm.DB
}

func (r *signalRepository) Create(ctx context.Context, signal *entity.Signal) error {
	return r.db.WithContext(ctx).Create(signal).Error
}

func (r *signalRepository) FindActive(ctx context.Context, now time.Time) ([]entity.Signal, error) {
	var signals []entity.Signal
	err := r.db.WithContext(ctx).
		Where("expires_at > ?", now).
		Order("created_at DESC").
		Find(&signals).Error
	return signals, err
}
