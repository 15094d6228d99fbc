package entity

import (
	"time"

	"github.com/lib/pq"
)

// SentimentScore ties one analyzed post to one entity. Immutable once created.
// Sentiment is in [-1,1]; confidence and urgency are in [0,1].
type SentimentScore struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	FilteredPostID uint           `gorm:"not null" json:"filtered_post_id"`
	EntityID       uint           `gorm:"not null" json:"entity_id"`
	Sentiment      float64        `gorm:"not null" json:"sentiment"`
	Confidence     float64        `gorm:"not null" json:"confidence"`
	Urgency        float64        `json:"urgency"`
	Reasoning      string         `json:"reasoning"`
	Themes         pq.StringArray `gorm:"type:text[]" json:"themes"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for the SentimentScore model.
func (SentimentScore) TableName() string {
	return "sentiment_scores"
}
