package entity

import (
	"time"

	"gorm.io/datatypes"
)

// RawPost is the audit record for every post the filter stage classifies,
// kept or killed. PostID is "{platform}_{sourceId}" and its unique constraint
// is the sole deduplication barrier in the system.
type RawPost struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	PostID      string         `gorm:"unique;not null" json:"post_id"`
	Platform    string         `gorm:"not null" json:"platform"`
	Author      string         `json:"author"`
	Content     string         `json:"content"`
	URL         string         `json:"url"`
	Metadata    datatypes.JSON `gorm:"type:jsonb" json:"metadata"`
	ScrapedAt   time.Time      `json:"scraped_at"`
	PublishedAt *time.Time     `json:"published_at,omitempty"`
	Processed   bool           `gorm:"default:false" json:"processed"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for the RawPost model.
func (RawPost) TableName() string {
	return "raw_posts"
}
