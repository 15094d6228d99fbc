package dto

import (
	"encoding/json"
	"fmt"
	"time"
)

// QueuedPost is the wire format every collector emits and the queue carries.
// ID is "{platform}_{sourceId}" and is the idempotency key consumed downstream.
type QueuedPost struct {
	ID                string          `json:"id"`
	Platform          string          `json:"platform"`
	Author            string          `json:"author"`
	Content           string          `json:"content"`
	URL               string          `json:"url"`
	RawMetadata       json.RawMessage `json:"rawMetadata,omitempty"`
	ScrapedAt         time.Time       `json:"scrapedAt"`
	SourcePublishedAt *time.Time      `json:"sourcePublishedAt,omitempty"`
}

// PostID builds the canonical idempotency key for a platform and source id.
func PostID(platform, sourceID string) string {
	return fmt.Sprintf("%s_%s", platform, sourceID)
}
