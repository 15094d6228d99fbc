package entity

import (
	"strings"
	"time"
)

// Urgency is the filter stage's triage level for a relevant post.
type Urgency string

const (
	UrgencyHigh   Urgency = "HIGH"
	UrgencyMedium Urgency = "MEDIUM"
	UrgencyLow    Urgency = "LOW"
)

// ParseUrgency clamps a free-form urgency value to the closed enum,
// defaulting to LOW on anything unrecognized.
func ParseUrgency(s string) Urgency {
	switch Urgency(strings.ToUpper(strings.TrimSpace(s))) {
	case UrgencyHigh:
		return UrgencyHigh
	case UrgencyMedium:
		return UrgencyMedium
	case UrgencyLow:
		return UrgencyLow
	default:
		return UrgencyLow
	}
}

// Category is the closed topic set the filter stage assigns.
type Category string

const (
	CategoryEarnings          Category = "earnings"
	CategoryGuidance          Category = "guidance"
	CategoryMergerAcquisition Category = "merger_acquisition"
	CategoryRegulatory        Category = "regulatory"
	CategoryLegal             Category = "legal"
	CategoryProductLaunch     Category = "product_launch"
	CategorySupplyChain       Category = "supply_chain"
	CategoryManagementChange  Category = "management_change"
	CategoryAnalystAction     Category = "analyst_action"
	CategoryInsiderActivity   Category = "insider_activity"
	CategoryMacro             Category = "macro"
	CategoryGeopolitical      Category = "geopolitical"
	CategoryCommodity         Category = "commodity"
	CategoryDividendBuyback   Category = "dividend_buyback"
	CategoryShortInterest     Category = "short_interest"
	CategoryPartnership       Category = "partnership"
	CategoryLabor             Category = "labor"
	CategoryTechnology        Category = "technology"
	CategoryRumor             Category = "rumor"
	CategoryOther             Category = "other"
)

var validCategories = map[Category]struct{}{
	CategoryEarnings: {}, CategoryGuidance: {}, CategoryMergerAcquisition: {},
	CategoryRegulatory: {}, CategoryLegal: {}, CategoryProductLaunch: {},
	CategorySupplyChain: {}, CategoryManagementChange: {}, CategoryAnalystAction: {},
	CategoryInsiderActivity: {}, CategoryMacro: {}, CategoryGeopolitical: {},
	CategoryCommodity: {}, CategoryDividendBuyback: {}, CategoryShortInterest: {},
	CategoryPartnership: {}, CategoryLabor: {}, CategoryTechnology: {},
	CategoryRumor: {}, CategoryOther: {},
}

// ParseCategory clamps a free-form category to the closed set, defaulting to
// the most generic value on anything unrecognized.
func ParseCategory(s string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := validCategories[c]; ok {
		return c
	}
	return CategoryOther
}

// FilteredPost is a raw post that survived relevance filtering and awaits deep
// analysis. Analyzed transitions false to true exactly once, never back.
type FilteredPost struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	RawPostID      uint      `gorm:"not null" json:"raw_post_id"`
	RawPost        *RawPost  `gorm:"foreignKey:RawPostID" json:"raw_post,omitempty"`
	RelevanceScore float64   `gorm:"not null" json:"relevance_score"`
	Urgency        Urgency   `gorm:"not null" json:"urgency"`
	Category       Category  `gorm:"not null" json:"category"`
	Reasoning      string    `json:"reasoning"`
	FilteredAt     time.Time `json:"filtered_at"`
	Analyzed       bool      `gorm:"default:false" json:"analyzed"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for the FilteredPost model.
func (FilteredPost) TableName() string {
	return "filtered_posts"
}
