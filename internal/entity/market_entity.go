package entity

import (
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// EntityType classifies what a market entity is.
type EntityType string

const (
	EntityTypeCompany     EntityType = "COMPANY"
	EntityTypeCommodity   EntityType = "COMMODITY"
	EntityTypeCountry     EntityType = "COUNTRY"
	EntityTypeSector      EntityType = "SECTOR"
	EntityTypePerson      EntityType = "PERSON"
	EntityTypeProduct     EntityType = "PRODUCT"
	EntityTypeLegislation EntityType = "LEGISLATION"
	EntityTypeCrypto      EntityType = "CRYPTO"
)

var validEntityTypes = map[EntityType]struct{}{
	EntityTypeCompany: {}, EntityTypeCommodity: {}, EntityTypeCountry: {},
	EntityTypeSector: {}, EntityTypePerson: {}, EntityTypeProduct: {},
	EntityTypeLegislation: {}, EntityTypeCrypto: {},
}

// ParseEntityType clamps a free-form entity type, defaulting to COMPANY.
func ParseEntityType(s string) EntityType {
	t := EntityType(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := validEntityTypes[t]; ok {
		return t
	}
	return EntityTypeCompany
}

// MarketEntity is anything sentiment can attach to. Unique on (name, type),
// upserted on every extraction, never deleted.
type MarketEntity struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Name           string         `gorm:"uniqueIndex:idx_entity_name_type;not null" json:"name"`
	EntityType     EntityType     `gorm:"uniqueIndex:idx_entity_name_type;not null" json:"entity_type"`
	Ticker         string         `json:"ticker,omitempty"`
	RelatedTickers pq.StringArray `gorm:"type:text[]" json:"related_tickers"`
	Metadata       datatypes.JSON `gorm:"type:jsonb" json:"metadata"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the MarketEntity model.
func (MarketEntity) TableName() string {
	return "market_entities"
}
