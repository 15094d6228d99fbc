package entity

import (
	"time"

	"gorm.io/datatypes"
)

// Signal is a tradeable thesis synthesized from cross-source evidence.
// Conviction below the floor is never persisted; the generator discards those
// candidates before they reach the repository.
type Signal struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	SignalType  string         `gorm:"not null" json:"signal_type"`
	Instruments datatypes.JSON `gorm:"type:jsonb" json:"instruments"`
	Direction   string         `gorm:"not null" json:"direction"`
	Conviction  float64        `gorm:"not null" json:"conviction"`
	TimeHorizon string         `json:"time_horizon"`
	Thesis      string         `json:"thesis"`
	Evidence    datatypes.JSON `gorm:"type:jsonb" json:"evidence"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	ExpiresAt   time.Time      `json:"expires_at"`
}

// TableName specifies the table name for the Signal model.
func (Signal) TableName() string {
	return "signals"
}
