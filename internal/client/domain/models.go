// Package domain contains the client records invoices are billed to.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Client is a billable customer of the business.
type Client struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	Name      string            `gorm:"not null" json:"name"`
	Email     string            `gorm:"not null;index" json:"email"`
	Phone     string            `gorm:"type:text" json:"phone,omitempty"`
	Address   string            `gorm:"type:text" json:"address,omitempty"`
	GSTIN     string            `gorm:"column:gstin;type:text" json:"gstin,omitempty"`
	StateCode string            `gorm:"type:text" json:"state_code,omitempty"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Client) TableName() string { return "clients" }
