package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a tenant-scoped catalog entry. Version implements optimistic
// concurrency: updates must carry the version they read or fail with a
// conflict.
type Product struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	TenantID     uuid.UUID       `gorm:"column:tenant_id;type:uuid;not null;uniqueIndex:ux_products_tenant_sku" json:"tenant_id"`
	SKU          string          `gorm:"column:sku;not null;uniqueIndex:ux_products_tenant_sku" json:"sku"`
	Name         string          `gorm:"column:name;not null" json:"name"`
	Description  *string         `gorm:"column:description" json:"description,omitempty"`
	Unit         string          `gorm:"column:unit;not null;default:unit" json:"unit"`
	DefaultCost  decimal.Decimal `gorm:"column:default_cost;type:numeric(14,4);not null;default:0" json:"default_cost"`
	IsActive     bool            `gorm:"column:is_active;not null;default:true" json:"is_active"`
	Version      int             `gorm:"column:version;not null;default:1" json:"version"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
