package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rakapradana/pustaka-backend/pkg/enums"
)

// AdminEvent is an append-only audit entry written alongside lifecycle changes.
type AdminEvent struct {
	ID          uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Type        enums.AdminEventType `gorm:"column:type;type:admin_event_type;not null;index"`
	Title       string               `gorm:"column:title;not null"`
	Description string               `gorm:"column:description;not null"`
	Metadata    json.RawMessage      `gorm:"column:metadata;type:jsonb"`
	CreatedAt   time.Time            `gorm:"column:created_at;autoCreateTime;index"`
}

// BeforeCreate assigns the id so inserts do not depend on a database default.
func (e *AdminEvent) BeforeCreate(_ *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
