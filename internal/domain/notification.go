package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification topics emitted by the rental engine.
const (
	TopicRentalStatusChanged    = "rental.status_changed"
	TopicEquipmentStatusChanged = "equipment.status_changed"
)

// Notification is a persisted copy of every event handed to the notification
// collaborator. Payload holds the event body as JSON.
type Notification struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Topic     string    `json:"topic" gorm:"type:varchar(64);not null;index"`
	Payload   string    `json:"payload" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (Notification) TableName() string { return "notifications" }

func (n *Notification) BeforeCreate(_ *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
