package booking

import (
	"context"

	"rentaldesk/internal/domain"

	"gorm.io/gorm"
)

// EquipmentSynchronizer recomputes one equipment's operational status inside
// the caller's transaction, returning the flip when one happened.
type EquipmentSynchronizer interface {
	SyncEquipmentTx(ctx context.Context, tx *gorm.DB, equipmentID int64) (*domain.EquipmentStatusChange, error)
}

// NotificationSender delivers equipment status events. Callers log and
// swallow delivery failures; they never affect the booking transaction.
type NotificationSender interface {
	NotifyEquipmentStatusChanged(ctx context.Context, change domain.EquipmentStatusChange) error
}
