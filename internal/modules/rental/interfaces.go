package rental

import (
	"context"
	"time"

	"rentaldesk/internal/domain"

	"gorm.io/gorm"
)

// AvailabilityChecker re-validates booking intervals inside the caller's
// transaction. The mobilization transition uses it to confirm that every
// assigned equipment is still free, excluding the rental being mobilized.
type AvailabilityChecker interface {
	FindConflictTx(ctx context.Context, tx *gorm.DB, equipmentID int64, start, end time.Time, excludeRentalID int64) (*domain.ConflictError, error)
}

// EquipmentAssigner books equipment onto a rental through the assignment
// manager, which owns the equipment-scoped lock.
type EquipmentAssigner interface {
	Assign(ctx context.Context, spec domain.AssignmentSpec) (*domain.RentalItem, error)
}

// EquipmentSynchronizer recomputes the operational status of every equipment
// assigned to a rental, inside the caller's transaction. Returned changes are
// dispatched as notifications after commit.
type EquipmentSynchronizer interface {
	SyncRentalTx(ctx context.Context, tx *gorm.DB, rental *domain.Rental) ([]domain.EquipmentStatusChange, error)
}

// NotificationSender delivers status events to the notification collaborator.
// Delivery failures are logged and swallowed, never propagated.
type NotificationSender interface {
	NotifyRentalStatusChanged(ctx context.Context, rental *domain.Rental, previous domain.RentalStatus) error
	NotifyEquipmentStatusChanged(ctx context.Context, change domain.EquipmentStatusChange) error
}
