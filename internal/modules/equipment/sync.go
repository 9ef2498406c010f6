package equipment

import (
	"context"
	"errors"
	"time"

	"rentaldesk/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Synchronizer is the sole writer of equipment operational status driven by
// rental state. It is stateless: every method works inside the caller's
// transaction, so equipment status commits or rolls back together with the
// rental change that caused it.
type Synchronizer struct{}

func NewSynchronizer() *Synchronizer {
	return &Synchronizer{}
}

// SyncRentalTx recomputes the status of every equipment assigned to the
// rental. Returned changes let the caller emit notifications after commit.
func (s *Synchronizer) SyncRentalTx(ctx context.Context, tx *gorm.DB, rental *domain.Rental) ([]domain.EquipmentStatusChange, error) {
	var changes []domain.EquipmentStatusChange
	seen := make(map[int64]bool, len(rental.Items))

	for i := range rental.Items {
		id := rental.Items[i].EquipmentID
		if seen[id] {
			continue
		}
		seen[id] = true

		change, err := s.SyncEquipmentTx(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		if change != nil {
			changes = append(changes, *change)
		}
	}
	return changes, nil
}

// SyncEquipmentTx recomputes one equipment's status: rented when any rental
// in an engaged status (mobilization, active) has a booking interval
// covering now, otherwise available. Operator-controlled statuses
// (under_maintenance, out_of_service, retired) take precedence and are never
// overwritten here.
func (s *Synchronizer) SyncEquipmentTx(ctx context.Context, tx *gorm.DB, equipmentID int64) (*domain.EquipmentStatusChange, error) {
	var equip domain.Equipment
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&equip, equipmentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if equip.Status.IsOperatorControlled() {
		return nil, nil
	}

	engaged, err := s.isEngagedNow(ctx, tx, equipmentID)
	if err != nil {
		return nil, err
	}

	desired := domain.EquipmentAvailable
	if engaged {
		desired = domain.EquipmentRented
	}
	if desired == equip.Status {
		return nil, nil
	}

	err = tx.WithContext(ctx).Model(&domain.Equipment{}).
		Where("id = ?", equipmentID).
		Update("status", desired).Error
	if err != nil {
		return nil, err
	}

	return &domain.EquipmentStatusChange{
		EquipmentID: equipmentID,
		From:        equip.Status,
		To:          desired,
	}, nil
}

func (s *Synchronizer) isEngagedNow(ctx context.Context, tx *gorm.DB, equipmentID int64) (bool, error) {
	now := time.Now().UTC()

	var count int64
	err := tx.WithContext(ctx).
		Table("rental_items ri").
		Joins("JOIN rentals r ON r.id = ri.rental_id AND r.deleted_at IS NULL").
		Where("ri.equipment_id = ?", equipmentID).
		Where("r.status IN ?", domain.EngagedRentalStatuses).
		Where("ri.start_date <= ? AND ? < ri.end_date", now, now).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
