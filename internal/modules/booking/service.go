package booking

import (
	"context"
	"errors"
	"log"
	"time"

	"rentaldesk/internal/domain"
	"rentaldesk/internal/pkg/keylock"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultLockWait bounds how long an assignment waits for the equipment lock
// before giving up with a conflict.
const DefaultLockWait = 5 * time.Second

type Service struct {
	db       *gorm.DB
	locks    *keylock.KeyedMutex
	sync     EquipmentSynchronizer
	notifs   NotificationSender
	lockWait time.Duration
}

func NewService(db *gorm.DB, sync EquipmentSynchronizer, notifs NotificationSender, lockWait time.Duration) *Service {
	if lockWait <= 0 {
		lockWait = DefaultLockWait
	}
	return &Service{
		db:       db,
		locks:    keylock.New(),
		sync:     sync,
		notifs:   notifs,
		lockWait: lockWait,
	}
}

// CheckAvailability reports whether the equipment is free of overlapping,
// non-cancelled bookings over [start, end). excludeRentalID skips one
// rental's own intervals when re-checking an existing rental; pass 0 to
// exclude nothing. Pure read, no locks taken.
func (s *Service) CheckAvailability(ctx context.Context, equipmentID int64, start, end time.Time, excludeRentalID int64) (bool, error) {
	if !start.Before(end) {
		return false, ErrInvalidRange
	}

	var equip domain.Equipment
	if err := s.db.WithContext(ctx).First(&equip, equipmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrEquipmentNotFound
		}
		return false, err
	}

	conflict, err := s.FindConflictTx(ctx, s.db, equipmentID, start, end, excludeRentalID)
	if err != nil {
		return false, err
	}
	return conflict == nil, nil
}

type conflictRow struct {
	RentalID  int64     `gorm:"column:rental_id"`
	StartDate time.Time `gorm:"column:start_date"`
	EndDate   time.Time `gorm:"column:end_date"`
}

// FindConflictTx returns the earliest booking interval on the equipment that
// overlaps [start, end), or nil when none exists. Intervals of cancelled,
// rejected, completed and soft-deleted rentals do not count. Touching
// intervals (one ends exactly when the other starts) are not conflicts.
func (s *Service) FindConflictTx(ctx context.Context, tx *gorm.DB, equipmentID int64, start, end time.Time, excludeRentalID int64) (*domain.ConflictError, error) {
	q := `
SELECT ri.rental_id, ri.start_date, ri.end_date
FROM rental_items ri
JOIN rentals r ON r.id = ri.rental_id AND r.deleted_at IS NULL
WHERE ri.equipment_id = ?
  AND r.status NOT IN ?
  AND ri.start_date < ?
  AND ? < ri.end_date
  AND (? = 0 OR ri.rental_id <> ?)
ORDER BY ri.start_date
LIMIT 1
`
	var rows []conflictRow
	err := tx.WithContext(ctx).
		Raw(q, equipmentID, domain.InactiveRentalStatuses, end, start, excludeRentalID, excludeRentalID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &domain.ConflictError{
		EquipmentID: equipmentID,
		RentalID:    rows[0].RentalID,
		Start:       rows[0].StartDate,
		End:         rows[0].EndDate,
	}, nil
}

// Assign books equipment onto a rental. The equipment-scoped lock is held
// from the availability check until the transaction commits, so two
// concurrent assignments for the same equipment are serialized; at most one
// can win an overlapping range. Conflicts are domain facts, not transient
// failures: callers must not retry automatically.
func (s *Service) Assign(ctx context.Context, spec domain.AssignmentSpec) (*domain.RentalItem, error) {
	if !spec.Start.IsZero() && !spec.Start.Before(spec.End) {
		return nil, ErrInvalidRange
	}
	if spec.RateType == "" {
		spec.RateType = domain.RateDaily
	}

	release, err := s.locks.Acquire(ctx, spec.EquipmentID, s.lockWait)
	if err != nil {
		if errors.Is(err, keylock.ErrWaitExpired) {
			return nil, &domain.ConflictError{EquipmentID: spec.EquipmentID, Start: spec.Start, End: spec.End}
		}
		return nil, err
	}
	defer release()

	var item domain.RentalItem
	var change *domain.EquipmentStatusChange

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var equip domain.Equipment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&equip, spec.EquipmentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEquipmentNotFound
			}
			return err
		}

		var rent domain.Rental
		if err := tx.First(&rent, spec.RentalID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRentalNotFound
			}
			return err
		}
		if rent.Status.IsTerminal() {
			return ErrInvalidState
		}

		start, end := spec.Start, spec.End
		if start.IsZero() {
			start, end = rent.StartDate, rent.ExpectedEndDate
		}
		if !start.Before(end) {
			return ErrInvalidRange
		}

		conflict, err := s.FindConflictTx(ctx, tx, spec.EquipmentID, start, end, 0)
		if err != nil {
			return err
		}
		if conflict != nil {
			return conflict
		}

		item = domain.RentalItem{
			RentalID:           rent.ID,
			EquipmentID:        equip.ID,
			Rate:               equip.RateFor(spec.RateType),
			RateType:           spec.RateType,
			DiscountPercentage: spec.DiscountPercentage,
			StartDate:          start,
			EndDate:            end,
		}
		item.TotalAmount = item.ComputeTotal(rent.StartDate, rent.ExpectedEndDate)

		if err := tx.Create(&item).Error; err != nil {
			// The postgres schema additionally enforces non-overlap with an
			// exclusion constraint; surface its violation as the same
			// domain conflict.
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return &domain.ConflictError{EquipmentID: equip.ID, Start: start, End: end}
			}
			return err
		}

		if err := recalcRentalTotalTx(tx, rent.ID); err != nil {
			return err
		}

		change, err = s.sync.SyncEquipmentTx(ctx, tx, equip.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifyChange(ctx, change)
	return &item, nil
}

// Unassign removes a line item from its rental, recalculates the rental
// total and releases the equipment if nothing else engages it. Completed
// rentals are immutable.
func (s *Service) Unassign(ctx context.Context, itemID int64) error {
	var change *domain.EquipmentStatusChange

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item domain.RentalItem
		if err := tx.First(&item, itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return err
		}

		var rent domain.Rental
		if err := tx.First(&rent, item.RentalID).Error; err != nil {
			return err
		}
		if rent.Status == domain.RentalCompleted {
			return ErrInvalidState
		}

		if err := tx.Delete(&domain.RentalItem{}, item.ID).Error; err != nil {
			return err
		}

		if err := recalcRentalTotalTx(tx, rent.ID); err != nil {
			return err
		}

		var err error
		change, err = s.sync.SyncEquipmentTx(ctx, tx, item.EquipmentID)
		return err
	})
	if err != nil {
		return err
	}

	s.notifyChange(ctx, change)
	return nil
}

// recalcRentalTotalTx keeps the rental total in step with its line items;
// the parent rental's total must never drift from the item sum.
func recalcRentalTotalTx(tx *gorm.DB, rentalID int64) error {
	var r domain.Rental
	if err := tx.Preload("Items").First(&r, rentalID).Error; err != nil {
		return err
	}
	return tx.Model(&domain.Rental{}).
		Where("id = ?", r.ID).
		Update("total_amount", r.RecalculateTotal()).Error
}

func (s *Service) notifyChange(ctx context.Context, change *domain.EquipmentStatusChange) {
	if change == nil || s.notifs == nil {
		return
	}
	if err := s.notifs.NotifyEquipmentStatusChanged(ctx, *change); err != nil {
		log.Printf("notify equipment status change: %v", err)
	}
}
