package rental

import (
	"context"
	"errors"
	"log"
	"time"

	"rentaldesk/internal/domain"
	"rentaldesk/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service owns the rental lifecycle: it is the sole writer of rental status
// and the stamp fields. Each transition is one transaction; either every
// effect (status, stamps, equipment synchronization) commits, or none does.
type Service struct {
	db       *gorm.DB
	rentals  *repository.RentalRepository
	checker  AvailabilityChecker
	assigner EquipmentAssigner
	sync     EquipmentSynchronizer
	notifs   NotificationSender
}

func NewService(
	db *gorm.DB,
	rentals *repository.RentalRepository,
	checker AvailabilityChecker,
	assigner EquipmentAssigner,
	sync EquipmentSynchronizer,
	notifs NotificationSender,
) *Service {
	return &Service{
		db:       db,
		rentals:  rentals,
		checker:  checker,
		assigner: assigner,
		sync:     sync,
		notifs:   notifs,
	}
}

// Create opens a rental in pending status and assigns the requested line
// items through the assignment manager. Each assignment is its own unit of
// work: if one conflicts, the rental keeps the items assigned so far and the
// conflict is returned to the caller.
func (s *Service) Create(ctx context.Context, customerID int64, start, end time.Time, notes string, items []domain.AssignmentSpec) (*domain.Rental, error) {
	if end.Before(start) {
		return nil, ErrValidation
	}

	var customer domain.Customer
	if err := s.db.WithContext(ctx).First(&customer, customerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}

	rental := domain.Rental{
		CustomerID:      customerID,
		Status:          domain.RentalPending,
		StartDate:       start,
		ExpectedEndDate: end,
		Notes:           notes,
	}
	if err := s.db.WithContext(ctx).Create(&rental).Error; err != nil {
		return nil, err
	}

	for _, spec := range items {
		spec.RentalID = rental.ID
		if _, err := s.assigner.Assign(ctx, spec); err != nil {
			return nil, err
		}
	}

	return s.rentals.GetByID(ctx, rental.ID)
}

func (s *Service) GetByID(ctx context.Context, id int64) (*domain.Rental, error) {
	rental, err := s.rentals.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRentalNotFound
		}
		return nil, err
	}
	return rental, nil
}

func (s *Service) List(ctx context.Context, f repository.RentalFilter) ([]domain.Rental, error) {
	return s.rentals.List(ctx, f)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.rentals.Delete(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRentalNotFound
	}
	return err
}

// Transition validates the requested status change against the transition
// table and applies its side effects atomically. actorID lands in the
// approval or completion stamps where the target status calls for it.
func (s *Service) Transition(ctx context.Context, rentalID int64, target domain.RentalStatus, actorID int64) (*domain.Rental, error) {
	var rental domain.Rental
	var previous domain.RentalStatus
	var changes []domain.EquipmentStatusChange

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Preload("Items").
			First(&rental, rentalID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRentalNotFound
			}
			return err
		}

		previous = rental.Status
		if !domain.CanTransition(previous, target) {
			return ErrInvalidTransition
		}

		now := time.Now().UTC()
		switch target {
		case domain.RentalQuotationApproved:
			rental.ApprovedBy = &actorID
			rental.ApprovedAt = &now

		case domain.RentalMobilization:
			// Re-validate every assigned equipment over the rental's range
			// before dispatch; the winner of an earlier race may have taken
			// the slot since the quotation was drawn up.
			for i := range rental.Items {
				conflict, err := s.checker.FindConflictTx(ctx, tx,
					rental.Items[i].EquipmentID, rental.StartDate, rental.ExpectedEndDate, rental.ID)
				if err != nil {
					return err
				}
				if conflict != nil {
					return conflict
				}
			}
			rental.MobilizationDate = &now

		case domain.RentalCompleted:
			rental.CompletedBy = &actorID
			rental.CompletedAt = &now
			if rental.ActualEndDate == nil {
				rental.ActualEndDate = &now
			}
		}

		rental.Status = target
		if err := tx.Omit(clause.Associations).Save(&rental).Error; err != nil {
			return err
		}

		changes, err = s.sync.SyncRentalTx(ctx, tx, &rental)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifyTransition(ctx, &rental, previous, changes)
	return &rental, nil
}

// notifyTransition runs after the transaction has committed. Failures here
// must never undo a committed transition, so they are logged and dropped.
func (s *Service) notifyTransition(ctx context.Context, rental *domain.Rental, previous domain.RentalStatus, changes []domain.EquipmentStatusChange) {
	if s.notifs == nil {
		return
	}
	if err := s.notifs.NotifyRentalStatusChanged(ctx, rental, previous); err != nil {
		log.Printf("notify rental status change: %v", err)
	}
	for _, change := range changes {
		if err := s.notifs.NotifyEquipmentStatusChanged(ctx, change); err != nil {
			log.Printf("notify equipment status change: %v", err)
		}
	}
}
