package rental

import (
	"context"
	"errors"

	"rentaldesk/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RecalculateTotalTx re-derives a rental's total from its current line items
// and persists it, inside the caller's transaction. Used by the assignment
// manager whenever line items change.
func RecalculateTotalTx(tx *gorm.DB, rentalID int64) (decimal.Decimal, error) {
	var r domain.Rental
	if err := tx.Preload("Items").First(&r, rentalID).Error; err != nil {
		return decimal.Zero, err
	}

	total := r.RecalculateTotal()
	err := tx.Model(&domain.Rental{}).
		Where("id = ?", rentalID).
		Update("total_amount", total).Error
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// Recalculate recomputes and persists the rental's total amount. Idempotent:
// with unchanged line items it always produces the same result.
func (s *Service) Recalculate(ctx context.Context, rentalID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		total, err = RecalculateTotalTx(tx, rentalID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRentalNotFound
		}
		return err
	})
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}
