package repository

import (
	"context"

	"rentaldesk/internal/domain"

	"gorm.io/gorm"
)

type RentalRepository struct {
	db *gorm.DB
}

func NewRentalRepository(db *gorm.DB) *RentalRepository {
	return &RentalRepository{db: db}
}

func (r *RentalRepository) GetByID(ctx context.Context, id int64) (*domain.Rental, error) {
	var rental domain.Rental
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Customer").
		First(&rental, id).Error
	if err != nil {
		return nil, err
	}
	return &rental, nil
}

type RentalFilter struct {
	CustomerID int64
	Status     string
	Limit      int
	Offset     int
}

func (r *RentalRepository) List(ctx context.Context, f RentalFilter) ([]domain.Rental, error) {
	q := r.db.WithContext(ctx).Preload("Items").Order("created_at desc")
	if f.CustomerID != 0 {
		q = q.Where("customer_id = ?", f.CustomerID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}

	var rentals []domain.Rental
	if err := q.Find(&rentals).Error; err != nil {
		return nil, err
	}
	return rentals, nil
}

// Delete soft-removes a rental; its booking intervals stop counting against
// availability because availability joins through non-deleted rentals only.
func (r *RentalRepository) Delete(ctx context.Context, id int64) error {
	tx := r.db.WithContext(ctx).Delete(&domain.Rental{}, id)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
