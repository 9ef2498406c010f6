package equipment

import (
	"context"
	"errors"

	"rentaldesk/internal/domain"
	"rentaldesk/internal/repository"

	"gorm.io/gorm"
)

type Service struct {
	repo *repository.EquipmentRepository
}

func NewService(repo *repository.EquipmentRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, req CreateEquipmentRequest) (*domain.Equipment, error) {
	e := &domain.Equipment{
		Name:         req.Name,
		Category:     req.Category,
		SerialNumber: req.SerialNumber,
		Status:       domain.EquipmentAvailable,
		DailyRate:    req.DailyRate,
		WeeklyRate:   req.WeeklyRate,
		MonthlyRate:  req.MonthlyRate,
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*domain.Equipment, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (s *Service) List(ctx context.Context, f repository.EquipmentFilter) ([]domain.Equipment, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateEquipmentRequest) (*domain.Equipment, error) {
	e, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	e.Name = req.Name
	e.Category = req.Category
	e.SerialNumber = req.SerialNumber
	e.DailyRate = req.DailyRate
	e.WeeklyRate = req.WeeklyRate
	e.MonthlyRate = req.MonthlyRate

	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// UpdateStatus sets operator-controlled statuses. The rented status is owned
// by the synchronizer and cannot be set by hand.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status domain.EquipmentStatus) (*domain.Equipment, error) {
	if status == domain.EquipmentRented {
		return nil, ErrInvalidStatus
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.GetByID(ctx, id)
}
