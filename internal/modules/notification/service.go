package notification

import (
	"context"
	"encoding/json"
	"time"

	"rentaldesk/internal/domain"

	"gorm.io/gorm"
)

// Service persists every emitted event and pushes it to connected clients.
// Callers treat delivery as best effort; an error here never rolls back the
// state change that produced the event.
type Service struct {
	db  *gorm.DB
	hub *Hub
}

func NewService(db *gorm.DB, hub *Hub) *Service {
	return &Service{db: db, hub: hub}
}

type envelope struct {
	Topic   string      `json:"topic"`
	Payload interface{} `json:"payload"`
	SentAt  time.Time   `json:"sent_at"`
}

type rentalStatusPayload struct {
	RentalID       int64  `json:"rental_id"`
	CustomerID     int64  `json:"customer_id"`
	PreviousStatus string `json:"previous_status"`
	CurrentStatus  string `json:"current_status"`
}

func (s *Service) NotifyRentalStatusChanged(ctx context.Context, rental *domain.Rental, previous domain.RentalStatus) error {
	return s.emit(ctx, domain.TopicRentalStatusChanged, rentalStatusPayload{
		RentalID:       rental.ID,
		CustomerID:     rental.CustomerID,
		PreviousStatus: string(previous),
		CurrentStatus:  string(rental.Status),
	})
}

func (s *Service) NotifyEquipmentStatusChanged(ctx context.Context, change domain.EquipmentStatusChange) error {
	return s.emit(ctx, domain.TopicEquipmentStatusChanged, change)
}

func (s *Service) emit(ctx context.Context, topic string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	n := &domain.Notification{Topic: topic, Payload: string(body)}
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return err
	}

	s.hub.Broadcast(envelope{Topic: topic, Payload: payload, SentAt: time.Now()})
	return nil
}

// List returns the most recent notifications, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]domain.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var notifications []domain.Notification
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}
