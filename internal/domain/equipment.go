package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type EquipmentStatus string

const (
	EquipmentAvailable        EquipmentStatus = "available"
	EquipmentRented           EquipmentStatus = "rented"
	EquipmentUnderMaintenance EquipmentStatus = "under_maintenance"
	EquipmentOutOfService     EquipmentStatus = "out_of_service"
	EquipmentRetired          EquipmentStatus = "retired"
)

func ParseEquipmentStatus(s string) (EquipmentStatus, error) {
	switch EquipmentStatus(s) {
	case EquipmentAvailable, EquipmentRented, EquipmentUnderMaintenance,
		EquipmentOutOfService, EquipmentRetired:
		return EquipmentStatus(s), nil
	default:
		return "", fmt.Errorf("unknown equipment status: %s", s)
	}
}

// IsOperatorControlled reports whether the status is set manually by staff.
// The synchronizer never overwrites these.
func (s EquipmentStatus) IsOperatorControlled() bool {
	return s == EquipmentUnderMaintenance || s == EquipmentOutOfService || s == EquipmentRetired
}

type Equipment struct {
	ID           int64           `json:"id" gorm:"primaryKey"`
	Name         string          `json:"name" gorm:"not null" validate:"required"`
	Category     string          `json:"category,omitempty"`
	SerialNumber string          `json:"serial_number,omitempty"`
	Status       EquipmentStatus `json:"status" gorm:"type:varchar(32);not null;default:'available';index"`
	DailyRate    decimal.Decimal `json:"daily_rate" gorm:"type:decimal(12,2);not null;default:0"`
	WeeklyRate   decimal.Decimal `json:"weekly_rate" gorm:"type:decimal(12,2);not null;default:0"`
	MonthlyRate  decimal.Decimal `json:"monthly_rate" gorm:"type:decimal(12,2);not null;default:0"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (Equipment) TableName() string { return "equipment" }

// RateFor returns the price per billing unit for the given rate type.
func (e *Equipment) RateFor(rt RateType) decimal.Decimal {
	switch rt {
	case RateWeekly:
		return e.WeeklyRate
	case RateMonthly:
		return e.MonthlyRate
	default:
		return e.DailyRate
	}
}
