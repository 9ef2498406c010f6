package equipment

import "github.com/shopspring/decimal"

type CreateEquipmentRequest struct {
	Name         string          `json:"name" binding:"required"`
	Category     string          `json:"category"`
	SerialNumber string          `json:"serial_number"`
	DailyRate    decimal.Decimal `json:"daily_rate"`
	WeeklyRate   decimal.Decimal `json:"weekly_rate"`
	MonthlyRate  decimal.Decimal `json:"monthly_rate"`
}

type UpdateEquipmentRequest struct {
	Name         string          `json:"name" binding:"required"`
	Category     string          `json:"category"`
	SerialNumber string          `json:"serial_number"`
	DailyRate    decimal.Decimal `json:"daily_rate"`
	WeeklyRate   decimal.Decimal `json:"weekly_rate"`
	MonthlyRate  decimal.Decimal `json:"monthly_rate"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}
