package rental

import "github.com/shopspring/decimal"

type CreateRentalRequest struct {
	CustomerID int64             `json:"customer_id" binding:"required"`
	StartDate  string            `json:"start_date" binding:"required"`
	EndDate    string            `json:"end_date" binding:"required"`
	Notes      string            `json:"notes"`
	Items      []LineItemRequest `json:"items"`
}

type LineItemRequest struct {
	EquipmentID        int64           `json:"equipment_id" binding:"required"`
	RateType           string          `json:"rate_type"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
}

type TransitionRequest struct {
	TargetStatus string `json:"target_status" binding:"required"`
}
