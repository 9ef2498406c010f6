package booking

import "github.com/shopspring/decimal"

type AssignRequest struct {
	EquipmentID        int64           `json:"equipment_id" binding:"required"`
	StartDate          string          `json:"start_date"`
	EndDate            string          `json:"end_date"`
	RateType           string          `json:"rate_type"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
}

type AvailabilityResponse struct {
	EquipmentID int64  `json:"equipment_id"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Available   bool   `json:"available"`
}
