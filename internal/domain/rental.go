package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DateFormat is the wire format for booking dates; ranges are half-open at
// day granularity.
const DateFormat = "2006-01-02"

type RentalStatus string

const (
	RentalPending           RentalStatus = "pending"
	RentalQuotation         RentalStatus = "quotation"
	RentalQuotationApproved RentalStatus = "quotation_approved"
	RentalMobilization      RentalStatus = "mobilization"
	RentalActive            RentalStatus = "active"
	RentalCompleted         RentalStatus = "completed"
	RentalCancelled         RentalStatus = "cancelled"
	RentalRejected          RentalStatus = "rejected"
)

func ParseRentalStatus(s string) (RentalStatus, error) {
	switch RentalStatus(s) {
	case RentalPending, RentalQuotation, RentalQuotationApproved, RentalMobilization,
		RentalActive, RentalCompleted, RentalCancelled, RentalRejected:
		return RentalStatus(s), nil
	default:
		return "", fmt.Errorf("unknown rental status: %s", s)
	}
}

// rentalTransitions is the full legal transition table. Anything not listed
// here is rejected, including jumps like pending→active or active→pending.
var rentalTransitions = map[RentalStatus][]RentalStatus{
	RentalPending:           {RentalQuotation, RentalCancelled},
	RentalQuotation:         {RentalQuotationApproved, RentalRejected, RentalCancelled},
	RentalQuotationApproved: {RentalMobilization, RentalCancelled},
	RentalMobilization:      {RentalActive, RentalCancelled},
	RentalActive:            {RentalCompleted, RentalCancelled},
	RentalCompleted:         {},
	RentalCancelled:         {},
	RentalRejected:          {},
}

func CanTransition(from, to RentalStatus) bool {
	for _, t := range rentalTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

func AllowedTargets(from RentalStatus) []RentalStatus {
	targets := rentalTransitions[from]
	out := make([]RentalStatus, len(targets))
	copy(out, targets)
	return out
}

func (s RentalStatus) IsTerminal() bool {
	return s == RentalCompleted || s == RentalCancelled || s == RentalRejected
}

// InactiveRentalStatuses do not occupy equipment: their booking intervals are
// ignored by the availability check.
var InactiveRentalStatuses = []RentalStatus{RentalCancelled, RentalRejected, RentalCompleted}

// EngagedRentalStatuses are the statuses during which assigned equipment is
// physically out with the customer.
var EngagedRentalStatuses = []RentalStatus{RentalMobilization, RentalActive}

type RateType string

const (
	RateDaily   RateType = "daily"
	RateWeekly  RateType = "weekly"
	RateMonthly RateType = "monthly"
)

func ParseRateType(s string) (RateType, error) {
	switch RateType(s) {
	case RateDaily, RateWeekly, RateMonthly:
		return RateType(s), nil
	default:
		return "", fmt.Errorf("unknown rate type: %s", s)
	}
}

// Rental is the aggregate root for one equipment booking. Status is written
// only by the rental state machine; total_amount only by the total
// recalculation.
type Rental struct {
	ID              int64           `json:"id" gorm:"primaryKey"`
	CustomerID      int64           `json:"customer_id" gorm:"not null;index"`
	Status          RentalStatus    `json:"status" gorm:"type:varchar(32);not null;default:'pending';index"`
	StartDate       time.Time       `json:"start_date" gorm:"not null"`
	ExpectedEndDate time.Time       `json:"expected_end_date" gorm:"not null"`
	ActualEndDate   *time.Time      `json:"actual_end_date,omitempty"`
	TotalAmount     decimal.Decimal `json:"total_amount" gorm:"type:decimal(12,2);not null;default:0"`

	ApprovedBy       *int64     `json:"approved_by,omitempty"`
	ApprovedAt       *time.Time `json:"approved_at,omitempty"`
	CompletedBy      *int64     `json:"completed_by,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	MobilizationDate *time.Time `json:"mobilization_date,omitempty"`

	Notes     string         `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Items    []RentalItem `json:"items,omitempty" gorm:"foreignKey:RentalID"`
	Customer *Customer    `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
}

func (Rental) TableName() string { return "rentals" }

// RentalItem is one equipment assignment inside a rental. StartDate/EndDate
// form the booking interval used for overlap checks; end is exclusive.
type RentalItem struct {
	ID                 int64           `json:"id" gorm:"primaryKey"`
	RentalID           int64           `json:"rental_id" gorm:"not null;index"`
	EquipmentID        int64           `json:"equipment_id" gorm:"not null;index"`
	Rate               decimal.Decimal `json:"rate" gorm:"type:decimal(12,2);not null"`
	RateType           RateType        `json:"rate_type" gorm:"type:varchar(16);not null;default:'daily'"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage" gorm:"type:decimal(5,2);not null;default:0"`
	TotalAmount        decimal.Decimal `json:"total_amount" gorm:"type:decimal(12,2);not null;default:0"`
	StartDate          time.Time       `json:"start_date" gorm:"not null"`
	EndDate            time.Time       `json:"end_date" gorm:"not null"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`

	Equipment *Equipment `json:"equipment,omitempty" gorm:"foreignKey:EquipmentID"`
}

func (RentalItem) TableName() string { return "rental_items" }

// DurationUnits converts a date range into billable units for the given rate
// type. Fractional periods round up: one day and one hour on a daily rate is
// charged as two days. Monthly units step by calendar month.
func DurationUnits(rt RateType, start, end time.Time) int64 {
	if !end.After(start) {
		return 0
	}
	switch rt {
	case RateWeekly:
		return ceilUnits(end.Sub(start), 7*24*time.Hour)
	case RateMonthly:
		var units int64
		for cur := start; cur.Before(end); cur = cur.AddDate(0, 1, 0) {
			units++
		}
		return units
	default:
		return ceilUnits(end.Sub(start), 24*time.Hour)
	}
}

func ceilUnits(d, unit time.Duration) int64 {
	n := int64(d / unit)
	if d%unit != 0 {
		n++
	}
	return n
}

// ComputeTotal prices the item over the rental's date range. Rounding to two
// decimal places happens exactly once, here.
func (ri *RentalItem) ComputeTotal(start, end time.Time) decimal.Decimal {
	units := decimal.NewFromInt(DurationUnits(ri.RateType, start, end))
	multiplier := decimal.NewFromInt(100).Sub(ri.DiscountPercentage).Div(decimal.NewFromInt(100))
	return ri.Rate.Mul(units).Mul(multiplier).Round(2)
}

// RecalculateTotal derives the rental total from its line items. It never
// reads the stored total_amount, so repeated calls are idempotent.
func (r *Rental) RecalculateTotal() decimal.Decimal {
	total := decimal.Zero
	for i := range r.Items {
		total = total.Add(r.Items[i].ComputeTotal(r.StartDate, r.ExpectedEndDate))
	}
	return total
}

// AssignmentSpec is a request to book one piece of equipment onto a rental.
// Zero Start/End default to the rental's own date range.
type AssignmentSpec struct {
	RentalID           int64
	EquipmentID        int64
	Start              time.Time
	End                time.Time
	RateType           RateType
	DiscountPercentage decimal.Decimal
}

// ConflictError reports a booking overlap: the requested equipment is already
// taken by another rental for an intersecting date range. RentalID is zero
// when the equipment lock could not be acquired in time and no conflicting
// row was identified.
type ConflictError struct {
	EquipmentID int64
	RentalID    int64
	Start       time.Time
	End         time.Time
}

func (e *ConflictError) Error() string {
	if e.RentalID == 0 {
		return fmt.Sprintf("equipment %d is busy for %s to %s",
			e.EquipmentID, e.Start.Format("2006-01-02"), e.End.Format("2006-01-02"))
	}
	return fmt.Sprintf("equipment %d already booked by rental %d from %s to %s",
		e.EquipmentID, e.RentalID, e.Start.Format("2006-01-02"), e.End.Format("2006-01-02"))
}

// EquipmentStatusChange records one equipment status flip produced by the
// synchronizer, so notifications can be emitted after the transaction commits.
type EquipmentStatusChange struct {
	EquipmentID int64           `json:"equipment_id"`
	From        EquipmentStatus `json:"from"`
	To          EquipmentStatus `json:"to"`
}
