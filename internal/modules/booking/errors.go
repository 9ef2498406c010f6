package booking

import "errors"

var (
	ErrInvalidRange      = errors.New("start date must be before end date")
	ErrEquipmentNotFound = errors.New("equipment not found")
	ErrRentalNotFound    = errors.New("rental not found")
	ErrItemNotFound      = errors.New("rental item not found")
	ErrInvalidState      = errors.New("rental state does not allow this operation")
)
