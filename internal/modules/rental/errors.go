package rental

import "errors"

var (
	ErrValidation        = errors.New("validation error")
	ErrRentalNotFound    = errors.New("rental not found")
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrInvalidTransition = errors.New("status transition not allowed")
)
