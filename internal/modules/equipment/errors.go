package equipment

import "errors"

var (
	ErrNotFound      = errors.New("equipment not found")
	ErrInvalidStatus = errors.New("invalid equipment status")
)
