package repositories

import "errors"

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("record already exists")
	// ErrProductUnavailable is returned when a product does not exist or has no stock left.
	ErrProductUnavailable = errors.New("product not available")
)
