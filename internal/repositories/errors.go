package repositories

import "errors"

// ErrProductNotFound is returned when a product ID does not exist in the store.
var ErrProductNotFound = errors.New("product not found")
