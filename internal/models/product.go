package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Product represents a record in the catalog. The ID is assigned by the
// document store at creation time and never changes afterwards. ImageURL and
// ImagePath are set together when an image is uploaded; ImagePath may be
// empty on legacy records, in which case there is no stored object to delete.
type Product struct {
	ID        string  `json:"id" firestore:"id" validate:"omitempty"`
	Name      string  `json:"name" firestore:"name" validate:"required,min=1,max=100"`
	Price     float64 `json:"price" firestore:"price" validate:"gte=0"`
	ImageURL  string  `json:"image_url" firestore:"image_url,omitempty"`
	ImagePath string  `json:"image_path,omitempty" firestore:"image_path,omitempty"`
}

// ParsePrice parses a user-supplied price string. Both "." and "," are
// accepted as the decimal separator; the value must not be negative.
func ParsePrice(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("price is required")
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q", s)
	}
	if v < 0 {
		return 0, fmt.Errorf("price must not be negative")
	}
	return v, nil
}
