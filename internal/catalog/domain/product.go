package domain

import (
	"errors"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

var ErrInvalidVariant = errors.New("invalid product variant")

// Product is a catalog entry with the variant lists a cart line can select from.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Featured    bool            `json:"featured"`
	InStock     bool            `json:"inStock"`
	Rating      float64         `json:"rating"`
	ReviewCount int             `json:"reviewCount"`
	Images      []string        `json:"images"`
	Sizes       []string        `json:"sizes"`
	Colors      []string        `json:"colors"`
}

// PrimaryImage is the first image, or "" when the product has none.
func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// DefaultVariant returns the first size and first color on offer.
func (p Product) DefaultVariant() (size, color string) {
	if len(p.Sizes) > 0 {
		size = p.Sizes[0]
	}
	if len(p.Colors) > 0 {
		color = p.Colors[0]
	}
	return size, color
}

// ValidateVariant checks that size and color are on offer. A product without
// sizes (or colors) only accepts an empty selection for that axis.
func (p Product) ValidateVariant(size, color string) error {
	if !offered(p.Sizes, size) {
		return fmt.Errorf("%w: size %q not offered for product %d", ErrInvalidVariant, size, p.ID)
	}
	if !offered(p.Colors, color) {
		return fmt.Errorf("%w: color %q not offered for product %d", ErrInvalidVariant, color, p.ID)
	}
	return nil
}

func offered(options []string, choice string) bool {
	if len(options) == 0 {
		return choice == ""
	}
	return slices.Contains(options, choice)
}
