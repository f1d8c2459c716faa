package domain_test

import (
	"errors"
	"testing"

	"github.com/dejobratic/errorfix/internal/catalog/domain"
)

func TestValidateVariant(t *testing.T) {
	product := domain.Product{ID: 1, Sizes: []string{"Small", "Medium"}, Colors: []string{"red"}}
	plain := domain.Product{ID: 2}

	tests := []struct {
		name    string
		product domain.Product
		size    string
		color   string
		wantErr bool
	}{
		{name: "offered size and color", product: product, size: "Medium", color: "red"},
		{name: "unknown size", product: product, size: "Huge", color: "red", wantErr: true},
		{name: "missing color", product: product, size: "Small", color: "", wantErr: true},
		{name: "no variants and empty selection", product: plain},
		{name: "no variants but a size given", product: plain, size: "Small", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.product.ValidateVariant(tt.size, tt.color)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateVariant() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrInvalidVariant) {
				t.Errorf("expected ErrInvalidVariant, got %v", err)
			}
		})
	}
}

func TestDefaultVariantAndPrimaryImage(t *testing.T) {
	product := domain.Product{Images: []string{"a.png", "b.png"}, Sizes: []string{"Small"}, Colors: []string{"red", "blue"}}

	size, color := product.DefaultVariant()
	if size != "Small" || color != "red" {
		t.Errorf("expected Small/red, got %s/%s", size, color)
	}
	if product.PrimaryImage() != "a.png" {
		t.Errorf("expected a.png, got %s", product.PrimaryImage())
	}
	if (domain.Product{}).PrimaryImage() != "" {
		t.Error("expected empty image for product without images")
	}
}
