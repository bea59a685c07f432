package shipping

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/indipaws/petstore-backend/internal/pricing"
	"github.com/indipaws/petstore-backend/pkg/db/models"
	pkgerrors "github.com/indipaws/petstore-backend/pkg/errors"
)

// Rate is one quoted delivery method after thresholds are applied.
type Rate struct {
	Code          string `json:"code"`
	Name          string `json:"name"`
	PriceCents    int    `json:"price_cents"`
	FreeThreshold *int   `json:"free_over_cents,omitempty"`
}

// Service quotes delivery methods against the cart subtotal.
type Service interface {
	Rates(ctx context.Context, subtotalCents int) ([]Rate, error)
	ByCode(ctx context.Context, code string, subtotalCents int) (pricing.ShippingRate, error)
}

type service struct {
	repo *Repository
}

// NewService builds a shipping service backed by the provided repository.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shipping repository required")
	}
	return &service{repo: repo}, nil
}

// Rates lists every active option with free-shipping thresholds applied.
// subtotalCents is the cart subtotal before any discount; thresholds are
// judged on what the cart holds, not on what the buyer pays.
func (s *service) Rates(ctx context.Context, subtotalCents int) ([]Rate, error) {
	options, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shipping options")
	}
	rates := make([]Rate, 0, len(options))
	for _, option := range options {
		rates = append(rates, Rate{
			Code:          option.Code,
			Name:          option.Name,
			PriceCents:    effectivePrice(option, subtotalCents),
			FreeThreshold: option.FreeOverCents,
		})
	}
	return rates, nil
}

// ByCode resolves the selected method or rejects the checkout.
func (s *service) ByCode(ctx context.Context, code string, subtotalCents int) (pricing.ShippingRate, error) {
	option, err := s.repo.GetActiveByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pricing.ShippingRate{}, pkgerrors.New(pkgerrors.CodeInvalidShipping, "unknown shipping method")
		}
		return pricing.ShippingRate{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipping option")
	}
	return pricing.ShippingRate{
		Code:       option.Code,
		Name:       option.Name,
		PriceCents: effectivePrice(*option, subtotalCents),
	}, nil
}

func effectivePrice(option models.ShippingOption, subtotalCents int) int {
	if option.FreeOverCents != nil && subtotalCents >= *option.FreeOverCents {
		return 0
	}
	return option.PriceCents
}
