package promos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/indipaws/petstore-backend/pkg/db/models"
	pkgerrors "github.com/indipaws/petstore-backend/pkg/errors"
)

// Rejection sub-reasons surfaced in INVALID_PROMO_CODE details.
const (
	ReasonInactive     = "inactive"
	ReasonNotStarted   = "not_started"
	ReasonExpired      = "expired"
	ReasonExhausted    = "exhausted"
	ReasonBelowMinimum = "below_minimum"
)

// RejectionDetail explains why a promo code was refused.
type RejectionDetail struct {
	Reason        string `json:"reason"`
	MinOrderCents *int   `json:"min_order_cents,omitempty"`
}

// Service validates promo codes against the ledger and consumes usage slots.
type Service interface {
	Validate(ctx context.Context, code string, subtotalCents int) (*models.PromoCode, error)
	ConsumeUsage(ctx context.Context, tx *gorm.DB, code string) error
}

type service struct {
	repo *Repository
	now  func() time.Time
}

// NewService builds a promo service backed by the provided repository.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("promo repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

// Validate checks a code against activation, time window, usage budget, and
// order minimum. The returned promo is only a quote input; no usage slot is
// taken here.
func (s *service) Validate(ctx context.Context, code string, subtotalCents int) (*models.PromoCode, error) {
	if strings.TrimSpace(code) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promo code is required")
	}

	promo, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "promo code not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load promo code")
	}

	now := s.now().UTC()
	if !promo.IsActive {
		return nil, rejected(ReasonInactive, nil)
	}
	if promo.StartsAt != nil && now.Before(*promo.StartsAt) {
		return nil, rejected(ReasonNotStarted, nil)
	}
	if promo.ExpiresAt != nil && !now.Before(*promo.ExpiresAt) {
		return nil, rejected(ReasonExpired, nil)
	}
	if promo.MaxUses != nil && promo.UsageCount >= *promo.MaxUses {
		return nil, rejected(ReasonExhausted, nil)
	}
	if promo.MinOrderCents != nil && subtotalCents < *promo.MinOrderCents {
		return nil, rejected(ReasonBelowMinimum, promo.MinOrderCents)
	}
	return promo, nil
}

// ConsumeUsage takes one usage slot inside the caller's transaction. The
// conditional increment keeps concurrent checkouts from oversubscribing a
// limited code; a zero-row update surfaces as exhausted.
func (s *service) ConsumeUsage(ctx context.Context, tx *gorm.DB, code string) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for promo usage")
	}
	rows, err := s.repo.WithTx(tx).IncrementUsage(ctx, code)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume promo usage")
	}
	if rows == 0 {
		return rejected(ReasonExhausted, nil)
	}
	return nil
}

func rejected(reason string, minOrderCents *int) error {
	return pkgerrors.New(pkgerrors.CodeInvalidPromo, "promo code cannot be applied").
		WithDetails(RejectionDetail{Reason: reason, MinOrderCents: minOrderCents})
}
