package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/indipaws/petstore-backend/pkg/db/models"
	"github.com/indipaws/petstore-backend/pkg/enums"
	pkgerrors "github.com/indipaws/petstore-backend/pkg/errors"
	"github.com/indipaws/petstore-backend/pkg/logger"
)

// OrderNotice carries the order facts a customer notice is rendered from.
type OrderNotice struct {
	OrderID     uuid.UUID
	OrderNumber string
	UserID      *uuid.UUID
	Email       string
	TotalCents  int
}

// Service records customer-facing notices. Delivery is a log line plus a
// persisted row; a real mail provider would hang off the same surface.
type Service interface {
	SendOrderConfirmation(ctx context.Context, notice OrderNotice) error
	SendCancellationNotice(ctx context.Context, notice OrderNotice) error
}

type service struct {
	repo *Repository
	logg *logger.Logger
}

// NewService wires notification dependencies.
func NewService(repo *Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) SendOrderConfirmation(ctx context.Context, notice OrderNotice) error {
	body := fmt.Sprintf(
		"Order %s confirmed. Total $%d.%02d. Thanks for shopping with IndiPaws!",
		notice.OrderNumber, notice.TotalCents/100, notice.TotalCents%100,
	)
	return s.record(ctx, enums.NotificationKindOrderConfirmation, notice, body)
}

func (s *service) SendCancellationNotice(ctx context.Context, notice OrderNotice) error {
	body := fmt.Sprintf(
		"Order %s has been cancelled. Any captured payment will be refunded.",
		notice.OrderNumber,
	)
	return s.record(ctx, enums.NotificationKindOrderCancellation, notice, body)
}

func (s *service) record(ctx context.Context, kind enums.NotificationKind, notice OrderNotice, body string) error {
	if notice.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if notice.Email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient email required")
	}

	record := &models.Notification{
		ID:      uuid.New(),
		UserID:  notice.UserID,
		Email:   notice.Email,
		Kind:    kind,
		OrderID: notice.OrderID,
		Body:    body,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist notification")
	}

	ctx = s.logg.WithOrderNumber(ctx, notice.OrderNumber)
	s.logg.Info(ctx, fmt.Sprintf("notification %s sent to %s", kind, notice.Email))
	return nil
}
