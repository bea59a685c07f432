package controllers

import (
	"net/http"
	"strings"

	"github.com/indipaws/petstore-backend/api/middleware"
	"github.com/indipaws/petstore-backend/api/responses"
	cartsvc "github.com/indipaws/petstore-backend/internal/cart"
	ordersvc "github.com/indipaws/petstore-backend/internal/orders"
	pkgerrors "github.com/indipaws/petstore-backend/pkg/errors"
	"github.com/indipaws/petstore-backend/pkg/logger"
)

// viewerIdentity is like cartIdentityFromRequest but tolerates an anonymous
// caller: guests read their orders by id plus the email query parameter.
func viewerIdentity(r *http.Request) cartsvc.Identity {
	if userID, ok := middleware.UserIDFromContext(r.Context()); ok {
		return cartsvc.Owned(userID)
	}
	if sessionID := middleware.SessionIDFromContext(r.Context()); sessionID != "" {
		return cartsvc.Anonymous(sessionID)
	}
	return cartsvc.Identity{}
}

// ListOrders returns the authenticated user's orders, newest first.
func ListOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		userID, ok := middleware.UserIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		records, err := svc.List(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderList(records))
	}
}

// GetOrder returns one order scoped to its owner. Guests pass the email the
// order was placed with as a query parameter.
func GetOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		email := strings.TrimSpace(r.URL.Query().Get("email"))
		order, err := svc.Get(r.Context(), viewerIdentity(r), email, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// CancelOrder cancels a pending or processing order, restores its stock, and
// kicks off the refund.
func CancelOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		userID, ok := middleware.UserIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Cancel(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// ReorderOrder copies a past order's lines back into the caller's cart,
// skipping whatever is no longer purchasable.
func ReorderOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		identity, err := cartIdentityFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		email := strings.TrimSpace(r.URL.Query().Get("email"))
		record, unavailable, err := svc.Reorder(r.Context(), identity, email, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if unavailable == nil {
			unavailable = []ordersvc.UnavailableItem{}
		}
		responses.WriteSuccess(w, reorderResponse{
			Cart:        newCartResponse(record),
			Unavailable: unavailable,
		})
	}
}
