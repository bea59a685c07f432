package controllers

import (
	"net/http"

	"github.com/indipaws/petstore-backend/api/responses"
	"github.com/indipaws/petstore-backend/api/validators"
	shippingsvc "github.com/indipaws/petstore-backend/internal/shipping"
	pkgerrors "github.com/indipaws/petstore-backend/pkg/errors"
	"github.com/indipaws/petstore-backend/pkg/logger"
)

const maxQuotableSubtotalCents = 100_000_000

// ListShippingOptions returns every active delivery method with free-shipping
// thresholds applied against the optional subtotal_cents query parameter.
func ListShippingOptions(svc shippingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipping service unavailable"))
			return
		}

		subtotal, err := validators.ParseQueryInt(r, "subtotal_cents", 0, 0, maxQuotableSubtotalCents)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rates, err := svc.Rates(r.Context(), subtotal)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rates)
	}
}
