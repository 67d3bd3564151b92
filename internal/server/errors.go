package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	academicsdomain "github.com/elimisoft/shulefees/internal/academics/domain"
	adjustmentdomain "github.com/elimisoft/shulefees/internal/adjustment/domain"
	catalogdomain "github.com/elimisoft/shulefees/internal/catalog/domain"
	invoicedomain "github.com/elimisoft/shulefees/internal/invoice/domain"
	ledgerdomain "github.com/elimisoft/shulefees/internal/ledger/domain"
	preferencedomain "github.com/elimisoft/shulefees/internal/preference/domain"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	var (
		alreadyExists *invoicedomain.InvoiceAlreadyExistsError
		conflict      *invoicedomain.ConcurrencyConflictError
		missingEntry  *catalogdomain.MissingCatalogEntryError
		invalidRange  *catalogdomain.InvalidGradeRangeError
		invalidAdj    *adjustmentdomain.InvalidAdjustmentError
		invalidPay    *ledgerdomain.InvalidPaymentError
	)

	switch {
	case err == nil:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}

	case errors.As(err, &alreadyExists):
		return http.StatusConflict, errorPayload{
			Type:    "invoice_already_exists",
			Message: alreadyExists.Error(),
		}
	case errors.As(err, &conflict):
		return http.StatusConflict, errorPayload{
			Type:    "concurrency_conflict",
			Message: conflict.Error(),
		}
	case errors.Is(err, invoicedomain.ErrHasPayments):
		return http.StatusConflict, errorPayload{
			Type:    "invoice_has_payments",
			Message: "invoice has recorded payments and cannot be deleted",
		}
	case errors.Is(err, ledgerdomain.ErrPaymentVoided):
		return http.StatusConflict, errorPayload{
			Type:    "payment_already_voided",
			Message: "payment is already voided",
		}

	case errors.As(err, &missingEntry):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "missing_catalog_entry",
			Message: missingEntry.Error(),
		}
	case errors.As(err, &invalidRange):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "invalid_grade_range",
			Message: invalidRange.Error(),
		}

	case errors.As(err, &invalidAdj):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_adjustment",
			Message: invalidAdj.Error(),
		}
	case errors.As(err, &invalidPay):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_payment",
			Message: invalidPay.Error(),
		}
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, invoicedomain.ErrInvalidRequest),
		errors.Is(err, preferencedomain.ErrInvalidPreference),
		errors.Is(err, catalogdomain.ErrInvalidCatalog),
		errors.Is(err, academicsdomain.ErrInvalidSchool):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_request",
			Message: "invalid request",
		}

	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}

	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}

	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, academicsdomain.ErrSchoolNotFound),
		errors.Is(err, academicsdomain.ErrTermNotFound),
		errors.Is(err, academicsdomain.ErrStudentNotFound),
		errors.Is(err, academicsdomain.ErrGuardianNotFound),
		errors.Is(err, catalogdomain.ErrCategoryNotFound),
		errors.Is(err, catalogdomain.ErrRouteNotFound),
		errors.Is(err, preferencedomain.ErrPreferenceNotFound),
		errors.Is(err, invoicedomain.ErrInvoiceNotFound),
		errors.Is(err, ledgerdomain.ErrPaymentNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}
