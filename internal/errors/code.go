package errors

import (
	"fmt"
	"net/http"

	kerrors "github.com/go-kratos/kratos/v2/errors"
)

// Reasons double as the machine-readable error kind returned to clients.
const (
	ReasonValidation             = "VALIDATION_ERROR"
	ReasonNotFound               = "NOT_FOUND"
	ReasonPaymentVerification    = "PAYMENT_VERIFICATION_FAILED"
	ReasonConflict               = "CONFLICT"
	ReasonConcurrentModification = "CONCURRENT_MODIFICATION"
	ReasonProvider               = "PROVIDER_ERROR"
	ReasonUnauthorized           = "UNAUTHORIZED"
	ReasonForbidden              = "FORBIDDEN"
)

// Validation reports malformed or missing input. Raised before any side effect.
func Validation(format string, args ...any) *kerrors.Error {
	return kerrors.New(http.StatusBadRequest, ReasonValidation, fmt.Sprintf(format, args...))
}

// NotFound reports a missing order, address or user.
func NotFound(format string, args ...any) *kerrors.Error {
	return kerrors.New(http.StatusNotFound, ReasonNotFound, fmt.Sprintf(format, args...))
}

// PaymentVerification reports a signature mismatch. The message never carries the
// expected signature.
func PaymentVerification(message string) *kerrors.Error {
	return kerrors.New(http.StatusBadRequest, ReasonPaymentVerification, message)
}

// Conflict reports an illegal state transition such as cancelling a paid order.
func Conflict(format string, args ...any) *kerrors.Error {
	return kerrors.New(http.StatusBadRequest, ReasonConflict, fmt.Sprintf(format, args...))
}

// ConcurrentModification reports a lost compare-and-swap on the order version.
func ConcurrentModification(orderID string) *kerrors.Error {
	return kerrors.New(http.StatusConflict, ReasonConcurrentModification,
		fmt.Sprintf("order %s was modified concurrently, retry", orderID))
}

// Provider reports a failed call to the payment provider.
func Provider(cause error) *kerrors.Error {
	return kerrors.New(http.StatusBadGateway, ReasonProvider, "payment provider unavailable").WithCause(cause)
}

func Unauthorized(message string) *kerrors.Error {
	return kerrors.Unauthorized(ReasonUnauthorized, message)
}

func Forbidden(message string) *kerrors.Error {
	return kerrors.Forbidden(ReasonForbidden, message)
}

func IsValidation(err error) bool { return kerrors.Reason(err) == ReasonValidation }

func IsNotFound(err error) bool { return kerrors.Reason(err) == ReasonNotFound }

func IsPaymentVerification(err error) bool {
	return kerrors.Reason(err) == ReasonPaymentVerification
}

func IsConflict(err error) bool { return kerrors.Reason(err) == ReasonConflict }

func IsConcurrentModification(err error) bool {
	return kerrors.Reason(err) == ReasonConcurrentModification
}

func IsProvider(err error) bool { return kerrors.Reason(err) == ReasonProvider }

// Kind returns the machine-readable error kind, or "" for errors outside the taxonomy.
func Kind(err error) string { return kerrors.Reason(err) }
