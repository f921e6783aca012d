package payments

import "errors"

var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("not found")
	ErrInvalidState        = errors.New("invalid state")
	ErrInvalidSignature    = errors.New("invalid webhook signature")
	ErrPaymentNotCompleted = errors.New("payment not completed")
	ErrProvider            = errors.New("payment provider error")
	ErrStorage             = errors.New("storage error")
)

var (
	// ErrAmountMismatch is returned when a checkout amount differs from the quote total.
	ErrAmountMismatch = errInvalidState("amount does not match quote total")
	// ErrDuplicatePayment is returned when another checkout already paid the quote.
	ErrDuplicatePayment = errInvalidState("quote already paid by another checkout")
)

type stateError struct{ msg string }

func errInvalidState(msg string) error { return &stateError{msg: msg} }

func (e *stateError) Error() string { return e.msg }

func (e *stateError) Unwrap() error { return ErrInvalidState }

// IsRetryable reports whether the caller may retry the same request later.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrProvider) || errors.Is(err, ErrStorage)
}
