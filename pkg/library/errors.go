package library

import "errors"

var (
	ErrInvalidInput      = errors.New("library.invalid_input")
	ErrUnknownReport     = errors.New("library.unknown_report")
	ErrFineAlreadyPaid   = errors.New("library.fine_already_paid")
	ErrInvalidAmount     = errors.New("library.invalid_amount")
	ErrUnsupportedMethod = errors.New("library.unsupported_payment_method")
)
