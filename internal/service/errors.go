package service

import "errors"

// Sentinel errors returned by the domain services. Handlers map them to
// HTTP responses; callers test them with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrOutOfStock        = errors.New("out of stock")
	ErrEmptyBasket       = errors.New("empty basket")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrForbidden         = errors.New("forbidden")
	ErrValidation        = errors.New("validation")
)
