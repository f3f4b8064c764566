package domain

import "errors"

var (
	ErrProductNotFound     = errors.New("product not found")
	ErrProductInactive     = errors.New("product inactive")
	ErrOrderNotFound       = errors.New("order not found")
	ErrOutOfStock          = errors.New("out of stock")
	ErrLimitExceeded       = errors.New("purchase limit exceeded")
	ErrBadSignature        = errors.New("invalid notification signature")
	ErrAmountMismatch      = errors.New("notification amount mismatch")
	ErrInvalidID           = errors.New("invalid id")
	ErrProductNameRequired = errors.New("product name is required")
	ErrInvalidPrice        = errors.New("invalid price")
	ErrInvalidAllocation   = errors.New("invalid allocation mode")
	ErrNoSecrets           = errors.New("no secrets to import")
)
