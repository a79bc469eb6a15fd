package service

import "errors"

var (
	ErrUnknownLanguage     = errors.New("unknown language")
	ErrInvalidParent       = errors.New("invalid retailer store")
	ErrInvalidInput        = errors.New("invalid input")
	ErrOperationNotAllowed = errors.New("operation not allowed")
	ErrUnsupportedImage    = errors.New("unsupported image type")
	ErrImageTooLarge       = errors.New("image too large")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidRole         = errors.New("invalid role")
)
