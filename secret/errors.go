package secret

import "errors"

// Sentinel errors.
var (
	ErrInvalidRegistration = errors.New("secret: invalid provider registration")
	ErrDuplicateProvider   = errors.New("secret: provider already registered")
	ErrUnknownProvider     = errors.New("secret: provider is not registered")
	ErrInvalidRef          = errors.New("secret: invalid secret reference")
	ErrNotFound            = errors.New("secret: secret not found")
	ErrEmptySecret         = errors.New("secret: provider returned an empty value")
	ErrMissingEnv          = errors.New("secret: missing required environment variables")
)
