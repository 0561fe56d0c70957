package constants

import "errors"

// Configuration errors.
var (
	ErrNoRefreshToken   = errors.New("no refresh token available, please run 'devportal login' again")
	ErrNotAuthenticated = errors.New("not authenticated, please run 'devportal login' first")
	ErrUnknownConfigKey = errors.New("unknown configuration key")
)

// Token errors.
var (
	ErrInvalidJWTFormat  = errors.New("invalid JWT format")
	ErrNoExpirationClaim = errors.New("no expiration claim found")
	ErrNoConfigPersister = errors.New("no config persister configured")
)

// Input errors.
var (
	ErrInvalidOutputFormat = errors.New("invalid output format")
	ErrNoInput             = errors.New("provide --file or at least one field flag")
	ErrPasswordRequired    = errors.New("password is required")
	ErrUsernameRequired    = errors.New("username is required")
)
