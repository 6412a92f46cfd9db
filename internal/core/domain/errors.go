package domain

import "errors"

// Sentinel errors returned by services and repositories. The HTTP layer maps
// them to status codes in api.NewHTTPErrorHandler.
var (
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrInvalidSession         = errors.New("session carries no usable identity")
	ErrSessionNotFound        = errors.New("session not found")
	ErrAccountNotFound        = errors.New("account not found")
	ErrAccountExists          = errors.New("account already exists")
	ErrNotAuthorized          = errors.New("not authorized")
	ErrProfileNotFound        = errors.New("profile not found")
	ErrInvalidProfile         = errors.New("invalid profile")
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
	ErrConfirmationPending    = errors.New("a proficiency confirmation is already pending")
	ErrNoPendingConfirmation  = errors.New("no proficiency confirmation is pending")
	ErrSkillIndexOutOfRange   = errors.New("skill index out of range")
)
