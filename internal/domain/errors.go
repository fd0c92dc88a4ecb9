package domain

import "errors"

// Error taxonomy shared by every layer. Callers wrap these with context and
// match them with errors.Is.
var (
	ErrNetwork          = errors.New("network error")
	ErrParse            = errors.New("parse error")
	ErrValidation       = errors.New("validation error")
	ErrNotFound         = errors.New("article not found")
	ErrDuplicateURL     = errors.New("article with this url already exists")
	ErrStoreUnavailable = errors.New("store unavailable")
)
