package credential

import "errors"

var (
	ErrNotFound    = errors.New("no credential stored")
	ErrEmptyToken  = errors.New("credential token is empty")
	ErrCorrupted   = errors.New("stored credential is corrupted")
	ErrSealed      = errors.New("stored credential is sealed and no key was configured")
	ErrStoreFailed = errors.New("failed to persist credential")
)
