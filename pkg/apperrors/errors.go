package apperrors

import "errors"

var (
	ErrNotCollected       = errors.New("raw menu text not found, run collect first")
	ErrNoItems            = errors.New("no menu items extracted")
	ErrMissingStoreConfig = errors.New("store connection settings missing")
	ErrInvalidInput       = errors.New("invalid structured menu file")
)
