package core

import "errors"

// Error kinds shared across packages so callers can classify a failure with
// errors.Is instead of matching on a per-package concrete type. These name
// the semantic categories a mutation or import can fail with, not Go types.
var (
	ErrValidation = errors.New("validation")
	ErrCodec      = errors.New("codec")
	ErrIO         = errors.New("io")
	ErrScript     = errors.New("script")
	ErrImport     = errors.New("import geometry")
)
