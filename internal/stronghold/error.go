package stronghold

import "errors"

// Error definitions for the stronghold package.
var (
	ErrInvalidSource   = errors.New("model source has no usable name")
	ErrInvalidManifest = errors.New("invalid model manifest")
	ErrMissingFile     = errors.New("model file listed in manifest is missing")
	ErrNotLoaded       = errors.New("model has not been loaded")
)
