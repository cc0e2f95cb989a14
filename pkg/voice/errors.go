package voice

import "errors"

var (
	// ErrUnknownSelection indicates the requested locale or language is not in the catalog.
	ErrUnknownSelection = errors.New("no voices in catalog for selection")
	// ErrBelowMinimumVoices indicates a selection with fewer voices than the configured minimum.
	ErrBelowMinimumVoices = errors.New("selection is below the minimum voice count")
)

// IsConfigurationError reports whether err is a catalog/selection
// configuration problem. These are fatal: retrying cannot fix them.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrUnknownSelection) || errors.Is(err, ErrBelowMinimumVoices)
}
