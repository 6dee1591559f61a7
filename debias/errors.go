package debias

import "errors"

// Error kinds returned by the debiasing methods. Wrapped errors can be
// tested with errors.Is.
var (
	// ErrConfiguration marks an invalid configuration, reported at
	// construction and never at run time.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrInputRange marks an input series with values outside the
	// configured reasonable physical range, reported before any
	// processing stage runs.
	ErrInputRange = errors.New("input outside reasonable physical range")

	// ErrMode marks a call that needs time information in the selected
	// mode but was not given any.
	ErrMode = errors.New("time information required")
)
