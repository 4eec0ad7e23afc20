package wizard

import "errors"

// Validation errors for the interactive wizard.
var (
	errValueRequired    = errors.New("a value is required")
	errURLInvalid       = errors.New("must be an http or https URL with a host")
	errItemCodeInvalid  = errors.New("item code must not contain spaces")
	errDurationInvalid  = errors.New("invalid duration (expected e.g. 10s, 5m, 4h)")
	errRouteFileMissing = errors.New("printer routes need a G-code file")
)
