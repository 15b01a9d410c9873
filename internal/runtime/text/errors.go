package text

// unavailableError signals a missing runtime dependency (binary or build
// tag) so callers can distinguish it from a bad model file.
type unavailableError struct{ msg string }

func (e unavailableError) Error() string { return e.msg }

// ErrUnavailable constructs an unavailableError.
func ErrUnavailable(msg string) error { return unavailableError{msg: msg} }

// IsUnavailable reports whether err indicates a missing/failed runtime.
func IsUnavailable(err error) bool {
	_, ok := err.(unavailableError)
	return ok
}
