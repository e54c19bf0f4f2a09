package envelope

// These errors are boundary errors, not internal errors.  A bad
// message from the host runtime should never be fatal.

// Malformed occurs when raw input from the host boundary doesn't have
// the required envelope shape.
type Malformed struct {
	// Raw is the offending input, kept for diagnostics.
	Raw []byte

	// Reason says what was wrong with Raw.
	Reason string
}

func (e *Malformed) Error() string {
	return "malformed envelope: " + e.Reason
}

// IsMalformed reports whether the given error is a *Malformed.
func IsMalformed(err error) bool {
	_, is := err.(*Malformed)
	return is
}
