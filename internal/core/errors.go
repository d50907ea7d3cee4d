package core

// ValidationError marks a client-fault error: the request itself was
// malformed. The API layer maps it to a 400 response; everything else
// surfaces as a generic server fault.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}
