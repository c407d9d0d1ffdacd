package urlcheck

import "fmt"

// UnsafeURLError indicates a URL that failed safety validation and must not
// be fetched. Reason is a short, credential-free description.
type UnsafeURLError struct {
	Reason string
}

func (e *UnsafeURLError) Error() string {
	return fmt.Sprintf("unsafe URL: %s", e.Reason)
}

// NewUnsafeURLError creates a new UnsafeURLError.
func NewUnsafeURLError(reason string) error {
	return &UnsafeURLError{Reason: reason}
}
