package httpclient

import "fmt"

// Error represents a general error in the secure fetcher.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new general Error with a sanitized message.
func NewError(message string) error {
	return &Error{Message: SanitizeErrorMessage(message)}
}

// WrapError wraps an existing error with a sanitized message.
func WrapError(err error, message string) error {
	return &Error{Message: SanitizeErrorMessage(message), Err: err}
}

// SizeLimitError indicates a response exceeded the byte budget. The request
// is never retried: retrying a hostile endpoint spends the same budget again.
type SizeLimitError struct {
	URL      string
	Declared int64
	Limit    int64
}

func (e *SizeLimitError) Error() string {
	return SanitizeErrorMessage(fmt.Sprintf(
		"response size limit exceeded for %s: %d bytes against a %d byte cap", e.URL, e.Declared, e.Limit))
}

// NewSizeLimitError creates a new SizeLimitError.
func NewSizeLimitError(url string, declared, limit int64) error {
	return &SizeLimitError{URL: SanitizeURLString(url), Declared: declared, Limit: limit}
}

// ReadTimeoutError indicates the body drain exceeded its wall-clock budget.
type ReadTimeoutError struct {
	URL string
}

func (e *ReadTimeoutError) Error() string {
	return SanitizeErrorMessage(fmt.Sprintf("response read timed out for %s", e.URL))
}

// NewReadTimeoutError creates a new ReadTimeoutError.
func NewReadTimeoutError(url string) error {
	return &ReadTimeoutError{URL: SanitizeURLString(url)}
}

// UnsafeRedirectError indicates a redirect pointed at an unsafe target.
type UnsafeRedirectError struct {
	Location string
	Reason   string
}

func (e *UnsafeRedirectError) Error() string {
	return SanitizeErrorMessage(fmt.Sprintf("unsafe redirect to %s: %s", e.Location, e.Reason))
}

// NewUnsafeRedirectError creates a new UnsafeRedirectError.
func NewUnsafeRedirectError(location, reason string) error {
	return &UnsafeRedirectError{Location: SanitizeURLString(location), Reason: reason}
}

// HTTPError represents a non-2xx terminal response.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return SanitizeErrorMessage(fmt.Sprintf("http error for %s: status %d", e.URL, e.StatusCode))
}

// NewHTTPError creates a new HTTPError.
func NewHTTPError(statusCode int, url string) error {
	return &HTTPError{StatusCode: statusCode, URL: SanitizeURLString(url)}
}
