package s3stream

// Error is a type that allows for error constants below
type Error string

// Error returns a string representation of the error
func (e Error) Error() string { return string(e) }

const (
	// ErrNotExist - the remote object does not exist
	ErrNotExist = Error("object does not exist")

	// ErrAccessDenied - the object store rejected the request's authorization.  Never retried.
	ErrAccessDenied = Error("access denied")

	// ErrUnavailable - transient failures persisted past the bounded retry budget
	ErrUnavailable = Error("service unavailable")

	// ErrClosed - the stream was already closed or aborted
	ErrClosed = Error("stream is closed")

	// ErrSeekInvalidOffset - Offset is invalid. Must be greater than or equal to 0
	ErrSeekInvalidOffset = Error("seek: invalid offset")

	// ErrSeekInvalidWhence - Whence is invalid.  Must be one of the following: 0 (io.SeekStart), 1 (io.SeekCurrent), or 2 (io.SeekEnd)
	ErrSeekInvalidWhence = Error("seek: invalid whence")

	// ErrMalformedURI - the locator string is not structurally a scheme://region/bucket/key URI
	ErrMalformedURI = Error("locator: malformed uri")
)
