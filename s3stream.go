package s3stream

import (
	"fmt"
	"io"
)

// Source represents a remote object opened for reading.  It is a pull-based, seekable byte
// stream: Read issues bounded range requests at the current cursor, Seek repositions the
// cursor, and Close releases local resources only (reads hold no server-side session state).
//
// A Source is single-session-exclusive: it is driven by exactly one logical data-flow path
// at a time and holds no cross-session shared state.
type Source interface {
	io.Reader
	io.Seeker
	io.Closer
	fmt.Stringer

	// Size returns the total byte size of the remote object, discovered when the source
	// was opened.
	Size() int64
}

// Sink represents a remote object opened for writing.  It is a push-based byte sink with an
// explicit finalize: bytes passed to Write are buffered and transmitted in parts, and the
// remote object does not exist until Close commits it.  Abort releases the in-progress
// upload without committing; a Sink closed after zero writes is aborted, not committed.
type Sink interface {
	io.Writer
	io.Closer
	fmt.Stringer

	// Abort releases the in-progress upload.  It is the cancellation path: a torn-down
	// pipeline must abort rather than leak the remote upload session.  Abort after Close
	// is a no-op.
	Abort() error
}
