/*
Package s3stream adapts an S3-style object store's request/response model to the pipelined,
seekable, back-pressured byte-stream I/O a media pipeline expects from its source and sink
elements.

A remote object is addressed by a Locator parsed from a single URI-like string:

	s3://region/bucket/key/which/may/contain/slashes?version=v2

The adapter exposes exactly two data-flow contracts:

  - Source: a pull-based, seekable byte source backed by ranged reads.  Each Read issues a
    bounded byte-range request at the current cursor; Seek repositions the cursor with no
    client-side cache to invalidate beyond the in-flight chunk.
  - Sink: a push-based byte sink backed by a multipart upload.  Writes are buffered to the
    configured part size and flushed as sequentially numbered parts; Close commits the part
    list, Abort releases the in-progress upload.

The s3 subpackage implements both against the AWS SDK, with bounded-backoff retry of
transient failures.  The credential subpackage resolves credentials from an ordered set of
sources (environment, shared credentials file, instance-role metadata).  Everything above
the byte-stream boundary -- element lifecycle, capability negotiation, playlist muxing --
belongs to the hosting pipeline framework and is out of scope here.

Usage:

	import (
	    "github.com/simonbru/s3stream"
	    "github.com/simonbru/s3stream/s3"
	)

	func stream(ctx context.Context) error {
	    loc, err := s3stream.Parse("s3://us-west-2/my-bucket/media/segment-001.ts")
	    if err != nil {
	        return err
	    }

	    store := s3.New()
	    src, err := store.OpenReader(ctx, loc)
	    if err != nil {
	        return err
	    }
	    defer src.Close()
	    ...
	}
*/
package s3stream
