package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/simonbru/s3stream"
)

// Reader is a read session: a pull-based, seekable byte source over one remote object,
// backed by ranged GetObject calls.  The cursor advances by the bytes actually returned;
// Seek repositions the cursor only, so a non-sequential read simply issues its range
// request at the new offset.  Reader holds no client-side cache beyond the chunk in
// flight, and no server-side session state, so Close has nothing remote to release.
//
// Reader is single-session-exclusive; it must be driven by one logical data-flow path at
// a time.
type Reader struct {
	ctx     context.Context
	client  Client
	locator s3stream.Locator
	retry   retrier
	timeout time.Duration
	cursor  int64
	size    int64
	closed  bool
}

var _ s3stream.Source = (*Reader)(nil)

func openReader(ctx context.Context, client Client, loc s3stream.Locator, opt Options) (*Reader, error) {
	r := &Reader{
		ctx:     ctx,
		client:  client,
		locator: loc,
		retry:   opt.retrier(),
		timeout: opt.requestTimeout(),
	}

	// size probe; also the existence check
	err := r.retry.do(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		head, err := client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket:    aws.String(loc.Bucket),
			Key:       aws.String(loc.Key),
			VersionId: versionID(loc),
		})
		if err != nil {
			return err
		}
		r.size = aws.ToInt64(head.ContentLength)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", loc, err)
	}
	return r, nil
}

// Read implements io.Reader.  Each call issues one byte-range request covering at most
// len(p) bytes at the current cursor and returns io.EOF once the cursor has reached the
// object's size.
func (r *Reader) Read(p []byte) (int, error) {
	if r.closed {
		return 0, s3stream.ErrClosed
	}
	if r.cursor >= r.size {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}

	want := int64(len(p))
	if remaining := r.size - r.cursor; want > remaining {
		want = remaining
	}

	// the whole fetch, body read included, happens inside the retry scope: a body cut
	// short mid-read re-issues the identical range request
	var n int
	err := r.retry.do(r.ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket:    aws.String(r.locator.Bucket),
			Key:       aws.String(r.locator.Key),
			VersionId: versionID(r.locator),
			Range:     aws.String(fmt.Sprintf("bytes=%d-%d", r.cursor, r.cursor+want-1)),
		})
		if err != nil {
			return err
		}
		defer func() { _ = out.Body.Close() }()

		// the service may return fewer bytes than the range asked for; advance by
		// what arrived
		n, err = io.ReadFull(out.Body, p[:want])
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
			return err
		}
		if n == 0 {
			// an empty body for a non-empty range is a truncated response
			return io.ErrUnexpectedEOF
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("read %s at %d: %w", r.locator, r.cursor, err)
	}

	r.cursor += int64(n)
	return n, nil
}

// Seek implements io.Seeker, repositioning the read cursor.  Seeking past the end is
// permitted; the next Read returns io.EOF.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	if r.closed {
		return 0, s3stream.ErrClosed
	}

	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = r.cursor + offset
	case io.SeekEnd:
		pos = r.size + offset
	default:
		return 0, s3stream.ErrSeekInvalidWhence
	}
	if pos < 0 {
		return 0, s3stream.ErrSeekInvalidOffset
	}

	r.cursor = pos
	return pos, nil
}

// Close ends the read session.  Reads hold no remote state, so Close only marks the
// session done; further calls on the Reader return ErrClosed.
func (r *Reader) Close() error {
	r.closed = true
	return nil
}

// Size returns the total byte size of the remote object, discovered at open time.
func (r *Reader) Size() int64 {
	return r.size
}

// Locator returns the locator this session was opened with.
func (r *Reader) Locator() s3stream.Locator {
	return r.locator
}

// String returns the locator URI string.
func (r *Reader) String() string {
	return r.locator.String()
}

func versionID(loc s3stream.Locator) *string {
	if loc.Version == "" {
		return nil
	}
	return aws.String(loc.Version)
}
