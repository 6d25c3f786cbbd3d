package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/simonbru/s3stream"
)

type writerState int

const (
	stateUploading writerState = iota
	stateCompleting
	stateCompleted
	stateAborted
)

// Writer is a write session: a push-based byte sink over one remote object, backed by a
// multipart upload initiated at open time.  Write buffers until the part-size threshold
// and flushes full parts with sequentially assigned part numbers starting at 1; only the
// final part may be short.  Close commits the recorded parts in ascending order, except
// that a session that never wrote a byte is aborted instead (the store rejects zero-part
// completions).  Any part failure aborts the upload before the error is returned, so no
// orphaned multipart upload survives a reported failure.
//
// Writer is single-session-exclusive; concurrent sinks each own an independent upload id
// and need no coordination.
type Writer struct {
	ctx      context.Context
	client   Client
	locator  s3stream.Locator
	retry    retrier
	timeout  time.Duration
	acl      types.ObjectCannedACL
	uploadID string
	partSize int64
	buf      bytes.Buffer
	parts    []types.CompletedPart
	written  int64
	state    writerState
}

var _ s3stream.Sink = (*Writer)(nil)

func openWriter(ctx context.Context, client Client, loc s3stream.Locator, opt Options) (*Writer, error) {
	w := &Writer{
		ctx:      ctx,
		client:   client,
		locator:  loc,
		retry:    opt.retrier(),
		timeout:  opt.requestTimeout(),
		acl:      opt.ACL,
		partSize: opt.partSize(),
	}

	err := w.retry.do(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, w.timeout)
		defer cancel()

		out, err := client.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
			Bucket: aws.String(loc.Bucket),
			Key:    aws.String(loc.Key),
			ACL:    w.acl,
		})
		if err != nil {
			return err
		}
		w.uploadID = aws.ToString(out.UploadId)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", loc, err)
	}
	return w, nil
}

// Write implements io.Writer.  Bytes are appended to the pending buffer; whenever the
// buffer reaches the part-size threshold a part is flushed, so the buffer never holds a
// full part between calls.  A flush failure aborts the upload before returning.
func (w *Writer) Write(p []byte) (int, error) {
	if w.state != stateUploading {
		return 0, s3stream.ErrClosed
	}

	w.buf.Write(p)
	w.written += int64(len(p))

	for int64(w.buf.Len()) >= w.partSize {
		if err := w.flushPart(w.buf.Next(int(w.partSize))); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// flushPart uploads one part and records its etag.  On failure the upload is aborted and
// the part error (joined with the abort error, if any) is returned.
func (w *Writer) flushPart(data []byte) error {
	partNumber := int32(len(w.parts) + 1)

	var etag string
	err := w.retry.do(w.ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, w.timeout)
		defer cancel()

		out, err := w.client.UploadPart(ctx, &s3.UploadPartInput{
			Bucket:     aws.String(w.locator.Bucket),
			Key:        aws.String(w.locator.Key),
			UploadId:   aws.String(w.uploadID),
			PartNumber: aws.Int32(partNumber),
			Body:       bytes.NewReader(data),
		})
		if err != nil {
			return err
		}
		etag = aws.ToString(out.ETag)
		return nil
	})
	if err != nil {
		partErr := &PartUploadError{PartNumber: partNumber, Err: err}
		if abortErr := w.abort(); abortErr != nil {
			return &PartUploadError{PartNumber: partNumber, Err: errors.Join(err, abortErr)}
		}
		return partErr
	}

	w.parts = append(w.parts, types.CompletedPart{
		ETag:       aws.String(etag),
		PartNumber: aws.Int32(partNumber),
	})
	return nil
}

// Close implements io.Closer, finalizing the session.  Remaining buffered bytes are
// flushed as the final (possibly short) part, then the part list is committed in
// ascending part-number order.  A transient completion failure is retried once with the
// identical part list before the upload is aborted and the error surfaced.  A session
// with zero bytes written is aborted instead of committed.
func (w *Writer) Close() error {
	switch w.state {
	case stateCompleted:
		return nil
	case stateAborted, stateCompleting:
		return s3stream.ErrClosed
	}

	if w.written == 0 {
		if err := w.abort(); err != nil {
			return fmt.Errorf("close %s: %w", w.locator, err)
		}
		return nil
	}

	if w.buf.Len() > 0 {
		if err := w.flushPart(w.buf.Next(w.buf.Len())); err != nil {
			return fmt.Errorf("close %s: %w", w.locator, err)
		}
	}

	w.state = stateCompleting

	// the completion call is idempotent for a fixed part list, so one extra attempt
	completeRetry := retrier{maxAttempts: 2, baseDelay: w.retry.baseDelay, maxDelay: w.retry.maxDelay}
	err := completeRetry.do(w.ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, w.timeout)
		defer cancel()

		_, err := w.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
			Bucket:   aws.String(w.locator.Bucket),
			Key:      aws.String(w.locator.Key),
			UploadId: aws.String(w.uploadID),
			MultipartUpload: &types.CompletedMultipartUpload{
				Parts: w.parts,
			},
		})
		return err
	})
	if err != nil {
		completeErr := fmt.Errorf("complete %s: %w", w.locator, err)
		if abortErr := w.abort(); abortErr != nil {
			return errors.Join(completeErr, abortErr)
		}
		return completeErr
	}

	w.state = stateCompleted
	return nil
}

// Abort releases the in-progress multipart upload without committing it.  It is the
// cancellation path for early stream teardown and is safe to defer alongside Close: after
// a successful Close it is a no-op.
func (w *Writer) Abort() error {
	if w.state == stateCompleted || w.state == stateAborted {
		return nil
	}
	return w.abort()
}

func (w *Writer) abort() error {
	w.state = stateAborted

	// cancellation must still reach the service, else the upload leaks
	ctx, cancel := context.WithTimeout(context.WithoutCancel(w.ctx), w.timeout)
	defer cancel()

	_, err := w.client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(w.locator.Bucket),
		Key:      aws.String(w.locator.Key),
		UploadId: aws.String(w.uploadID),
	})
	if err != nil {
		return fmt.Errorf("abort %s upload %s: %w", w.locator, w.uploadID, classify(err))
	}
	return nil
}

// BytesWritten returns the total bytes accepted by Write so far.
func (w *Writer) BytesWritten() int64 {
	return w.written
}

// Locator returns the locator this session was opened with.
func (w *Writer) Locator() s3stream.Locator {
	return w.locator
}

// String returns the locator URI string.
func (w *Writer) String() string {
	return w.locator.String()
}
