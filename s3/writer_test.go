package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/simonbru/s3stream"
	"github.com/simonbru/s3stream/s3/mocks"
)

const testUploadID = "upload-123"

type writerTestSuite struct {
	suite.Suite

	client  *mocks.Client
	store   *Store
	locator s3stream.Locator

	// uploaded collects part bodies by part number; completed records the part numbers
	// listed in the completion call.
	uploaded  map[int32][]byte
	completed []int32
	aborted   bool
}

func (ts *writerTestSuite) SetupTest() {
	ts.client = mocks.NewClient(ts.T())
	ts.store = New(WithClient(ts.client), WithOptions(Options{
		RetryBaseDelay: fastOptions.RetryBaseDelay,
		PartSize:       8, // tiny threshold so tests exercise part boundaries
	}))
	ts.uploaded = map[int32][]byte{}
	ts.completed = nil
	ts.aborted = false

	var err error
	ts.locator, err = s3stream.Parse("s3://us-west-2/bucket/some/path/to/file.ts")
	ts.Require().NoError(err, "Shouldn't return error parsing test locator.")
}

func (ts *writerTestSuite) expectCreate() {
	ts.client.
		On("CreateMultipartUpload", matchContext, mock.AnythingOfType("*s3.CreateMultipartUploadInput")).
		Return(&s3.CreateMultipartUploadOutput{UploadId: aws.String(testUploadID)}, nil).
		Once()
}

func (ts *writerTestSuite) expectUploadParts() {
	ts.client.
		On("UploadPart", matchContext, mock.AnythingOfType("*s3.UploadPartInput")).
		Return(func(_ context.Context, in *s3.UploadPartInput, _ ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
			ts.Equal(testUploadID, aws.ToString(in.UploadId))
			body, err := io.ReadAll(in.Body)
			ts.Require().NoError(err)
			num := aws.ToInt32(in.PartNumber)
			ts.uploaded[num] = body
			return &s3.UploadPartOutput{ETag: aws.String(fmt.Sprintf("etag-%d", num))}, nil
		})
}

func (ts *writerTestSuite) expectComplete() {
	ts.client.
		On("CompleteMultipartUpload", matchContext, mock.AnythingOfType("*s3.CompleteMultipartUploadInput")).
		Return(func(_ context.Context, in *s3.CompleteMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
			for _, p := range in.MultipartUpload.Parts {
				ts.Equal(fmt.Sprintf("etag-%d", aws.ToInt32(p.PartNumber)), aws.ToString(p.ETag), "etag must match its part")
				ts.completed = append(ts.completed, aws.ToInt32(p.PartNumber))
			}
			return &s3.CompleteMultipartUploadOutput{}, nil
		})
}

func (ts *writerTestSuite) expectAbort() {
	ts.client.
		On("AbortMultipartUpload", matchContext, mock.AnythingOfType("*s3.AbortMultipartUploadInput")).
		Return(func(_ context.Context, in *s3.AbortMultipartUploadInput, _ ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
			ts.Equal(testUploadID, aws.ToString(in.UploadId))
			ts.aborted = true
			return &s3.AbortMultipartUploadOutput{}, nil
		}).
		Once()
}

// reassemble joins the uploaded parts in part-number order.
func (ts *writerTestSuite) reassemble() []byte {
	var out []byte
	for i := int32(1); ; i++ {
		part, ok := ts.uploaded[i]
		if !ok {
			break
		}
		out = append(out, part...)
	}
	return out
}

func (ts *writerTestSuite) TestWriteBelowThresholdBuffersOnly() {
	ts.expectCreate()
	ts.expectUploadParts()
	ts.expectComplete()

	w, err := ts.store.OpenWriter(context.Background(), ts.locator)
	ts.Require().NoError(err)

	n, err := w.Write([]byte("1234567")) // one byte under the threshold
	ts.Require().NoError(err)
	ts.Equal(7, n)
	ts.Empty(ts.uploaded, "nothing should be flushed below the part-size threshold")

	ts.Require().NoError(w.Close())
	ts.Equal([]byte("1234567"), ts.reassemble(), "the final short part flushes on close")
	ts.Equal([]int32{1}, ts.completed)
}

func (ts *writerTestSuite) TestContentIdenticalRegardlessOfChunking() {
	payload := []byte("abcdefghijklmnopqrstuvwxyz0123456789") // 36 bytes, threshold 8

	for _, chunk := range []int{1, 5, 8, 13, 36} {
		ts.SetupTest()
		ts.expectCreate()
		ts.expectUploadParts()
		ts.expectComplete()

		w, err := ts.store.OpenWriter(context.Background(), ts.locator)
		ts.Require().NoError(err)

		for start := 0; start < len(payload); start += chunk {
			end := start + chunk
			if end > len(payload) {
				end = len(payload)
			}
			_, err = w.Write(payload[start:end])
			ts.Require().NoError(err)
			ts.Less(w.buf.Len(), 8, "pending buffer must stay under the threshold between writes")
		}
		ts.Require().NoError(w.Close())

		ts.Equal(payload, ts.reassemble(), "chunking with size %d must not change the object", chunk)
		ts.Equal([]int32{1, 2, 3, 4, 5}, ts.completed, "parts listed ascending from 1")
		ts.Equal(int64(len(payload)), w.BytesWritten())
	}
}

func (ts *writerTestSuite) TestZeroByteSessionAborts() {
	ts.expectCreate()
	ts.expectAbort()

	w, err := ts.store.OpenWriter(context.Background(), ts.locator)
	ts.Require().NoError(err)

	ts.Require().NoError(w.Close())
	ts.True(ts.aborted, "a zero-write session must abort, not complete with zero parts")

	_, err = w.Write([]byte("x"))
	ts.Require().ErrorIs(err, s3stream.ErrClosed)
}

func (ts *writerTestSuite) TestTransientPartFailureRecovered() {
	ts.expectCreate()
	ts.client.
		On("UploadPart", matchContext, mock.AnythingOfType("*s3.UploadPartInput")).
		Return(nil, &smithy.GenericAPIError{Code: "SlowDown", Message: "throttled"}).
		Once()
	ts.expectUploadParts()
	ts.expectComplete()

	w, err := ts.store.OpenWriter(context.Background(), ts.locator)
	ts.Require().NoError(err)

	_, err = w.Write([]byte("0123456789abcdef")) // two full parts
	ts.Require().NoError(err, "a transient failure within the retry budget should be invisible")
	ts.Require().NoError(w.Close())

	ts.Equal([]byte("0123456789abcdef"), ts.reassemble())
	ts.Equal([]int32{1, 2}, ts.completed)
}

func (ts *writerTestSuite) TestPartFailureAbortsUpload() {
	ts.expectCreate()
	ts.client.
		On("UploadPart", matchContext, mock.AnythingOfType("*s3.UploadPartInput")).
		Return(nil, &smithy.GenericAPIError{Code: "InternalError", Message: "boom"}).
		Times(DefaultRetryAttempts)
	ts.expectAbort()

	w, err := ts.store.OpenWriter(context.Background(), ts.locator)
	ts.Require().NoError(err)

	_, err = w.Write([]byte("0123456789")) // crosses the threshold, forces a flush
	ts.Require().Error(err)

	var partErr *PartUploadError
	ts.Require().ErrorAs(err, &partErr)
	ts.Equal(int32(1), partErr.PartNumber)
	ts.Require().ErrorIs(err, s3stream.ErrUnavailable)
	ts.True(ts.aborted, "no orphaned multipart upload may survive a reported failure")

	// the writer is dead after an abort
	_, err = w.Write([]byte("x"))
	ts.Require().ErrorIs(err, s3stream.ErrClosed)
	ts.Require().ErrorIs(w.Close(), s3stream.ErrClosed)
}

func (ts *writerTestSuite) TestPartFailureReportsFailedAbortToo() {
	abortErr := &smithy.GenericAPIError{Code: "InternalError", Message: "abort failed"}

	ts.expectCreate()
	ts.client.
		On("UploadPart", matchContext, mock.AnythingOfType("*s3.UploadPartInput")).
		Return(nil, &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"}).
		Once()
	ts.client.
		On("AbortMultipartUpload", matchContext, mock.AnythingOfType("*s3.AbortMultipartUploadInput")).
		Return(nil, abortErr).
		Once()

	w, err := ts.store.OpenWriter(context.Background(), ts.locator)
	ts.Require().NoError(err)

	_, err = w.Write([]byte("0123456789"))
	ts.Require().Error(err)

	var partErr *PartUploadError
	ts.Require().ErrorAs(err, &partErr, "the part error is still the primary failure")
	ts.Require().ErrorIs(err, s3stream.ErrAccessDenied)
	ts.Contains(err.Error(), "abort", "the abort failure must be reported alongside")
}

func (ts *writerTestSuite) TestCompleteRetriedOnceThenAborts() {
	// transient completion failure on the first attempt, success on the idempotent retry
	ts.expectCreate()
	ts.expectUploadParts()
	ts.client.
		On("CompleteMultipartUpload", matchContext, mock.AnythingOfType("*s3.CompleteMultipartUploadInput")).
		Return(nil, &smithy.GenericAPIError{Code: "InternalError", Message: "hiccup"}).
		Once()
	ts.expectComplete()

	w, err := ts.store.OpenWriter(context.Background(), ts.locator)
	ts.Require().NoError(err)
	_, err = w.Write([]byte("data"))
	ts.Require().NoError(err)
	ts.Require().NoError(w.Close(), "one transient completion failure is absorbed")
	ts.Equal([]int32{1}, ts.completed)

	// persistent completion failure aborts and surfaces the error
	ts.SetupTest()
	ts.expectCreate()
	ts.expectUploadParts()
	ts.client.
		On("CompleteMultipartUpload", matchContext, mock.AnythingOfType("*s3.CompleteMultipartUploadInput")).
		Return(nil, &smithy.GenericAPIError{Code: "InternalError", Message: "down"}).
		Twice()
	ts.expectAbort()

	w, err = ts.store.OpenWriter(context.Background(), ts.locator)
	ts.Require().NoError(err)
	_, err = w.Write([]byte("data"))
	ts.Require().NoError(err)

	err = w.Close()
	ts.Require().Error(err)
	ts.Require().ErrorIs(err, s3stream.ErrUnavailable)
	ts.True(ts.aborted, "a failed completion must release the upload")
}

func (ts *writerTestSuite) TestAbortOnCancelledSession() {
	ctx, cancel := context.WithCancel(context.Background())

	ts.expectCreate()
	ts.expectAbort()

	w, err := ts.store.OpenWriter(ctx, ts.locator)
	ts.Require().NoError(err)
	_, err = w.Write([]byte("buffered but never flushed"))
	ts.Require().NoError(err)

	// pipeline teardown: the session context is gone, the abort must still go out
	cancel()
	ts.Require().NoError(w.Abort())
	ts.True(ts.aborted, "cancellation must abort the in-progress upload, not leak it")

	ts.Require().NoError(w.Abort(), "abort is idempotent")
}

func (ts *writerTestSuite) TestAbortAfterCloseIsNoop() {
	ts.expectCreate()
	ts.expectUploadParts()
	ts.expectComplete()

	w, err := ts.store.OpenWriter(context.Background(), ts.locator)
	ts.Require().NoError(err)
	_, err = w.Write([]byte("payload"))
	ts.Require().NoError(err)
	ts.Require().NoError(w.Close())

	ts.Require().NoError(w.Abort(), "abort after a successful close must not touch the service")
	ts.Require().NoError(w.Close(), "close is idempotent once completed")
}

func (ts *writerTestSuite) TestACLPropagated() {
	store := New(WithClient(ts.client), WithOptions(Options{
		RetryBaseDelay: fastOptions.RetryBaseDelay,
		ACL:            types.ObjectCannedACLBucketOwnerFullControl,
	}))

	ts.client.
		On("CreateMultipartUpload", matchContext, mock.MatchedBy(func(in *s3.CreateMultipartUploadInput) bool {
			return in.ACL == types.ObjectCannedACLBucketOwnerFullControl
		})).
		Return(&s3.CreateMultipartUploadOutput{UploadId: aws.String(testUploadID)}, nil).
		Once()
	ts.expectAbort()

	w, err := store.OpenWriter(context.Background(), ts.locator)
	ts.Require().NoError(err)
	ts.Require().NoError(w.Close())
}

func (ts *writerTestSuite) TestLargeStreamPartSizing() {
	ts.expectCreate()
	ts.expectUploadParts()
	ts.expectComplete()

	w, err := ts.store.OpenWriter(context.Background(), ts.locator)
	ts.Require().NoError(err)

	payload := bytes.Repeat([]byte("x"), 8*4+3) // four full parts and a short tail
	_, err = w.Write(payload)
	ts.Require().NoError(err)
	ts.Require().NoError(w.Close())

	ts.Equal([]int32{1, 2, 3, 4, 5}, ts.completed)
	for i := int32(1); i <= 4; i++ {
		ts.Len(ts.uploaded[i], 8, "every part but the last must be exactly the threshold")
	}
	ts.Len(ts.uploaded[5], 3, "only the final part may be short")
}

func TestWriter(t *testing.T) {
	suite.Run(t, new(writerTestSuite))
}
