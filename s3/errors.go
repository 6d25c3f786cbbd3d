package s3

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/simonbru/s3stream"
)

// PartUploadError reports the failure of one part upload.  The writer aborts the multipart
// upload before returning it; if the abort itself failed, the abort error is joined in and
// reachable through errors.Is/As.
type PartUploadError struct {
	PartNumber int32
	Err        error
}

func (e *PartUploadError) Error() string {
	return fmt.Sprintf("upload part %d: %v", e.PartNumber, e.Err)
}

func (e *PartUploadError) Unwrap() error { return e.Err }

// classify maps object-store failures onto the module's sentinel errors so callers can
// test with errors.Is, keeping the original error in the chain.  Errors outside the fatal
// taxonomy are returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var noSuchKey *types.NoSuchKey
	var noSuchBucket *types.NoSuchBucket
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &noSuchBucket) || errors.As(err, &notFound) {
		return fmt.Errorf("%w: %w", s3stream.ErrNotExist, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NoSuchBucket", "NoSuchVersion", "NotFound":
			return fmt.Errorf("%w: %w", s3stream.ErrNotExist, err)
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken":
			return fmt.Errorf("%w: %w", s3stream.ErrAccessDenied, err)
		}
	}

	return err
}
