package s3

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Client defines the subset of the AWS S3 API the adapter drives: ranged reads, object
// metadata probes, and the multipart upload lifecycle.  It is satisfied by *s3.Client and
// is the seam mocked in tests.
type Client interface {
	manager.DownloadAPIClient
	manager.UploadAPIClient
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}
