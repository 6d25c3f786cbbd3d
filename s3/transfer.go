package s3

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/simonbru/s3stream"
)

// Upload transfers the whole of body to the object addressed by loc using the SDK's
// concurrent transfer manager.  It is the put path for callers that have the entire
// payload available (e.g. finished media segments) and don't need the incremental Sink
// session; partitioning is governed by Options.UploadPartitionSize.
func (st *Store) Upload(ctx context.Context, loc s3stream.Locator, body io.Reader) error {
	client, err := st.clientFor(loc)
	if err != nil {
		return err
	}

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		if st.options.UploadPartitionSize > 0 {
			u.PartSize = st.options.UploadPartitionSize
		}
	})
	_, err = uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
		ACL:    st.options.ACL,
		Body:   body,
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", loc, classify(err))
	}
	return nil
}

// Download transfers the whole object addressed by loc into w using the SDK's concurrent
// transfer manager; partitioning is governed by Options.DownloadPartitionSize.  It
// returns the number of bytes written.
func (st *Store) Download(ctx context.Context, loc s3stream.Locator, w io.WriterAt) (int64, error) {
	client, err := st.clientFor(loc)
	if err != nil {
		return 0, err
	}

	downloader := manager.NewDownloader(client, func(d *manager.Downloader) {
		if st.options.DownloadPartitionSize > 0 {
			d.PartSize = st.options.DownloadPartitionSize
		}
	})
	n, err := downloader.Download(ctx, w, &s3.GetObjectInput{
		Bucket:    aws.String(loc.Bucket),
		Key:       aws.String(loc.Key),
		VersionId: versionID(loc),
	})
	if err != nil {
		return n, fmt.Errorf("download %s: %w", loc, classify(err))
	}
	return n, nil
}
