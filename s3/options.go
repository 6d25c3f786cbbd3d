package s3

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

const (
	// DefaultRegion is used when neither the locator session nor the SDK environment
	// yields a region.
	DefaultRegion = "us-west-2"

	// DefaultPartSize is the multipart flush threshold, which is also the S3 minimum
	// part size.
	DefaultPartSize int64 = 5 * 1024 * 1024

	// DefaultRetryAttempts bounds retries of transient failures per network call.
	DefaultRetryAttempts = 5

	// DefaultRequestTimeout bounds each individual network call.
	DefaultRequestTimeout = 15 * time.Second

	defaultRetryBaseDelay = 200 * time.Millisecond
	defaultRetryMaxDelay  = 5 * time.Second
)

// Options holds s3-specific options.  It is the explicit configuration struct passed at
// store construction time; sessions opened from the store inherit it.
type Options struct {
	AccessKeyID     string                `json:"accessKeyId,omitempty"`
	SecretAccessKey string                `json:"secretAccessKey,omitempty"`
	SessionToken    string                `json:"sessionToken,omitempty"`
	Region          string                `json:"region,omitempty"`
	RoleARN         string                `json:"roleARN,omitempty"`
	Endpoint        string                `json:"endpoint,omitempty"`
	ACL             types.ObjectCannedACL `json:"acl,omitempty"`
	ForcePathStyle  bool                  `json:"forcePathStyle,omitempty"`

	// Credentials is consulted when no static keys or RoleARN are set, e.g. the
	// credential.NewChain resolver.  Left nil, the SDK's default resolution applies.
	Credentials aws.CredentialsProvider

	// Retry is passed through to the underlying SDK client, replacing its default
	// retryer.  Independent of the adapter's own bounded backoff, which is governed by
	// RetryAttempts below.
	Retry aws.Retryer

	// RetryAttempts bounds the adapter's retries of transient failures per network call.
	// Zero means DefaultRetryAttempts.
	RetryAttempts int

	// RetryBaseDelay is the first backoff delay; it doubles per attempt up to an
	// internal cap.  Zero means the default.
	RetryBaseDelay time.Duration

	// RequestTimeout bounds each individual network call.  Zero means
	// DefaultRequestTimeout.
	RequestTimeout time.Duration

	// PartSize is the multipart flush threshold in bytes.  Zero means DefaultPartSize.
	// The service rejects parts below its 5 MiB minimum except as the final part.
	PartSize int64

	// DownloadPartitionSize is the partition size in bytes used by Download's concurrent
	// transfer manager.  Zero means the manager's default.
	DownloadPartitionSize int64

	// UploadPartitionSize is the partition size in bytes used by Upload's concurrent
	// transfer manager.  Zero means the manager's default.
	UploadPartitionSize int64
}

// getClient setup S3 client
func getClient(opt Options, region string) (Client, error) {
	// setup default config
	awsConfig, err := config.LoadDefaultConfig(context.Background())
	if err != nil {
		return nil, err
	}

	// return client instance
	return s3.NewFromConfig(awsConfig, func(opts *s3.Options) {
		switch {
		case region != "":
			opts.Region = region
		case opt.Region != "":
			opts.Region = opt.Region
		case opts.Region == "":
			opts.Region = DefaultRegion
		}

		// set filepath for minio users
		opts.UsePathStyle = opt.ForcePathStyle

		// use specific endpoint, otherwise, will use aws "default endpoint resolver" based on region
		if opt.Endpoint != "" {
			opts.BaseEndpoint = aws.String(opt.Endpoint)
		}

		if opt.Retry != nil {
			opts.Retryer = opt.Retry
		}

		if opt.AccessKeyID != "" && opt.SecretAccessKey != "" {
			opts.Credentials = credentials.NewStaticCredentialsProvider(
				opt.AccessKeyID,
				opt.SecretAccessKey,
				opt.SessionToken,
			)
		} else if opt.RoleARN != "" {
			opts.Credentials = aws.NewCredentialsCache(stscreds.NewAssumeRoleProvider(sts.NewFromConfig(awsConfig), opt.RoleARN))
		} else if opt.Credentials != nil {
			opts.Credentials = opt.Credentials
		}
	}), nil
}

func (o Options) retrier() retrier {
	r := retrier{
		maxAttempts: o.RetryAttempts,
		baseDelay:   o.RetryBaseDelay,
		maxDelay:    defaultRetryMaxDelay,
	}
	if r.maxAttempts <= 0 {
		r.maxAttempts = DefaultRetryAttempts
	}
	if r.baseDelay <= 0 {
		r.baseDelay = defaultRetryBaseDelay
	}
	return r
}

func (o Options) requestTimeout() time.Duration {
	if o.RequestTimeout > 0 {
		return o.RequestTimeout
	}
	return DefaultRequestTimeout
}

func (o Options) partSize() int64 {
	if o.PartSize <= 0 {
		return DefaultPartSize
	}
	return o.PartSize
}
