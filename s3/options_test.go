package s3

import (
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/suite"

	"github.com/simonbru/s3stream"
)

type optionsTestSuite struct {
	suite.Suite
}

func (o *optionsTestSuite) TestDefaults() {
	opts := Options{}

	r := opts.retrier()
	o.Equal(DefaultRetryAttempts, r.maxAttempts)
	o.Equal(200*time.Millisecond, r.baseDelay)
	o.Equal(DefaultRequestTimeout, opts.requestTimeout())
	o.Equal(DefaultPartSize, opts.partSize())
}

func (o *optionsTestSuite) TestOverrides() {
	opts := Options{
		RetryAttempts:  2,
		RetryBaseDelay: time.Second,
		RequestTimeout: time.Minute,
		PartSize:       64,
	}

	r := opts.retrier()
	o.Equal(2, r.maxAttempts)
	o.Equal(time.Second, r.baseDelay)
	o.Equal(time.Minute, opts.requestTimeout())
	o.Equal(int64(64), opts.partSize())
}

func (o *optionsTestSuite) TestGetClient() {
	// no options
	client, err := getClient(Options{}, "")
	o.Require().NoError(err)
	o.NotNil(client, "client is set")

	// options set
	client, err = getClient(Options{
		AccessKeyID:     "mykey",
		SecretAccessKey: "mysecret",
		Region:          "some-region",
		Endpoint:        "https://s3.some-region.example.com",
		ForcePathStyle:  true,
		ACL:             types.ObjectCannedACLBucketOwnerFullControl,
	}, "")
	o.Require().NoError(err)
	o.NotNil(client, "client is set")

	// session region wins over configured region
	client, err = getClient(Options{Region: "configured-region"}, "session-region")
	o.Require().NoError(err)
	o.NotNil(client, "client is set")
}

func (o *optionsTestSuite) TestClassify() {
	o.Require().NoError(classify(nil))

	err := classify(&types.NoSuchKey{})
	o.Require().ErrorIs(err, s3stream.ErrNotExist)

	err = classify(&types.NotFound{})
	o.Require().ErrorIs(err, s3stream.ErrNotExist)

	plain := errors.New("something else")
	o.Equal(plain, classify(plain), "unclassified errors pass through untouched")
}

func TestOptions(t *testing.T) {
	suite.Run(t, new(optionsTestSuite))
}
