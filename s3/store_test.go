package s3

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/simonbru/s3stream"
	"github.com/simonbru/s3stream/s3/mocks"
)

type storeTestSuite struct {
	suite.Suite
}

func (ts *storeTestSuite) TestNewWithOptions() {
	opts := Options{Region: "eu-west-1", PartSize: 1024}
	st := New(WithOptions(opts))
	ts.Equal(opts, st.options)
	ts.Nil(st.client, "no client until a session is opened")
}

func (ts *storeTestSuite) TestNewWithClient() {
	client := mocks.NewClient(ts.T())
	st := New(WithClient(client))

	got, err := st.clientFor(s3stream.Locator{Region: "us-west-2", Bucket: "b", Key: "k"})
	ts.Require().NoError(err)
	ts.Same(client, got, "an injected client is shared by every session")
}

func (ts *storeTestSuite) TestChainableSetters() {
	client := mocks.NewClient(ts.T())
	st := New().WithOptions(Options{Region: "us-east-1"}).WithClient(client)
	ts.Equal("us-east-1", st.options.Region)
	ts.Same(client, st.client)
}

func (ts *storeTestSuite) TestNameAndScheme() {
	st := New()
	ts.Equal("AWS S3", st.Name())
	ts.Equal("s3", st.Scheme())
}

func (ts *storeTestSuite) TestOptionNames() {
	ts.Equal("client", WithClient(nil).NewStoreOptionName())
	ts.Equal("options", WithOptions(Options{}).NewStoreOptionName())
}

func TestStore(t *testing.T) {
	suite.Run(t, new(storeTestSuite))
}
