package s3stream

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
)

type locatorSuite struct {
	suite.Suite
}

type locatorTest struct {
	uri          string
	expected     Locator
	hasError     bool
	errMessage   string
	missingField string
	message      string
}

func (s *locatorSuite) TestParse() {
	tests := []locatorTest{
		{
			uri: "s3://us-west-2/my-bucket/my-object-key",
			expected: Locator{
				Region: "us-west-2",
				Bucket: "my-bucket",
				Key:    "my-object-key",
			},
			message: "simple key",
		},
		{
			uri: "s3://ap-south-1/my-bucket/my-object-key/with/slashes?version=v2",
			expected: Locator{
				Region:  "ap-south-1",
				Bucket:  "my-bucket",
				Key:     "my-object-key/with/slashes",
				Version: "v2",
			},
			message: "key with slashes kept verbatim, versioned",
		},
		{
			uri: "s3://eu-central-1/media/segments/2024/01/seg-000123.ts",
			expected: Locator{
				Region: "eu-central-1",
				Bucket: "media",
				Key:    "segments/2024/01/seg-000123.ts",
			},
			message: "deep key",
		},
		{
			uri:        "not a uri at all",
			hasError:   true,
			errMessage: "locator: malformed uri",
			message:    "no scheme",
		},
		{
			uri:        "/just/a/path",
			hasError:   true,
			errMessage: "locator: malformed uri",
			message:    "bare path",
		},
		{
			uri:        "gs://us-west-2/my-bucket/key",
			hasError:   true,
			errMessage: "locator: malformed uri",
			message:    "wrong scheme",
		},
		{
			uri:          "s3:///my-bucket/my-object-key",
			hasError:     true,
			missingField: "region",
			message:      "empty region",
		},
		{
			uri:          "s3://us-west-2",
			hasError:     true,
			missingField: "bucket",
			message:      "no bucket",
		},
		{
			uri:          "s3://us-west-2//my-object-key",
			hasError:     true,
			missingField: "bucket",
			message:      "empty bucket",
		},
		{
			uri:          "s3://us-west-2/my-bucket",
			hasError:     true,
			missingField: "key",
			message:      "no key",
		},
		{
			uri:          "s3://us-west-2/my-bucket/",
			hasError:     true,
			missingField: "key",
			message:      "empty key",
		},
	}

	for _, t := range tests {
		s.Run(t.message, func() {
			loc, err := Parse(t.uri)
			if t.hasError {
				s.Require().Error(err, t.message)
				if t.missingField != "" {
					var missing *MissingFieldError
					s.Require().ErrorAs(err, &missing, t.message)
					s.Equal(t.missingField, missing.Field, t.message)
				} else {
					s.Require().ErrorIs(err, ErrMalformedURI, t.message)
					s.Contains(err.Error(), t.errMessage, t.message)
				}
			} else {
				s.Require().NoError(err, t.message)
				s.Equal(t.expected, loc, t.message)
			}
		})
	}
}

func (s *locatorSuite) TestRoundTrip() {
	uris := []string{
		"s3://us-west-2/my-bucket/my-object-key",
		"s3://ap-south-1/my-bucket/my-object-key/with/slashes?version=v2",
		"s3://us-east-1/b/k?version=null-version-id",
	}

	for _, uri := range uris {
		loc, err := Parse(uri)
		s.Require().NoError(err)
		s.Equal(uri, loc.String(), "String() should reproduce the parsed input")

		again, err := Parse(loc.String())
		s.Require().NoError(err)
		s.Equal(loc, again, "Parse(String()) should round-trip")
	}
}

func (s *locatorSuite) TestMissingFieldErrorIsNotMalformed() {
	_, err := Parse("s3://us-west-2/my-bucket")
	s.Require().Error(err)
	s.False(errors.Is(err, ErrMalformedURI), "a missing field is not a malformed uri")
}

func TestLocator(t *testing.T) {
	suite.Run(t, new(locatorSuite))
}
