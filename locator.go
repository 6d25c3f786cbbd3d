package s3stream

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Scheme is the URI scheme for locators handled by this module.
const Scheme = "s3"

// Locator is the structured address of a remote object, parsed from a single URI-like
// string of the form
//
//	s3://region/bucket/key[?version=value]
//
// The key may contain path-separator characters, which are kept verbatim.  A Locator is an
// immutable value: it is parsed once at configuration time and lives for the duration of
// one streaming session.
type Locator struct {
	Region  string
	Bucket  string
	Key     string
	Version string // empty means latest
}

// MissingFieldError is returned by Parse when a structurally valid locator string lacks
// one of the required region, bucket, or key fields.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("locator: missing %s", e.Field)
}

var schemeRE = regexp.MustCompile("^[A-Za-z][A-Za-z0-9+.-]*://")

// Parse parses a locator string into a Locator.  It returns ErrMalformedURI when the input
// is not structurally a URI with the expected scheme, and a *MissingFieldError naming the
// first absent field when region, bucket, or key is empty.  Parse has no side effects; the
// same input always yields the same Locator.
func Parse(uri string) (Locator, error) {
	if !schemeRE.MatchString(uri) {
		return Locator{}, fmt.Errorf("%w: %q", ErrMalformedURI, uri)
	}

	u, err := url.Parse(uri)
	if err != nil {
		return Locator{}, fmt.Errorf("%w: %v", ErrMalformedURI, err)
	}
	if u.Scheme != Scheme {
		return Locator{}, fmt.Errorf("%w: unsupported scheme %q", ErrMalformedURI, u.Scheme)
	}

	region := u.Host
	if region == "" {
		return Locator{}, &MissingFieldError{Field: "region"}
	}

	bucket, key, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
	if bucket == "" {
		return Locator{}, &MissingFieldError{Field: "bucket"}
	}
	if key == "" {
		return Locator{}, &MissingFieldError{Field: "key"}
	}

	return Locator{
		Region:  region,
		Bucket:  bucket,
		Key:     key,
		Version: u.Query().Get("version"),
	}, nil
}

// String formats the Locator back into its URI form.  For any Locator produced by Parse,
// Parse(l.String()) round-trips to an equal Locator.
func (l Locator) String() string {
	uri := fmt.Sprintf("%s://%s/%s/%s", Scheme, l.Region, l.Bucket, l.Key)
	if l.Version != "" {
		uri += "?version=" + l.Version
	}
	return uri
}
