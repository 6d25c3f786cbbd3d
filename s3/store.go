package s3

import (
	"context"
	"fmt"

	"github.com/simonbru/s3stream"
	"github.com/simonbru/s3stream/options"
)

const name = "AWS S3"

// Store is the session factory for the S3 adapter.  It holds configuration only; each
// reader or writer opened from it is an independent session owning its own handle state,
// so concurrent sessions require no coordination.
//
// Unless a client has been injected with WithClient, a fresh client is constructed per
// session so that credentials are re-resolved per session, honoring rotation and expiry.
type Store struct {
	client  Client
	options Options
}

// New initializes a Store with the given options.
func New(opts ...options.NewStoreOption[Store]) *Store {
	st := &Store{}
	for _, o := range opts {
		o.Apply(st)
	}
	return st
}

// Name returns "AWS S3"
func (st *Store) Name() string {
	return name
}

// Scheme returns "s3" as the initial part of a locator URI ie: s3://
func (st *Store) Scheme() string {
	return s3stream.Scheme
}

// WithOptions sets options on the store and returns the store (chainable).
func (st *Store) WithOptions(opts Options) *Store {
	st.options = opts
	return st
}

// WithClient passes in an s3 client and returns the store (chainable).  Sessions opened
// from the store will share the given client instead of constructing their own.
func (st *Store) WithClient(client Client) *Store {
	st.client = client
	return st
}

// clientFor returns the injected client if any, otherwise constructs one for the session,
// pinned to the locator's region.
func (st *Store) clientFor(loc s3stream.Locator) (Client, error) {
	if st.client != nil {
		return st.client, nil
	}
	client, err := getClient(st.options, loc.Region)
	if err != nil {
		return nil, fmt.Errorf("unable to create client: %w", err)
	}
	return client, nil
}

// OpenReader opens a read session for the object addressed by loc.  It probes the object's
// size up front; a nonexistent object surfaces s3stream.ErrNotExist.
func (st *Store) OpenReader(ctx context.Context, loc s3stream.Locator) (*Reader, error) {
	client, err := st.clientFor(loc)
	if err != nil {
		return nil, err
	}
	return openReader(ctx, client, loc, st.options)
}

// OpenWriter opens a write session for the object addressed by loc, initiating a multipart
// upload.  The remote object does not exist until Close commits it.
func (st *Store) OpenWriter(ctx context.Context, loc s3stream.Locator) (*Writer, error) {
	client, err := st.clientFor(loc)
	if err != nil {
		return nil, err
	}
	return openWriter(ctx, client, loc, st.options)
}
