package s3

import "github.com/simonbru/s3stream/options"

const (
	optionNameClient  = "client"
	optionNameOptions = "options"
)

// WithClient returns clientOpt implementation of NewStoreOption
//
// WithClient is used to explicitly specify a Client to use for every session opened from
// the store, e.g. a mock client in tests.
func WithClient(c Client) options.NewStoreOption[Store] {
	return &clientOpt{
		client: c,
	}
}

type clientOpt struct {
	client Client
}

func (ct *clientOpt) Apply(st *Store) {
	st.client = ct.client
}

func (ct *clientOpt) NewStoreOptionName() string {
	return optionNameClient
}

// WithOptions returns optionsOpt implementation of NewStoreOption
//
// WithOptions is used to specify options for the store.
// The options are used to configure the sessions it opens.
func WithOptions(options Options) options.NewStoreOption[Store] {
	return &optionsOpt{
		options: options,
	}
}

type optionsOpt struct {
	options Options
}

func (o *optionsOpt) Apply(st *Store) {
	st.options = o.options
}

func (o *optionsOpt) NewStoreOptionName() string {
	return optionNameOptions
}
