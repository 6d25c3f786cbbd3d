// Package options defines the functional-option interfaces shared by store constructors.
package options

// NewStoreOption interface contains functions that should be implemented by any custom
// option used to configure a store at construction time.
// Example:
// ```
//
//	type takeProfileOption struct{ profile string }
//	func (o *takeProfileOption) Apply(st *Store) {
//		st.profile = o.profile
//	}
//	func (o *takeProfileOption) NewStoreOptionName() string {
//		return "profile"
//	}
//
// ```
type NewStoreOption[T any] interface {
	// Apply applies the option to the store under construction.
	Apply(*T)

	// NewStoreOptionName returns the name of the option.
	NewStoreOptionName() string
}
