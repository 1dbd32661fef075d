package driver

import "errors"

var (
	// ErrPrecondition reports a missing library, container, marker
	// configuration or position. The message names the failing call.
	ErrPrecondition = errors.New("precondition failed")
	// ErrNotFound reports a marker that is not in the driver's collection.
	ErrNotFound = errors.New("marker not found")
	// ErrAddressNotFound reports an address the geocoder could not place.
	ErrAddressNotFound = errors.New("address not found")
)
