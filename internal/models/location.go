package models

// Location is where a marker should be placed. It is either a Coordinates
// value or a PostalAddress that has to be geocoded first.
type Location interface {
	location()
}

// PostalAddress is a free-text address or postcode.
type PostalAddress string

func (PostalAddress) location() {}
