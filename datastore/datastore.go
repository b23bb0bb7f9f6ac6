// Package datastore holds persistence helpers shared by the per-domain
// gorm stores.
package datastore

// DefaultLimit caps list queries that do not ask for a limit of their
// own.
const DefaultLimit = 1000

// ListOptions limits and offsets list queries.
type ListOptions struct {
	Limit  int
	Offset int
}

// ParseListOptions normalizes raw query values: a zero limit takes the
// default, a negative limit disables the cap entirely and resets the
// offset.
func ParseListOptions(limit, offset int) ListOptions {
	o := ListOptions{Limit: limit, Offset: offset}

	switch {
	case o.Limit == 0:
		o.Limit = DefaultLimit
	case o.Limit < 0:
		o.Limit = -1
		o.Offset = 0
	}

	if o.Offset < 0 {
		o.Offset = 0
	}

	return o
}
