package ids

import "github.com/segmentio/ksuid"

// New returns a sortable unique identifier suitable for product ids,
// session ids and upload flow ids.
func New() string {
	return ksuid.New().String()
}
