package content

import "time"

// Object is the physical content behind one fingerprint.
type Object struct {
	Fingerprint    string
	Size           int64
	ReferenceCount int64
	CreatedAt      time.Time
}
