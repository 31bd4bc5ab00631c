package content

import "time"

type Object struct {
	Fingerprint    string
	ByteSize       int64
	ReferenceCount int64
	CreatedAt      time.Time
}
