package file

import (
	"time"

	"github.com/google/uuid"
)

type (
	ID   = uuid.UUID
	File struct {
		ID               ID
		Owner            string
		OriginalFilename string
		FileType         string
		Size             int64
		Fingerprint      string
		IsReference      bool
		UploadedAt       time.Time

		// ReferenceCount is filled on reads: live records of the same owner
		// sharing Fingerprint, this one included.
		ReferenceCount int64
	}
	Files []*File
)

// Upload is one incoming file as received from a client.
type Upload struct {
	Owner       string
	Filename    string
	ContentType string
	Data        []byte
}
