package file

import (
	"time"

	"github.com/google/uuid"
)

type (
	File struct {
		ID               uuid.UUID
		Owner            string
		OriginalFilename string
		FileType         string
		Size             int64
		Fingerprint      string
		IsReference      bool
		UploadedAt       time.Time

		// owner_holdings.reference_count, NULL only for orphaned rows
		ReferenceCount *int64
	}
	Files []*File
)
