package file

import (
	"time"

	"github.com/google/uuid"
)

type (
	File struct {
		ID               uuid.UUID `json:"id"`
		File             string    `json:"file"`
		OriginalFilename string    `json:"original_filename"`
		FileType         string    `json:"file_type"`
		Size             int64     `json:"size"`
		UploadedAt       time.Time `json:"uploaded_at"`
		UserID           string    `json:"user_id"`
		FileHash         string    `json:"file_hash"`
		IsReference      bool      `json:"is_reference"`
		ReferenceCount   int64     `json:"reference_count"`
	}
	Files        []File
	ResponseData struct {
		Data     Files `json:"data"`
		Count    int64 `json:"count"`
		Page     int   `json:"page"`
		PageSize int   `json:"page_size"`
	}
)
