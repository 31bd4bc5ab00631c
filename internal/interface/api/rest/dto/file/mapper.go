package file

import (
	"fmt"

	"file-vault-api/internal/domain/file"
)

// downloadPath mirrors the download route of the REST API.
const downloadPath = "/api/v1/files/%s/download"

func ToResponseFile(fDomain file.File) File {
	var f = File{
		ID:               fDomain.ID,
		File:             fmt.Sprintf(downloadPath, fDomain.ID),
		OriginalFilename: fDomain.OriginalFilename,
		FileType:         fDomain.FileType,
		Size:             fDomain.Size,
		UploadedAt:       fDomain.UploadedAt,
		UserID:           fDomain.Owner,
		FileHash:         fDomain.Fingerprint,
		IsReference:      fDomain.IsReference,
		ReferenceCount:   fDomain.ReferenceCount,
	}

	return f
}

func ToResponseFiles(fsDomain file.Files) Files {
	fs := make(Files, len(fsDomain))
	for idx, f := range fsDomain {
		fs[idx] = ToResponseFile(*f)
	}

	return fs
}

func ToResponseData(p file.Page) ResponseData {
	return ResponseData{
		Data:     ToResponseFiles(p.Files),
		Count:    p.Count,
		Page:     p.Page,
		PageSize: p.PageSize,
	}
}
