package file

import (
	domain "file-vault-api/internal/domain/file"
)

func fromDBModel(model *File) *domain.File {
	var f = &domain.File{
		ID:               model.ID,
		Owner:            model.Owner,
		OriginalFilename: model.OriginalFilename,
		FileType:         model.FileType,
		Size:             model.Size,
		Fingerprint:      model.Fingerprint,
		IsReference:      model.IsReference,
		UploadedAt:       model.UploadedAt,
	}
	if model.ReferenceCount != nil {
		f.ReferenceCount = *model.ReferenceCount
	}

	return f
}

func fromDBModels(models *Files) domain.Files {
	fs := make(domain.Files, len(*models))
	for idx, f := range *models {
		fs[idx] = fromDBModel(f)
	}

	return fs
}
