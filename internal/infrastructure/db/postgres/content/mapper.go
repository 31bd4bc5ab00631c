package content

import (
	domain "file-vault-api/internal/domain/content"
)

func fromDBModel(model *Object) *domain.Object {
	return &domain.Object{
		Fingerprint:    model.Fingerprint,
		Size:           model.ByteSize,
		ReferenceCount: model.ReferenceCount,
		CreatedAt:      model.CreatedAt,
	}
}
