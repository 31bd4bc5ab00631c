package quota

import (
	domain "file-vault-api/internal/domain/quota"
)

func fromDBModel(model *Usage) *domain.Usage {
	return &domain.Usage{
		Owner:         model.Owner,
		OriginalBytes: model.OriginalBytes,
		ActualBytes:   model.ActualBytes,
		UpdatedAt:     model.UpdatedAt,
	}
}
