package rest

import (
	"github.com/gin-gonic/gin"
)

// machine readable error codes sent next to the message
const (
	CodeValidation     = "validation_error"
	CodeNotFound       = "not_found"
	CodeConflict       = "conflict"
	CodeQuotaExceeded  = "quota_exceeded"
	CodeUploadTooLarge = "upload_too_large"
	CodeInternal       = "internal_error"
)

const (
	MsgNoFile        = "No file provided"
	MsgQuotaExceeded = "Storage Quota Exceeded"
	MsgFileNotFound  = "file not found"
	MsgInvalidFileID = "file_id must be a valid UUID"
)

func abortWithError(c *gin.Context, status int, msg, code string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg, "code": code})
}
