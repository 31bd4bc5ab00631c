package rest

import (
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"file-vault-api/internal/application/ports"
	"file-vault-api/internal/domain/file"
	"file-vault-api/internal/domain/quota"
	dto "file-vault-api/internal/interface/api/rest/dto/file"
	"file-vault-api/internal/interface/api/rest/middleware"
	"file-vault-api/internal/interface/api/rest/validator"
)

// room for multipart boundaries and headers on top of the file itself
const multipartOverhead = int64(1 << 20)

type FileController struct {
	fileService    ports.FileService
	logger         *zap.Logger
	maxUploadBytes int64
}

// NewFileController mounts the file routes on r, which is expected to carry
// the Owner and RateLimit middleware.
func NewFileController(
	r gin.IRouter,
	fileService ports.FileService,
	logger *zap.Logger,
	maxUploadBytes int64,
) *FileController {
	fc := &FileController{
		fileService:    fileService,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}

	r.POST(RouteFiles, fc.UploadFileHandler)
	r.GET(RouteFiles, fc.GetFilesHandler)
	r.GET(RouteFileTypes, fc.GetFileTypesHandler)
	r.GET(RouteFile, fc.GetFileHandler)
	r.GET(RouteFileDownload, fc.DownloadFileHandler)
	r.DELETE(RouteFile, fc.DeleteFileHandler)

	return fc
}

func (fc *FileController) UploadFileHandler(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, fc.maxUploadBytes+multipartOverhead)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abortWithError(c, http.StatusRequestEntityTooLarge, "file too large", CodeUploadTooLarge)
			return
		}
		abortWithError(c, http.StatusBadRequest, MsgNoFile, CodeValidation)
		return
	}
	if fh.Size > fc.maxUploadBytes {
		abortWithError(c, http.StatusRequestEntityTooLarge, "file too large", CodeUploadTooLarge)
		return
	}

	data, err := readFormFile(fh)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "failed to read file", CodeValidation)
		fc.logger.Warn("readFormFile() error", zap.Error(err))
		return
	}

	f, err := fc.fileService.UploadFile(c.Request.Context(), file.Upload{
		Owner:       middleware.OwnerFrom(c),
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		switch {
		case errors.Is(err, quota.ErrQuotaExceeded):
			abortWithError(c, http.StatusRequestEntityTooLarge, MsgQuotaExceeded, CodeQuotaExceeded)
		case errors.Is(err, file.ErrValidation):
			abortWithError(c, http.StatusBadRequest, err.Error(), CodeValidation)
		default:
			abortWithError(c, http.StatusInternalServerError, "failed to upload a file", CodeInternal)
			fc.logger.Error("UploadFile() error", zap.Error(err))
		}
		return
	}

	c.JSON(http.StatusCreated, dto.ToResponseFile(*f))
}

func (fc *FileController) GetFilesHandler(c *gin.Context) {
	filter, errs := validator.ParseFilter(c.Request.URL.Query())
	if errs != nil {
		c.AbortWithStatusJSON(
			http.StatusBadRequest,
			gin.H{"error": "invalid query", "code": CodeValidation, "fields": errs},
		)
		return
	}

	page, err := fc.fileService.FindFiles(c.Request.Context(), middleware.OwnerFrom(c), filter)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "failed to get files", CodeInternal)
		fc.logger.Error("FindFiles() error", zap.Error(err))
		return
	}

	c.JSON(http.StatusOK, dto.ToResponseData(*page))
}

func (fc *FileController) GetFileHandler(c *gin.Context) {
	ok, id := validator.IsUUID(c.Param("file_id"))
	if !ok {
		abortWithError(c, http.StatusBadRequest, MsgInvalidFileID, CodeValidation)
		return
	}

	f, err := fc.fileService.FindFile(c.Request.Context(), middleware.OwnerFrom(c), id)
	if err != nil {
		if errors.Is(err, file.ErrNotFound) {
			abortWithError(c, http.StatusNotFound, MsgFileNotFound, CodeNotFound)
			return
		}
		abortWithError(c, http.StatusInternalServerError, "failed to get a file", CodeInternal)
		fc.logger.Error("FindFile() error", zap.Error(err))
		return
	}

	c.JSON(http.StatusOK, dto.ToResponseFile(*f))
}

func (fc *FileController) DownloadFileHandler(c *gin.Context) {
	ok, id := validator.IsUUID(c.Param("file_id"))
	if !ok {
		abortWithError(c, http.StatusBadRequest, MsgInvalidFileID, CodeValidation)
		return
	}

	f, data, err := fc.fileService.DownloadFile(c.Request.Context(), middleware.OwnerFrom(c), id)
	if err != nil {
		if errors.Is(err, file.ErrNotFound) {
			abortWithError(c, http.StatusNotFound, MsgFileNotFound, CodeNotFound)
			return
		}
		abortWithError(c, http.StatusInternalServerError, "failed to download a file", CodeInternal)
		fc.logger.Error("DownloadFile() error", zap.Error(err))
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": f.OriginalFilename,
	}))
	c.Data(http.StatusOK, f.FileType, data)
}

func (fc *FileController) DeleteFileHandler(c *gin.Context) {
	ok, id := validator.IsUUID(c.Param("file_id"))
	if !ok {
		abortWithError(c, http.StatusBadRequest, MsgInvalidFileID, CodeValidation)
		return
	}

	err := fc.fileService.DeleteFile(c.Request.Context(), middleware.OwnerFrom(c), id)
	if err != nil {
		switch {
		case errors.Is(err, file.ErrNotFound):
			abortWithError(c, http.StatusNotFound, MsgFileNotFound, CodeNotFound)
		case errors.Is(err, file.ErrConflict):
			abortWithError(c, http.StatusConflict, err.Error(), CodeConflict)
		default:
			abortWithError(c, http.StatusInternalServerError, "failed to delete a file", CodeInternal)
			fc.logger.Error("DeleteFile() error", zap.Error(err))
		}
		return
	}

	c.Status(http.StatusNoContent)
}

func (fc *FileController) GetFileTypesHandler(c *gin.Context) {
	types, err := fc.fileService.FindFileTypes(c.Request.Context(), middleware.OwnerFrom(c))
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "failed to get file types", CodeInternal)
		fc.logger.Error("FindFileTypes() error", zap.Error(err))
		return
	}

	c.JSON(http.StatusOK, types)
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	return io.ReadAll(src)
}
