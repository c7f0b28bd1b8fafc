package handler

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/manikandareas/masukptn-backend/internal/config"
	"github.com/manikandareas/masukptn-backend/internal/middleware"
	"github.com/manikandareas/masukptn-backend/internal/model"
	"github.com/manikandareas/masukptn-backend/internal/response"
	"github.com/manikandareas/masukptn-backend/internal/service"
	"github.com/manikandareas/masukptn-backend/internal/validator"
)

// ImportHandler handles the question-import management endpoints.
type ImportHandler struct {
	importService *service.ImportService
	cfg           *config.Config
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(importService *service.ImportService, cfg *config.Config) *ImportHandler {
	return &ImportHandler{importService: importService, cfg: cfg}
}

// Upload godoc
// POST /api/v1/admin/imports
// Accepts a PDF document and records a pending import.
func (h *ImportHandler) Upload(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	if !strings.EqualFold(filepath.Ext(file.Filename), ".pdf") {
		response.Fail(c, http.StatusUnsupportedMediaType, response.ErrUnsupportedFile)
		return
	}
	if file.Size > h.cfg.MaxUploadBytes {
		response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
		return
	}

	src, err := file.Open()
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	defer src.Close()

	qi, err := h.importService.Create(c.Request.Context(), claims.UserID, file.Filename, src)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"import": qi})
}

// List godoc
// GET /api/v1/admin/imports
func (h *ImportHandler) List(c *gin.Context) {
	limit, offset, page := pageParams(c)

	imports, total, err := h.importService.List(c.Request.Context(), limit, offset)
	if err != nil {
		failFromError(c, err)
		return
	}

	totalPages := (total + limit - 1) / limit
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"imports": imports}, &response.Pagination{
		Page:       page,
		PerPage:    limit,
		TotalItems: total,
		TotalPages: totalPages,
	})
}

// Get godoc
// GET /api/v1/admin/imports/:import_id
func (h *ImportHandler) Get(c *gin.Context) {
	importID, ok := paramUUID(c, "import_id")
	if !ok {
		return
	}

	qi, err := h.importService.Get(c.Request.Context(), importID)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"import": qi})
}

// Enqueue godoc
// POST /api/v1/admin/imports/:import_id/enqueue
// Dispatches the extraction job. Already queued or processing records are
// returned unchanged.
func (h *ImportHandler) Enqueue(c *gin.Context) {
	importID, ok := paramUUID(c, "import_id")
	if !ok {
		return
	}

	qi, err := h.importService.Enqueue(c.Request.Context(), importID)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"import": qi})
}

// Retry godoc
// POST /api/v1/admin/imports/:import_id/retry
func (h *ImportHandler) Retry(c *gin.Context) {
	importID, ok := paramUUID(c, "import_id")
	if !ok {
		return
	}

	qi, err := h.importService.Retry(c.Request.Context(), importID)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"import": qi})
}

// UpdateMetadata godoc
// PUT /api/v1/admin/imports/:import_id
func (h *ImportHandler) UpdateMetadata(c *gin.Context) {
	importID, ok := paramUUID(c, "import_id")
	if !ok {
		return
	}

	var req model.UpdateImportMetadataRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	qi, err := h.importService.UpdateDraftMetadata(c.Request.Context(), importID, &req)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"import": qi})
}

// UpdateDraftQuestion godoc
// PUT /api/v1/admin/imports/:import_id/questions/:index
func (h *ImportHandler) UpdateDraftQuestion(c *gin.Context) {
	importID, ok := paramUUID(c, "import_id")
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateDraftQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	qi, err := h.importService.UpdateDraftQuestion(c.Request.Context(), importID, index, &req)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"import": qi})
}

// Save godoc
// POST /api/v1/admin/imports/:import_id/save
func (h *ImportHandler) Save(c *gin.Context) {
	importID, ok := paramUUID(c, "import_id")
	if !ok {
		return
	}

	qi, err := h.importService.Save(c.Request.Context(), importID)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"import": qi})
}

// Delete godoc
// DELETE /api/v1/admin/imports/:import_id
// Removes stored objects first; the record survives any storage failure.
func (h *ImportHandler) Delete(c *gin.Context) {
	importID, ok := paramUUID(c, "import_id")
	if !ok {
		return
	}

	if err := h.importService.Delete(c.Request.Context(), importID); err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}
