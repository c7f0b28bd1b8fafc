package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/manikandareas/masukptn-backend/internal/response"
	"github.com/manikandareas/masukptn-backend/internal/service"
)

// CatalogHandler serves the public read endpoints.
type CatalogHandler struct {
	catalogService *service.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// ListExams godoc
// GET /api/v1/catalog/exams
func (h *CatalogHandler) ListExams(c *gin.Context) {
	entries, err := h.catalogService.ListExams(c.Request.Context())
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exams": entries})
}

// GetExam godoc
// GET /api/v1/catalog/exams/:exam_id
func (h *CatalogHandler) GetExam(c *gin.Context) {
	examID, ok := paramUUID(c, "exam_id")
	if !ok {
		return
	}

	entry, err := h.catalogService.GetExam(c.Request.Context(), examID)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, entry)
}

// ListSubtests godoc
// GET /api/v1/catalog/subtests
func (h *CatalogHandler) ListSubtests(c *gin.Context) {
	subtests, err := h.catalogService.ListSubtests(c.Request.Context())
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"subtests": subtests})
}
