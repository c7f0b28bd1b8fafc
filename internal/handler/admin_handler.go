package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/manikandareas/masukptn-backend/internal/model"
	"github.com/manikandareas/masukptn-backend/internal/response"
	"github.com/manikandareas/masukptn-backend/internal/service"
	"github.com/manikandareas/masukptn-backend/internal/validator"
)

// AdminHandler handles subtest, exam and blueprint management endpoints.
type AdminHandler struct {
	adminService *service.AdminService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// CreateSubtest godoc
// POST /api/v1/admin/subtests
func (h *AdminHandler) CreateSubtest(c *gin.Context) {
	var req model.CreateSubtestRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	subtest, err := h.adminService.CreateSubtest(c.Request.Context(), &req)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"subtest": subtest})
}

// ListSubtests godoc
// GET /api/v1/admin/subtests
func (h *AdminHandler) ListSubtests(c *gin.Context) {
	subtests, err := h.adminService.ListSubtests(c.Request.Context())
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"subtests": subtests})
}

// DeleteSubtest godoc
// DELETE /api/v1/admin/subtests/:subtest_id
func (h *AdminHandler) DeleteSubtest(c *gin.Context) {
	subtestID, ok := paramUUID(c, "subtest_id")
	if !ok {
		return
	}

	if err := h.adminService.DeleteSubtest(c.Request.Context(), subtestID); err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// CreateExam godoc
// POST /api/v1/admin/exams
func (h *AdminHandler) CreateExam(c *gin.Context) {
	var req model.CreateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.adminService.CreateExam(c.Request.Context(), &req)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"exam": exam})
}

// ListExams godoc
// GET /api/v1/admin/exams
func (h *AdminHandler) ListExams(c *gin.Context) {
	exams, err := h.adminService.ListExams(c.Request.Context())
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// GetExam godoc
// GET /api/v1/admin/exams/:exam_id
func (h *AdminHandler) GetExam(c *gin.Context) {
	examID, ok := paramUUID(c, "exam_id")
	if !ok {
		return
	}

	exam, err := h.adminService.GetExam(c.Request.Context(), examID)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// UpdateExam godoc
// PUT /api/v1/admin/exams/:exam_id
func (h *AdminHandler) UpdateExam(c *gin.Context) {
	examID, ok := paramUUID(c, "exam_id")
	if !ok {
		return
	}

	var req model.UpdateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.adminService.UpdateExam(c.Request.Context(), examID, &req)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// DeleteExam godoc
// DELETE /api/v1/admin/exams/:exam_id
func (h *AdminHandler) DeleteExam(c *gin.Context) {
	examID, ok := paramUUID(c, "exam_id")
	if !ok {
		return
	}

	if err := h.adminService.DeleteExam(c.Request.Context(), examID); err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// CreateBlueprint godoc
// POST /api/v1/admin/blueprints
func (h *AdminHandler) CreateBlueprint(c *gin.Context) {
	var req model.CreateBlueprintRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	blueprint, err := h.adminService.CreateBlueprint(c.Request.Context(), &req)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"blueprint": blueprint})
}

// GetBlueprint godoc
// GET /api/v1/admin/blueprints/:blueprint_id
func (h *AdminHandler) GetBlueprint(c *gin.Context) {
	blueprintID, ok := paramUUID(c, "blueprint_id")
	if !ok {
		return
	}

	blueprint, err := h.adminService.GetBlueprint(c.Request.Context(), blueprintID)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"blueprint": blueprint})
}

// ListBlueprints godoc
// GET /api/v1/admin/exams/:exam_id/blueprints
func (h *AdminHandler) ListBlueprints(c *gin.Context) {
	examID, ok := paramUUID(c, "exam_id")
	if !ok {
		return
	}

	blueprints, err := h.adminService.ListBlueprints(c.Request.Context(), examID)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"blueprints": blueprints})
}

// ArchiveBlueprint godoc
// POST /api/v1/admin/blueprints/:blueprint_id/archive
func (h *AdminHandler) ArchiveBlueprint(c *gin.Context) {
	blueprintID, ok := paramUUID(c, "blueprint_id")
	if !ok {
		return
	}

	if err := h.adminService.ArchiveBlueprint(c.Request.Context(), blueprintID); err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}
