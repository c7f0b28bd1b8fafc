package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/manikandareas/masukptn-backend/internal/middleware"
	"github.com/manikandareas/masukptn-backend/internal/model"
	"github.com/manikandareas/masukptn-backend/internal/response"
	"github.com/manikandareas/masukptn-backend/internal/service"
	"github.com/manikandareas/masukptn-backend/internal/validator"
)

// TryoutHandler handles tryout attempt endpoints.
type TryoutHandler struct {
	tryoutService *service.TryoutService
}

// NewTryoutHandler creates a new TryoutHandler.
func NewTryoutHandler(tryoutService *service.TryoutService) *TryoutHandler {
	return &TryoutHandler{tryoutService: tryoutService}
}

type startSectionRequest struct {
	SectionIndex *int `json:"section_index" binding:"required,min=0"`
}

type advanceSectionRequest struct {
	FromIndex *int `json:"from_index" binding:"required,min=0"`
}

// Start godoc
// POST /api/v1/tryout
func (h *TryoutHandler) Start(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.StartTryoutRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	detail, err := h.tryoutService.Start(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, detail)
}

// List godoc
// GET /api/v1/tryout
func (h *TryoutHandler) List(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attempts, err := h.tryoutService.List(c.Request.Context(), claims.UserID)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"attempts": attempts})
}

// Get godoc
// GET /api/v1/tryout/:attempt_id
// Returns the attempt detail plus clock state for offset correction.
func (h *TryoutHandler) Get(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	attemptID, ok := paramUUID(c, "attempt_id")
	if !ok {
		return
	}

	detail, state, err := h.tryoutService.Get(c.Request.Context(), claims.UserID, attemptID)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"attempt": detail,
		"state":   state,
	})
}

// State godoc
// GET /api/v1/tryout/:attempt_id/state
// Clock-only view for polling clients; question payloads are omitted.
func (h *TryoutHandler) State(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	attemptID, ok := paramUUID(c, "attempt_id")
	if !ok {
		return
	}

	state, err := h.tryoutService.StateByID(c.Request.Context(), claims.UserID, attemptID)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"state": state})
}

// StartSection godoc
// POST /api/v1/tryout/:attempt_id/sections/start
func (h *TryoutHandler) StartSection(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	attemptID, ok := paramUUID(c, "attempt_id")
	if !ok {
		return
	}

	var req startSectionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	state, err := h.tryoutService.StartSection(c.Request.Context(), claims.UserID, attemptID, *req.SectionIndex)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"state": state})
}

// AdvanceSection godoc
// POST /api/v1/tryout/:attempt_id/sections/advance
func (h *TryoutHandler) AdvanceSection(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	attemptID, ok := paramUUID(c, "attempt_id")
	if !ok {
		return
	}

	var req advanceSectionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	state, err := h.tryoutService.AdvanceSection(c.Request.Context(), claims.UserID, attemptID, *req.FromIndex)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"state": state})
}

// SubmitAnswer godoc
// PUT /api/v1/tryout/:attempt_id/items/:item_id
func (h *TryoutHandler) SubmitAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	attemptID, ok := paramUUID(c, "attempt_id")
	if !ok {
		return
	}
	itemID, ok := paramUUID(c, "item_id")
	if !ok {
		return
	}

	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	item, err := h.tryoutService.SubmitAnswer(c.Request.Context(), claims.UserID, attemptID, itemID, &req)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"item": item})
}

// CalculateResults godoc
// POST /api/v1/tryout/:attempt_id/results
// Idempotent: a completed attempt returns its stored results unchanged.
func (h *TryoutHandler) CalculateResults(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	attemptID, ok := paramUUID(c, "attempt_id")
	if !ok {
		return
	}

	attempt, err := h.tryoutService.CalculateResults(c.Request.Context(), claims.UserID, attemptID)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"attempt": attempt})
}
