package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/manikandareas/masukptn-backend/internal/model"
	"github.com/manikandareas/masukptn-backend/internal/response"
	"github.com/manikandareas/masukptn-backend/internal/service"
)

// paramUUID parses a path parameter as a UUID, failing the request with
// INVALID_ID when malformed.
func paramUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

// pageParams reads ?page and ?per_page with sane bounds.
func pageParams(c *gin.Context) (limit, offset, page int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return perPage, (page - 1) * perPage, page
}

// failFromError maps service sentinel errors onto the response envelope.
func failFromError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrForbidden):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
	case errors.Is(err, service.ErrInvalidMode):
		response.Fail(c, http.StatusConflict, response.ErrInvalidMode)
	case errors.Is(err, service.ErrAlreadyCompleted):
		response.Fail(c, http.StatusConflict, response.ErrAlreadyCompleted)
	case errors.Is(err, service.ErrSectionOrder), errors.Is(err, service.ErrSectionNotStarted):
		response.Fail(c, http.StatusConflict, response.ErrSectionOrder)
	case errors.Is(err, service.ErrMissingBlueprint):
		response.Fail(c, http.StatusConflict, response.ErrMissingBlueprint)
	case errors.Is(err, service.ErrInsufficientBank):
		response.Fail(c, http.StatusConflict, response.ErrConflict)
	case errors.Is(err, model.ErrAnswerTypeMismatch):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrAnswerTypeMismatch)
	case errors.Is(err, service.ErrNotReviewable):
		response.Fail(c, http.StatusConflict, response.ErrImportNotReviewable)
	case errors.Is(err, service.ErrImportBusy):
		response.Fail(c, http.StatusConflict, response.ErrConflict)
	case errors.Is(err, service.ErrDraftIncomplete):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrValidation)
	case errors.Is(err, service.ErrQueueDispatch):
		response.Fail(c, http.StatusBadGateway, response.ErrQueueDispatchFailed)
	case errors.Is(err, service.ErrStorageFailure):
		response.Fail(c, http.StatusBadGateway, response.ErrStorage)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
