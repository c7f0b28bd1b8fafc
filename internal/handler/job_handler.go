package handler

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/manikandareas/masukptn-backend/internal/jobs"
	"github.com/manikandareas/masukptn-backend/internal/response"
)

// JobHandler executes registered jobs on behalf of the queue provider's HTTP
// callback. The same registry backs the Redis worker loop, so a job behaves
// identically no matter which transport delivered it.
type JobHandler struct {
	registry *jobs.Registry
	token    string
	log      zerolog.Logger
}

// NewJobHandler creates a new JobHandler. An empty token disables the
// endpoint auth check (dev only).
func NewJobHandler(registry *jobs.Registry, token string, log zerolog.Logger) *JobHandler {
	return &JobHandler{
		registry: registry,
		token:    token,
		log:      log.With().Str("component", "job_handler").Logger(),
	}
}

// Dispatch godoc
// POST /api/v1/jobs?job=<key>
// Authenticated with the X-Job-Token header. Runs the handler synchronously
// and reports its outcome.
func (h *JobHandler) Dispatch(c *gin.Context) {
	if h.token != "" {
		provided := c.GetHeader("X-Job-Token")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(h.token)) != 1 {
			response.Fail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			return
		}
	}

	key := c.Query("job")
	if key == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrJobKeyRequired)
		return
	}

	fn, ok := h.registry.Get(key)
	if !ok {
		response.Fail(c, http.StatusNotFound, response.ErrJobNotRegistered)
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}
	if len(body) == 0 {
		body = []byte("{}")
	}
	if !json.Valid(body) {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	if err := fn(c.Request.Context(), json.RawMessage(body)); err != nil {
		h.log.Error().Err(err).Str("job", key).Msg("Job handler failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"ok": true})
}
