package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/manikandareas/masukptn-backend/internal/examclock"
	"github.com/manikandareas/masukptn-backend/internal/middleware"
	"github.com/manikandareas/masukptn-backend/internal/service"
)

const clockTickInterval = time.Second

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// clockFrame is one tick of the tryout section clock pushed to the client.
type clockFrame struct {
	ServerTime       time.Time `json:"server_time"`
	SectionIndex     int       `json:"section_index"`
	RemainingSeconds *int      `json:"remaining_seconds,omitempty"`
	Expired          bool      `json:"expired"`
	Finished         bool      `json:"finished"`
}

type wsError struct {
	Error string `json:"error"`
}

// WSHandler streams the server-authoritative section clock for a tryout
// attempt. The stream is push-only; section transitions stay on the HTTP
// API so the conditional-update guarantees apply.
type WSHandler struct {
	tryoutService *service.TryoutService
	log           zerolog.Logger
	upgrader      websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(tryoutService *service.TryoutService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		tryoutService: tryoutService,
		log:           log.With().Str("component", "ws_handler").Logger(),
		upgrader:      buildUpgrader(allowedOrigins),
	}
}

// TryoutClockStream godoc
// WS /ws/v1/tryout/:attempt_id/clock
// Pushes a clockFrame every second until the attempt finishes or the client
// disconnects. Expiry is reported once per section start.
func (h *WSHandler) TryoutClockStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	attemptID, ok := paramUUID(c, "attempt_id")
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Str("user_id", claims.UserID.String()).
		Str("attempt_id", attemptID.String()).
		Logger()

	// Drain the read side so close frames and pings are processed.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	wsLog.Info().Msg("Clock stream connected")

	ctx := c.Request.Context()
	guard := &examclock.ExpiryGuard{}
	ticker := time.NewTicker(clockTickInterval)
	defer ticker.Stop()

	for {
		state, err := h.tryoutService.StateByID(ctx, claims.UserID, attemptID)
		if err != nil {
			wsLog.Warn().Err(err).Msg("Clock state unavailable")
			h.writeJSON(conn, wsError{Error: "attempt unavailable"})
			return
		}

		frame := clockFrame{
			ServerTime:       state.ServerTime,
			SectionIndex:     state.Attempt.ConfigSnapshot.CurrentSectionIndex,
			RemainingSeconds: state.RemainingSeconds,
			Finished:         state.Finished,
		}
		if state.RemainingSeconds != nil && *state.RemainingSeconds == 0 {
			frame.Expired = true
			startedAt := state.Attempt.ConfigSnapshot.SectionStartedAt
			if startedAt != nil && guard.Fire(*startedAt) {
				wsLog.Info().Int("section_index", frame.SectionIndex).Msg("Section clock expired")
			}
		}

		if err := h.writeJSON(conn, frame); err != nil {
			wsLog.Debug().Msg("Connection closed")
			return
		}
		if frame.Finished {
			wsLog.Info().Msg("Attempt finished, closing stream")
			return
		}

		select {
		case <-ticker.C:
		case <-closed:
			wsLog.Debug().Msg("Client disconnected")
			return
		case <-ctx.Done():
			return
		}
	}
}

func (h *WSHandler) writeJSON(conn *websocket.Conn, v interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteJSON(v)
}
