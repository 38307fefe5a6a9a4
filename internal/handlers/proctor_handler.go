package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
	"github.com/SAP-F-2025/quiz-engine/internal/services"
	"github.com/SAP-F-2025/quiz-engine/internal/utils"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

// ProctorHandler ingests behavioral signals, over plain POST for hosts that
// batch, and over a websocket for hosts that stream.
type ProctorHandler struct {
	sessions  *services.SessionManager
	validator *utils.Validator
	logger    *slog.Logger
	upgrader  websocket.Upgrader
}

func NewProctorHandler(sessions *services.SessionManager, validator *utils.Validator, logger *slog.Logger) *ProctorHandler {
	return &ProctorHandler{
		sessions:  sessions,
		validator: validator,
		logger:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The engine runs behind the platform gateway; origin policy is
			// enforced there.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// SignalRequest is one reported behavioral signal.
type SignalRequest struct {
	Kind string    `json:"kind" validate:"required"`
	At   time.Time `json:"at"`

	Key   string `json:"key,omitempty"`
	Ctrl  bool   `json:"ctrl,omitempty"`
	Shift bool   `json:"shift,omitempty"`
	Alt   bool   `json:"alt,omitempty"`

	OuterWidth  int `json:"outer_width,omitempty"`
	OuterHeight int `json:"outer_height,omitempty"`
	InnerWidth  int `json:"inner_width,omitempty"`
	InnerHeight int `json:"inner_height,omitempty"`
}

func (r SignalRequest) signal() services.Signal {
	return services.Signal{
		Kind:        services.SignalKind(r.Kind),
		At:          r.At,
		Key:         r.Key,
		Ctrl:        r.Ctrl,
		Shift:       r.Shift,
		Alt:         r.Alt,
		OuterWidth:  r.OuterWidth,
		OuterHeight: r.OuterHeight,
		InnerWidth:  r.InnerWidth,
		InnerHeight: r.InnerHeight,
	}
}

// SignalResponse tells the host what its signal amounted to.
type SignalResponse struct {
	Event      *models.SecurityEvent `json:"event,omitempty"`
	Suppress   bool                  `json:"suppress"`
	AutoSubmit bool                  `json:"auto_submit"`
	Violations int                   `json:"violations"`
}

// ReportSignal classifies one signal against the principal's active monitor.
func (h *ProctorHandler) ReportSignal(c *gin.Context) {
	var req SignalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body", Details: err.Error()})
		return
	}
	if err := h.validator.Validate(req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request", Details: err.Error()})
		return
	}

	session, err := h.sessions.Session(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	result := session.Observe(c.Request.Context(), req.signal())
	c.JSON(http.StatusOK, SuccessResponse{Data: SignalResponse{
		Event:      result.Event,
		Suppress:   result.Suppress,
		AutoSubmit: result.AutoSubmit,
		Violations: session.Monitor().ViolationCount(),
	}})
}

// ===== WEBSOCKET =====

type wsInbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type wsOutbound struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// ServeWS upgrades the connection and streams signals in and verdicts plus
// recorded security events out. Inbound message types: "signal". Outbound:
// "verdict", "event", "error".
func (h *ProctorHandler) ServeWS(c *gin.Context) {
	session, err := h.sessions.Session(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade websocket", "error", err)
		return
	}

	send := make(chan wsOutbound, 32)
	done := make(chan struct{})

	go h.writeLoop(conn, send, done)
	go h.forwardEvents(session, send, done)
	h.readLoop(c, conn, session, send)

	close(done)
	conn.Close()
}

// readLoop consumes inbound signal messages until the peer disconnects.
func (h *ProctorHandler) readLoop(c *gin.Context, conn *websocket.Conn, session *services.AttemptSession, send chan<- wsOutbound) {
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		var msg wsInbound
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("Websocket read failed", "error", err)
			}
			return
		}

		switch msg.Type {
		case "signal":
			var req SignalRequest
			if err := json.Unmarshal(msg.Payload, &req); err != nil {
				h.trySend(send, wsOutbound{Type: "error", Payload: gin.H{"message": "invalid signal payload"}})
				continue
			}
			if err := h.validator.Validate(req); err != nil {
				h.trySend(send, wsOutbound{Type: "error", Payload: gin.H{"message": err.Error()}})
				continue
			}
			result := session.Observe(c.Request.Context(), req.signal())
			h.trySend(send, wsOutbound{Type: "verdict", Payload: SignalResponse{
				Event:      result.Event,
				Suppress:   result.Suppress,
				AutoSubmit: result.AutoSubmit,
				Violations: session.Monitor().ViolationCount(),
			}})
		default:
			h.trySend(send, wsOutbound{Type: "error", Payload: gin.H{"message": "unknown message type"}})
		}
	}
}

// writeLoop owns the connection's write side: outbound messages and pings.
func (h *ProctorHandler) writeLoop(conn *websocket.Conn, send <-chan wsOutbound, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg := <-send:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// forwardEvents pushes recorded security events to the peer as they happen,
// so a proctoring UI can render the log live. The stream closing means the
// monitor stopped; the loop ends quietly.
func (h *ProctorHandler) forwardEvents(session *services.AttemptSession, send chan<- wsOutbound, done <-chan struct{}) {
	stream := session.Monitor().Events()
	if stream == nil {
		return
	}
	for {
		select {
		case event, ok := <-stream:
			if !ok {
				return
			}
			h.trySend(send, wsOutbound{Type: "event", Payload: event})
		case <-done:
			return
		}
	}
}

// trySend drops the message when the write side is saturated; the event log
// remains authoritative.
func (h *ProctorHandler) trySend(send chan<- wsOutbound, msg wsOutbound) {
	select {
	case send <- msg:
	default:
	}
}
