// ABOUTME: HTTP handler upgrading to websocket and dispatching chat events
// ABOUTME: Rejections map to connection-local error events, never broadcasts

package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"

	"github.com/crewbase/chat-gateway/internal/auth"
	"github.com/crewbase/chat-gateway/internal/chat"
)

// Handler serves the /ws endpoint.
type Handler struct {
	svc      *chat.Service
	verifier auth.TokenVerifier
	upgrader websocket.Upgrader
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates the websocket handler. allowedOrigins lists the
// browser origins permitted to open sessions; an empty list falls back to
// same-origin. Requests without an Origin header (non-browser clients)
// pass either way. Pass nil logger for default.
func NewHandler(svc *chat.Service, verifier auth.TokenVerifier, allowedOrigins []string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		svc:      svc,
		verifier: verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		validate: validator.New(),
		logger:   logger.With("component", "ws"),
	}
}

// originChecker builds the upgrade origin policy. Origins compare
// case-insensitively with any trailing slash ignored.
func originChecker(allowed []string) func(*http.Request) bool {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		allowedSet[strings.ToLower(strings.TrimSuffix(origin, "/"))] = struct{}{}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if len(allowedSet) > 0 {
			_, ok := allowedSet[strings.ToLower(strings.TrimSuffix(origin, "/"))]
			return ok
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return strings.EqualFold(u.Host, r.Host)
	}
}

// ServeHTTP authenticates the handshake, upgrades, and runs the session
// until the socket drops.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token, err := auth.FromRequest(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	userID, err := h.verifier.Verify(token)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	sock, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		return
	}

	conn := newConnection(userID, sock, h.logger)
	go conn.writeLoop()

	h.logger.Info("connection established", "conn_id", conn.ID(), "user_id", userID)

	defer func() {
		// Transport-level disconnect: purge all memberships. The server
		// retains nothing; a reconnecting client re-issues join-project.
		h.svc.Disconnect(conn)
		conn.close(websocket.CloseNormalClosure, "session ended")
		h.logger.Info("connection closed", "conn_id", conn.ID(), "user_id", userID)
	}()

	h.readLoop(r.Context(), conn)
}

func (h *Handler) readLoop(ctx context.Context, conn *Connection) {
	conn.ws.SetReadLimit(1 << 20)
	_ = conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	conn.ws.SetPongHandler(func(string) error {
		return conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := conn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("read failed", "conn_id", conn.ID(), "error", err)
			}
			return
		}
		h.dispatch(ctx, conn, frame)
	}
}

// dispatch decodes one inbound envelope and routes it to the chat service.
// Each event is handled to completion before the next frame is read, which
// is what guarantees per-connection ordering of sends within a room.
func (h *Handler) dispatch(ctx context.Context, conn *Connection, frame []byte) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		h.reject(conn, fmt.Errorf("%w: malformed envelope", chat.ErrValidation))
		return
	}

	var err error
	switch env.Event {
	case chat.EventJoinProject:
		var p JoinProjectPayload
		if err = h.decode(env.Data, &p); err == nil {
			// Authenticated identity, never the payload's userId/role.
			err = h.svc.Join(ctx, conn, p.ProjectID, conn.UserID())
		}

	case chat.EventLeaveProject:
		var p LeaveProjectPayload
		if err = h.decode(env.Data, &p); err == nil {
			h.svc.Leave(conn, p.ProjectID)
		}

	case chat.EventSendMessage:
		var p SendMessagePayload
		if err = h.decode(env.Data, &p); err == nil {
			_, err = h.svc.Send(ctx, conn, p.ProjectID, p.Message, p.Attachments)
		}

	case chat.EventPinMessage:
		var p MessageRefPayload
		if err = h.decode(env.Data, &p); err == nil {
			_, err = h.svc.Pin(ctx, conn, p.ProjectID, p.MessageID, true)
		}

	case chat.EventUnpinMessage:
		var p MessageRefPayload
		if err = h.decode(env.Data, &p); err == nil {
			_, err = h.svc.Pin(ctx, conn, p.ProjectID, p.MessageID, false)
		}

	case chat.EventDeleteMessage:
		var p MessageRefPayload
		if err = h.decode(env.Data, &p); err == nil {
			err = h.svc.Delete(ctx, conn, p.ProjectID, p.MessageID)
		}

	case chat.EventTyping:
		var p TypingPayload
		if err = h.decode(env.Data, &p); err == nil {
			err = h.svc.Typing(conn, p.ProjectID, p.UserName, p.IsTyping)
		}

	default:
		err = fmt.Errorf("%w: unknown event %q", chat.ErrValidation, env.Event)
	}

	if err != nil {
		h.logger.Debug("event rejected",
			"conn_id", conn.ID(),
			"event", env.Event,
			"error", err)
		h.reject(conn, err)
	}
}

// decode unmarshals and validates a client payload.
func (h *Handler) decode(data json.RawMessage, payload any) error {
	if err := json.Unmarshal(data, payload); err != nil {
		return fmt.Errorf("%w: malformed payload", chat.ErrValidation)
	}
	if err := h.validate.Struct(payload); err != nil {
		return fmt.Errorf("%w: %v", chat.ErrValidation, err)
	}
	return nil
}

// reject surfaces a failure to the originating connection only.
func (h *Handler) reject(conn *Connection, err error) {
	_ = conn.Send(chat.EventError, chat.ErrorPayload{Message: chat.UserMessage(err)})
}
