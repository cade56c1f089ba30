package http

import (
	"encoding/json"
	"net/http"

	"quiz-attempt-service/internal/app"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WSHandler streams a user's attempt list over a websocket.
type WSHandler struct {
	service  *app.AttemptService
	auth     Authenticator
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.AttemptService, auth Authenticator, logger *zap.Logger) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{
		service: service,
		auth:    auth,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Register mounts the websocket route on mux.
func (h *WSHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws/attempts", requireUser(h.auth, h.ServeWS))
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type deletePayload struct {
	AttemptID string `json:"attemptId"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeWS sends an "attempts" snapshot on connect and after every change.
// Clients may send "refresh" to reload from the store or "delete" to remove an attempt.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := userFrom(r.Context())

	updates, cancel, err := h.service.Subscribe(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// single writer; gorilla connections do not allow concurrent writes
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write error", zap.String("user_id", userID), zap.Error(err))
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "attempts", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	reply := func(msg outboundMessage[any]) {
		select {
		case send <- msg:
		case <-writerDone:
		}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "refresh":
			if _, err := h.service.List(r.Context(), userID); err != nil {
				reply(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
			}
		case "delete":
			var payload deletePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				reply(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid delete payload"}})
				continue
			}
			if err := h.service.Delete(r.Context(), payload.AttemptID, userID); err != nil {
				reply(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
			}
		default:
			reply(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
