package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"nexus-arena-service/internal/app"
	"nexus-arena-service/internal/domain"
)

type WSHandler struct {
	service  *app.ArenaService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.ArenaService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type startPayload struct {
	Mode       string `json:"mode"`
	Subject    string `json:"subject"`
	Difficulty string `json:"difficulty"`
	TeamCount  int    `json:"teamCount"`
}

type answerPayload struct {
	Index int `json:"index"`
}

type lifelinePayload struct {
	Kind string `json:"kind"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and drives sessions through
// the arena use cases. One connection runs one session at a time.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	var (
		sessionID   string
		unsubscribe func()
		pumpDone    chan struct{}
	)
	stopPump := func() {
		if unsubscribe != nil {
			unsubscribe()
			<-pumpDone
			unsubscribe = nil
			sessionID = ""
		}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "start":
			var payload startPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errMsg("invalid start payload")
				continue
			}
			if sessionID != "" {
				_ = h.service.Abort(sessionID)
				stopPump()
			}
			snap, err := h.service.StartSession(r.Context(), userID, domain.GameSettings{
				Mode:       domain.GameMode(payload.Mode),
				Subject:    payload.Subject,
				Difficulty: domain.Difficulty(payload.Difficulty),
				TeamCount:  payload.TeamCount,
			})
			if err != nil {
				send <- errMsg(err.Error())
				continue
			}
			sessionID = snap.ID

			updates, cancel, err := h.service.Subscribe(sessionID)
			if err != nil {
				send <- errMsg(err.Error())
				sessionID = ""
				continue
			}
			unsubscribe = cancel
			pumpDone = make(chan struct{})
			go func(updates <-chan app.Snapshot, done chan struct{}) {
				defer close(done)
				for snap := range updates {
					select {
					case send <- outboundMessage[any]{Type: "state", Payload: snap}:
					case <-closeSignals:
						return
					}
				}
			}(updates, pumpDone)

		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errMsg("invalid answer payload")
				continue
			}
			if _, err := h.service.SubmitAnswer(sessionID, payload.Index); err != nil {
				send <- errMsg(err.Error())
			}

		case "lifeline":
			var payload lifelinePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errMsg("invalid lifeline payload")
				continue
			}
			if _, err := h.service.UseLifeline(sessionID, domain.LifelineType(payload.Kind)); err != nil {
				send <- errMsg(err.Error())
			}

		case "advance":
			if _, err := h.service.Advance(sessionID); err != nil {
				send <- errMsg(err.Error())
			}

		case "abort":
			if err := h.service.Abort(sessionID); err != nil {
				send <- errMsg(err.Error())
			}
			stopPump()

		case "state":
			snap, err := h.service.Snapshot(sessionID)
			if err != nil {
				send <- errMsg(err.Error())
				continue
			}
			send <- outboundMessage[any]{Type: "state", Payload: snap}

		default:
			send <- errMsg("unsupported message type")
		}
	}

	if sessionID != "" {
		_ = h.service.Abort(sessionID)
	}
	close(closeSignals)
	stopPump()
	close(send)
	<-writerDone
}

func errMsg(message string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: message}}
}
