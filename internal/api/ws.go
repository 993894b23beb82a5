package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"bezero/internal/chat"
	"bezero/internal/metrics"
	"bezero/internal/models"
	"bezero/internal/service"
)

type inboundFrame struct {
	Type   string `json:"type"`
	Kind   string `json:"kind,omitempty"`
	Body   string `json:"body"`
	CardID int64  `json:"card_id,omitempty"`
}

type errorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// handleChatSocket upgrades to WebSocket and joins the guest-house room.
// Access follows the same rule as chat history: checked-in guests and
// managers. Inbound frames are posted as chat messages; the service
// broadcasts them back through the hub, so the sender sees its own
// message the same way everyone else does.
func (s *Server) handleChatSocket(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	houseID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid guest house id")
		return
	}

	if err := s.svc.Chats.CanAccess(r.Context(), identity.UserID, houseID); err != nil {
		writeServiceError(w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	// Контекст запроса закрывается после апгрейда, для входящих кадров
	// нужен свой.
	client := chat.NewClient(s.hub, conn, identity.UserID, func(c *chat.Client, data []byte) {
		metrics.IncWSMessage("in")
		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			s.deliverError(c, "invalid frame")
			return
		}
		if frame.Kind == "" {
			frame.Kind = models.MessageText
		}
		if _, err := s.svc.Chats.PostMessage(context.Background(), c.UserID(), houseID, frame.Kind, frame.Body, frame.CardID); err != nil {
			s.deliverError(c, err.Error())
		}
	}, s.logger)

	metrics.WSConnect()
	client.OnClose(metrics.WSDisconnect)

	s.hub.Register(client, service.RoomKey(houseID), service.UserKey(identity.UserID))
	client.Start()
}

// handleDMSocket joins a direct-message room; only its two participants
// may connect. The user's personal room is joined as well so dm_request
// and dm_response notifications arrive on the same connection.
func (s *Server) handleDMSocket(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	roomID := mux.Vars(r)["id"]

	room, err := s.svc.DMs.GetRoom(r.Context(), identity.UserID, roomID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := chat.NewClient(s.hub, conn, identity.UserID, func(c *chat.Client, data []byte) {
		metrics.IncWSMessage("in")
		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			s.deliverError(c, "invalid frame")
			return
		}
		if _, err := s.svc.DMs.Send(context.Background(), c.UserID(), room.ID, frame.Body); err != nil {
			s.deliverError(c, err.Error())
		}
	}, s.logger)

	metrics.WSConnect()
	client.OnClose(metrics.WSDisconnect)

	s.hub.Register(client, service.DMRoomKey(room.ID), service.UserKey(identity.UserID))
	client.Start()
}

func (s *Server) deliverError(c *chat.Client, message string) {
	data, err := json.Marshal(errorFrame{Type: "error", Error: message})
	if err != nil {
		return
	}
	c.Deliver(data)
}
