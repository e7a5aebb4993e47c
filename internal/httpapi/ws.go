package httpapi

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/b2k4rys/TutorHub/internal/chat"
	"github.com/b2k4rys/TutorHub/internal/identity"
	"github.com/b2k4rys/TutorHub/internal/protocol"
	"github.com/b2k4rys/TutorHub/internal/room"
	"github.com/b2k4rys/TutorHub/internal/ticket"
)

const (
	writeTimeout = 10 * time.Second
	readTimeout  = 120 * time.Second
	maxFrameSize = 64 << 10
)

// handleChatWS authenticates a websocket handshake against a one-time
// ticket and, on success, joins the connection to its conversation's room.
// Every check runs before the Upgrade, so a rejected attempt never holds
// any session state.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("ticket")
	if token == "" {
		s.rejectHandshake(w, http.StatusUnauthorized, "unauthenticated", "missing ticket")
		return
	}

	// Fetch-and-delete in one step: of two connections racing on the same
	// token, at most one gets the claim.
	claim, err := s.tickets.GetDel(r.Context(), token)
	if errors.Is(err, ticket.ErrNotFound) {
		s.rejectHandshake(w, http.StatusUnauthorized, "unauthenticated", "unknown or expired ticket")
		return
	}
	if err != nil {
		s.rejectHandshake(w, http.StatusInternalServerError, "internal", "ticket lookup failed")
		return
	}
	s.metrics.Tickets.WithLabelValues("consumed").Inc()

	profile, err := s.resolver.Resolve(r.Context(), claim.Kind, claim.ID)
	if errors.Is(err, identity.ErrNotFound) {
		s.rejectHandshake(w, http.StatusUnauthorized, "unauthenticated", "ticket principal no longer exists")
		return
	}
	if err != nil {
		s.rejectHandshake(w, http.StatusInternalServerError, "internal", "profile lookup failed")
		return
	}

	conversationID := chi.URLParam(r, "conversationID")
	if _, err := s.store.GetConversation(r.Context(), conversationID); err != nil {
		if errors.Is(err, chat.ErrConversationNotFound) {
			s.rejectHandshake(w, http.StatusNotFound, "not_found", "no such conversation")
			return
		}
		s.rejectHandshake(w, http.StatusInternalServerError, "internal", "conversation lookup failed")
		return
	}

	member, err := s.store.IsParticipant(r.Context(), conversationID, profile.Principal)
	if err != nil {
		s.rejectHandshake(w, http.StatusInternalServerError, "internal", "membership check failed")
		return
	}
	if !member {
		s.rejectHandshake(w, http.StatusForbidden, "forbidden", "not a participant of this conversation")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.metrics.Handshakes.WithLabelValues("upgrade_failed").Inc()
		return
	}
	s.metrics.Handshakes.WithLabelValues("accepted").Inc()

	sess := room.NewSession(profile.Principal, profile.Name, conversationID, s.cfg.SendBufferSize)
	s.hub.Join(sess)
	s.metrics.ActiveSessions.Set(float64(s.hub.ActiveCount()))
	log.Printf("ws connected: %s (%s) conversation=%s", profile.Name, profile.Principal.Key(), conversationID)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeLoop(conn, sess)
	}()

	s.readLoop(r.Context(), conn, sess)

	s.hub.Leave(sess)
	<-writerDone
	_ = conn.Close()
	s.metrics.ActiveSessions.Set(float64(s.hub.ActiveCount()))
	log.Printf("ws disconnected: %s conversation=%s", profile.Principal.Key(), conversationID)
}

func (s *Server) rejectHandshake(w http.ResponseWriter, status int, code, message string) {
	s.metrics.Handshakes.WithLabelValues(code).Inc()
	respondError(w, status, code, message)
}

// readLoop processes inbound frames one at a time in arrival order. A
// malformed frame is dropped and the connection stays open; a persistence
// failure closes it.
func (s *Server) readLoop(ctx context.Context, conn *websocket.Conn, sess *room.Session) {
	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		if msgType != websocket.TextMessage {
			continue
		}

		in, err := protocol.ParseInbound(data)
		if err != nil {
			s.metrics.WSFrames.WithLabelValues("inbound", "malformed").Inc()
			log.Printf("dropping malformed frame from %s: %v", sess.Principal.Key(), err)
			continue
		}
		s.metrics.WSFrames.WithLabelValues("inbound", "ok").Inc()

		msg, err := s.store.AppendMessage(ctx, sess.ConversationID, sess.Principal, sess.Name, in.Message)
		if err != nil {
			log.Printf("persist message failed for %s: %v", sess.ConversationID, err)
			return
		}
		s.metrics.MessagesPersisted.Inc()

		s.hub.Broadcast(sess.ConversationID, protocol.ChatEvent{
			Message:    msg.Content,
			SenderID:   msg.Sender.ID,
			SenderName: msg.SenderName,
			SenderType: msg.Sender.Kind,
			Timestamp:  msg.CreatedAt,
		})
	}
}

// writeLoop drains the session's event queue onto the wire. It exits when
// the queue is closed (leave or prune) or a write fails.
func (s *Server) writeLoop(conn *websocket.Conn, sess *room.Session) {
	for event := range sess.Events() {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(event); err != nil {
			s.metrics.WSFrames.WithLabelValues("outbound", "write_error").Inc()
			// Unblock the reader; Leave on the read path is idempotent.
			_ = conn.Close()
			return
		}
		s.metrics.WSFrames.WithLabelValues("outbound", "ok").Inc()
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
