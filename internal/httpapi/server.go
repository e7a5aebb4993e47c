package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/b2k4rys/TutorHub/internal/chat"
	"github.com/b2k4rys/TutorHub/internal/config"
	"github.com/b2k4rys/TutorHub/internal/identity"
	"github.com/b2k4rys/TutorHub/internal/observability"
	"github.com/b2k4rys/TutorHub/internal/room"
	"github.com/b2k4rys/TutorHub/internal/ticket"
)

type Server struct {
	cfg       config.Config
	resolver  identity.Resolver
	store     chat.Store
	directory *chat.Directory
	tickets   ticket.Store
	issuer    *ticket.Issuer
	hub       *room.Hub
	metrics   *observability.Metrics
	upgrader  websocket.Upgrader
}

func New(cfg config.Config, resolver identity.Resolver, store chat.Store, directory *chat.Directory, tickets ticket.Store, hub *room.Hub, metrics *observability.Metrics) *Server {
	s := &Server{
		cfg:       cfg,
		resolver:  resolver,
		store:     store,
		directory: directory,
		tickets:   tickets,
		issuer:    ticket.NewIssuer(tickets, cfg.TicketTTL),
		hub:       hub,
		metrics:   metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only allow browser websocket connections from the same
				// origin unless explicitly opened up.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
	hub.SetPruneHook(func(_ *room.Session) {
		metrics.BroadcastDrops.Inc()
		metrics.ActiveSessions.Set(float64(hub.ActiveCount()))
	})
	return s
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Post("/api/chat/ws-ticket/", s.handleIssueTicket)
		r.Post("/api/chat/start/{kind}/{id}/", s.handleStartChat)
		r.Get("/api/chat/{conversationID}/messages/", s.handleHistory)
	})

	r.Get("/ws/chat/{conversationID}/", s.handleChatWS)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":          "ready",
		"active_sessions": s.hub.ActiveCount(),
	})
}

// handleIssueTicket mints a one-time websocket ticket bound to the caller's
// own profile.
func (s *Server) handleIssueTicket(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "no account on request")
		return
	}

	profile, err := s.resolver.ResolveAccount(r.Context(), accountID)
	if errors.Is(err, identity.ErrNoProfile) {
		respondError(w, http.StatusBadRequest, "profile_missing", "account has no tutor or student profile")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal", "profile lookup failed")
		return
	}

	token, err := s.issuer.Issue(r.Context(), profile.Principal)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal", "ticket issuance failed")
		return
	}
	s.metrics.Tickets.WithLabelValues("issued").Inc()

	respondJSON(w, http.StatusCreated, map[string]string{"ticket": token})
}

// handleStartChat finds or creates the conversation between the caller and
// the principal named in the path, and returns its websocket URL.
func (s *Server) handleStartChat(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "no account on request")
		return
	}

	caller, err := s.resolver.ResolveAccount(r.Context(), accountID)
	if errors.Is(err, identity.ErrNoProfile) {
		respondError(w, http.StatusBadRequest, "profile_missing", "account has no tutor or student profile")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal", "profile lookup failed")
		return
	}

	kind, err := identity.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_kind", "user type must be tutor or student")
		return
	}
	otherID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || otherID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_id", "user id must be a positive integer")
		return
	}

	other, err := s.resolver.Resolve(r.Context(), kind, otherID)
	if errors.Is(err, identity.ErrNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "no such user")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal", "profile lookup failed")
		return
	}

	conv, created, err := s.directory.FindOrCreate(r.Context(), caller.Principal, other.Principal)
	if errors.Is(err, chat.ErrSamePrincipal) {
		respondError(w, http.StatusBadRequest, "invalid_pair", "cannot start a chat with yourself")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal", "conversation lookup failed")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respondJSON(w, status, map[string]any{
		"conversation_id": conv.ID,
		"ws_url":          fmt.Sprintf("/ws/chat/%s/", conv.ID),
		"created":         created,
	})
}

// handleHistory lists a conversation's messages ascending by time. Only
// participants may read it.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "no account on request")
		return
	}

	caller, err := s.resolver.ResolveAccount(r.Context(), accountID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "profile_missing", "account has no tutor or student profile")
		return
	}

	conversationID := chi.URLParam(r, "conversationID")
	if _, err := s.store.GetConversation(r.Context(), conversationID); err != nil {
		if errors.Is(err, chat.ErrConversationNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "no such conversation")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal", "conversation lookup failed")
		return
	}

	member, err := s.store.IsParticipant(r.Context(), conversationID, caller.Principal)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal", "membership check failed")
		return
	}
	if !member {
		respondError(w, http.StatusForbidden, "forbidden", "not a participant of this conversation")
		return
	}

	msgs, err := s.store.ListMessages(r.Context(), conversationID, s.cfg.HistoryLimit)
	if err != nil {
		log.Printf("history list failed for %s: %v", conversationID, err)
		respondError(w, http.StatusInternalServerError, "internal", "history lookup failed")
		return
	}

	out := make([]map[string]any, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, map[string]any{
			"id":          m.ID,
			"sender_name": m.SenderName,
			"content":     m.Content,
			"timestamp":   m.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
