// Package server exposes the question answering service over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"hrchat/internal/service"
	"hrchat/internal/store"
)

// Server wires the HTTP routes for chat, history, escalations, and admin.
type Server struct {
	svc   *service.Service
	chats *store.Store
	log   *zap.SugaredLogger
}

// New creates the server. chats may be nil when persistence is disabled;
// history and escalation routes then answer 503.
func New(svc *service.Service, chats *store.Store, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Server{svc: svc, chats: chats, log: log}
}

// Handler builds the full route table with CORS applied.
func (s *Server) Handler(allowedOrigins []string) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/chat", s.handleChat).Methods(http.MethodPost)
	r.HandleFunc("/reindex", s.handleReindex).Methods(http.MethodPost)
	r.HandleFunc("/chats", s.handleListChats).Methods(http.MethodGet)
	r.HandleFunc("/chats", s.handleClearChats).Methods(http.MethodDelete)
	r.HandleFunc("/chats/{id}", s.handleGetChat).Methods(http.MethodGet)
	r.HandleFunc("/chats/{id}", s.handleDeleteChat).Methods(http.MethodDelete)
	r.HandleFunc("/escalations", s.handleListEscalations).Methods(http.MethodGet)
	r.HandleFunc("/escalations/{id}/resolve", s.handleResolveEscalation).Methods(http.MethodPost)

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	return c.Handler(r)
}

type chatRequest struct {
	UserID   string `json:"user_id"`
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	env, err := s.svc.Ask(r.Context(), req.UserID, req.Question, req.TopK)
	if err != nil {
		if errors.Is(err, service.ErrEmptyQuestion) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.log.Errorw("chat failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to answer question")
		return
	}
	writeJSON(w, http.StatusOK, env)
}

func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	// Reindexing reads and embeds the whole corpus; detach from the request
	// deadline but keep a generous ceiling.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	summary, chunks, err := s.svc.Reindex(ctx)
	if err != nil {
		if errors.Is(err, service.ErrNoDocuments) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.log.Errorw("reindex failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to rebuild index")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"chunks":  chunks,
		"summary": summary,
	})
}

func (s *Server) handleListChats(w http.ResponseWriter, r *http.Request) {
	if s.chats == nil {
		writeError(w, http.StatusServiceUnavailable, "chat history is disabled")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	records, err := s.chats.ListChats(r.Context(), r.URL.Query().Get("user_id"), limit)
	if err != nil {
		s.log.Errorw("list chats failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list chats")
		return
	}
	if records == nil {
		records = []store.ChatRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleGetChat(w http.ResponseWriter, r *http.Request) {
	if s.chats == nil {
		writeError(w, http.StatusServiceUnavailable, "chat history is disabled")
		return
	}
	rec, err := s.chats.GetChat(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "chat not found")
			return
		}
		s.log.Errorw("get chat failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load chat")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteChat(w http.ResponseWriter, r *http.Request) {
	if s.chats == nil {
		writeError(w, http.StatusServiceUnavailable, "chat history is disabled")
		return
	}
	if err := s.chats.DeleteChat(r.Context(), mux.Vars(r)["id"]); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "chat not found")
			return
		}
		s.log.Errorw("delete chat failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete chat")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearChats(w http.ResponseWriter, r *http.Request) {
	if s.chats == nil {
		writeError(w, http.StatusServiceUnavailable, "chat history is disabled")
		return
	}
	if err := s.chats.ClearChats(r.Context(), r.URL.Query().Get("user_id")); err != nil {
		s.log.Errorw("clear chats failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to clear chats")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListEscalations(w http.ResponseWriter, r *http.Request) {
	if s.chats == nil {
		writeError(w, http.StatusServiceUnavailable, "escalations are disabled")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	records, err := s.chats.ListEscalations(r.Context(), r.URL.Query().Get("status"), limit)
	if err != nil {
		s.log.Errorw("list escalations failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list escalations")
		return
	}
	if records == nil {
		records = []store.EscalationRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleResolveEscalation(w http.ResponseWriter, r *http.Request) {
	if s.chats == nil {
		writeError(w, http.StatusServiceUnavailable, "escalations are disabled")
		return
	}
	if err := s.chats.ResolveEscalation(r.Context(), mux.Vars(r)["id"]); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "escalation not found")
			return
		}
		s.log.Errorw("resolve escalation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to resolve escalation")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"chunks":   s.svc.ChunkCount(),
		"provider": s.svc.ProviderName(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
