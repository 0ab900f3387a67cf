package api

import (
	"net/http"
	"strings"
)

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}

	started, err := s.updates.StartSession(r.Context(), ownerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, started)
}

func (s *Server) handleGetActiveSession(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}

	active, err := s.updates.GetActiveSession(r.Context(), ownerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, active)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}

	ended, err := s.updates.EndSession(r.Context(), ownerID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, ended)
}

func (s *Server) handleConversationState(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}

	state, err := s.updates.GetConversationState(r.Context(), ownerID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, state)
}

type chatRequest struct {
	SessionID   string `json:"session_id"`
	UserMessage string `json:"user_message"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}

	var req chatRequest
	if err := decodeBody(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.SessionID == "" {
		writeFailure(w, http.StatusBadRequest, "session_id is required")
		return
	}
	if strings.TrimSpace(req.UserMessage) == "" {
		writeFailure(w, http.StatusBadRequest, "user_message is required")
		return
	}

	resp, err := s.updates.Chat(r.Context(), ownerID, req.SessionID, req.UserMessage)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, resp)
}
