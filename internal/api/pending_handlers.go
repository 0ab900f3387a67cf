package api

import (
	"fmt"
	"net/http"
	"strconv"

	"lifelog_agent/internal/pending"
	"lifelog_agent/pkg"
)

type createEntryRequest struct {
	Category  string         `json:"category"`
	Summary   string         `json:"summary"`
	RawText   string         `json:"raw_text,omitempty"`
	Data      map[string]any `json:"structured_data,omitempty"`
	SessionID string         `json:"session_id,omitempty"`
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}

	var req createEntryRequest
	if err := decodeBody(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	entry, err := s.entries.Create(r.Context(), ownerID, pending.CreateInput{
		Category:  pkg.Category(req.Category),
		Summary:   req.Summary,
		RawText:   req.RawText,
		Data:      req.Data,
		SessionID: req.SessionID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, entry)
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	filter := pending.Filter{
		Category:  pkg.Category(query.Get("category")),
		Status:    pkg.Status(query.Get("status")),
		SessionID: query.Get("session_id"),
	}
	if page, err := strconv.Atoi(query.Get("page")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(query.Get("limit")); err == nil {
		filter.Limit = limit
	}

	entries, meta, err := s.entries.List(r.Context(), ownerID, filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeDataMeta(w, http.StatusOK, entries, meta)
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}

	entry, err := s.entries.Get(r.Context(), ownerID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, entry)
}

type editEntryRequest struct {
	Summary *string        `json:"summary,omitempty"`
	Data    map[string]any `json:"structured_data,omitempty"`
}

func (s *Server) handleEditEntry(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}

	var req editEntryRequest
	if err := decodeBody(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	entry, err := s.entries.Edit(r.Context(), ownerID, r.PathValue("id"), pending.EditInput{
		Summary: req.Summary,
		Data:    req.Data,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, entry)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}

	if err := s.entries.Delete(r.Context(), ownerID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"id": r.PathValue("id"), "status": "deleted"})
}

func (s *Server) handleAcceptEntry(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}

	result, err := s.entries.Accept(r.Context(), ownerID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, result)
}

func (s *Server) handleRejectEntry(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}

	entry, err := s.entries.Reject(r.Context(), ownerID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, entry)
}

type acceptAllRequest struct {
	SessionID string `json:"session_id,omitempty"`
}

func (s *Server) handleAcceptAll(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}

	var req acceptAllRequest
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			writeFailure(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	results, err := s.entries.AcceptAll(r.Context(), ownerID, req.SessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	accepted := 0
	for _, result := range results {
		if result.Success {
			accepted++
		}
	}
	writeDataMeta(w, http.StatusOK, results, map[string]int{
		"accepted": accepted,
		"failed":   len(results) - accepted,
	})
}

func (s *Server) handlePendingSummary(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}

	summary, err := s.entries.PendingSummary(r.Context(), ownerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Data:    summary,
		Message: fmt.Sprintf("%d pending items from your Daily Update", summary.TotalPending),
	})
}
