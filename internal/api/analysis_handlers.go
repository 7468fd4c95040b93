package api

import (
	"net/http"

	"github.com/glamlens/stylist/internal/validation"
	"github.com/go-chi/chi/v5"
)

type AnalyzeOutfitRequest struct {
	Image string `json:"image"`
}

func (s *Server) HandleAnalyzeOutfit(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	var req AnalyzeOutfitRequest
	if err := decodeBodyLimit(w, r, &req, s.maxBodyBytes); err != nil {
		respondError(w, r, "Invalid request", err)
		return
	}

	upload, err := validation.DecodeImagePayload(req.Image)
	if err != nil {
		respondError(w, r, "Invalid image", err)
		return
	}

	result, err := s.stylist.AnalyzeOutfit(r.Context(), userID, upload)
	if err != nil {
		respondError(w, r, "Analysis failed", err)
		return
	}

	respondOK(w, map[string]any{
		"sessionId": result.Session.SessionID,
		"analysis":  result.Session.Analysis,
		"source":    result.Source,
	}, "Analysis completed")
}

func (s *Server) HandleHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	page, err := s.stylist.ListHistory(r.Context(), userID,
		validation.ParsePagination(q.Get("page"), q.Get("limit"), historyPageSize))
	if err != nil {
		respondError(w, r, "Failed to fetch history", err)
		return
	}

	respondOK(w, page, "")
}

func (s *Server) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	session, err := s.stylist.GetSession(r.Context(), userID, chi.URLParam(r, "sessionId"))
	if err != nil {
		respondError(w, r, "Failed to fetch session", err)
		return
	}

	respondOK(w, session, "")
}
