package api

import (
	"net/http"

	"github.com/glamlens/stylist/internal/models"
	"github.com/glamlens/stylist/internal/services/styling"
	"github.com/glamlens/stylist/internal/validation"
	"github.com/go-chi/chi/v5"
)

func (s *Server) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	var opts styling.GenerateOptions
	if err := decodeBody(w, r, &opts); err != nil {
		respondError(w, r, "Invalid request", err)
		return
	}

	result, err := s.stylist.GenerateRecommendations(r.Context(), userID, chi.URLParam(r, "sessionId"), opts)
	if err != nil {
		respondError(w, r, "Failed to generate recommendations", err)
		return
	}

	respondOK(w, result, "Recommendations generated successfully")
}

func (s *Server) HandleRegenerate(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	category, err := validation.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		respondError(w, r, "Invalid category", err)
		return
	}

	var opts styling.RegenerateOptions
	if err := decodeBody(w, r, &opts); err != nil {
		respondError(w, r, "Invalid request", err)
		return
	}

	result, err := s.stylist.RegenerateCategory(r.Context(), userID, chi.URLParam(r, "sessionId"), category, opts)
	if err != nil {
		respondError(w, r, "Failed to regenerate recommendations", err)
		return
	}

	respondOK(w, result, string(category)+" recommendations regenerated")
}

func (s *Server) HandleSaved(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	var category models.Category
	if raw := q.Get("category"); raw != "" {
		c, err := validation.ParseCategory(raw)
		if err != nil {
			respondError(w, r, "Invalid category", err)
			return
		}
		category = c
	}

	page, err := s.stylist.ListSaved(r.Context(), userID, category,
		validation.ParsePagination(q.Get("page"), q.Get("limit"), savedPageSize))
	if err != nil {
		respondError(w, r, "Failed to fetch saved recommendations", err)
		return
	}

	respondOK(w, page, "")
}

type SaveRequest struct {
	Save *bool `json:"save"`
}

func (s *Server) HandleSave(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	var req SaveRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, r, "Invalid request", err)
		return
	}
	save := req.Save == nil || *req.Save

	if err := s.stylist.SetSaved(r.Context(), userID, chi.URLParam(r, "sessionId"), save); err != nil {
		respondError(w, r, "Failed to save recommendations", err)
		return
	}

	message := "Recommendations saved"
	if !save {
		message = "Recommendations unsaved"
	}
	respondOK(w, map[string]bool{"saved": save}, message)
}

type FeedbackRequest struct {
	Rating   int    `json:"rating"`
	Comments string `json:"comments"`
	Helpful  bool   `json:"helpful"`
	Liked    *bool  `json:"liked"`
}

func (s *Server) HandleFeedback(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	var req FeedbackRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, r, "Invalid request", err)
		return
	}

	interaction, err := s.stylist.SubmitFeedback(r.Context(), userID, chi.URLParam(r, "sessionId"),
		models.Feedback{Rating: req.Rating, Comments: req.Comments, Helpful: req.Helpful}, req.Liked)
	if err != nil {
		respondError(w, r, "Failed to submit feedback", err)
		return
	}

	respondOK(w, interaction, "Feedback recorded")
}
