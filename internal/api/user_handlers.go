package api

import (
	"net/http"

	"github.com/glamlens/stylist/internal/models"
)

func (s *Server) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	user, err := s.stylist.GetProfile(r.Context(), userID)
	if err != nil {
		respondError(w, r, "Failed to fetch profile", err)
		return
	}

	respondOK(w, user, "")
}

func (s *Server) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	var update models.ProfileUpdate
	if err := decodeBody(w, r, &update); err != nil {
		respondError(w, r, "Invalid request", err)
		return
	}

	user, err := s.stylist.UpdateProfile(r.Context(), userID, update)
	if err != nil {
		respondError(w, r, "Failed to update profile", err)
		return
	}

	respondOK(w, user, "Profile updated successfully")
}

func (s *Server) HandleUsage(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	usage, err := s.stylist.Usage(r.Context(), userID)
	if err != nil {
		respondError(w, r, "Failed to fetch usage", err)
		return
	}

	respondOK(w, usage, "")
}
