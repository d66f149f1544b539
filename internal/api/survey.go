package api

import (
	"encoding/json"
	"net/http"

	"github.com/todmy/project-grader/internal/auth"
	"github.com/todmy/project-grader/internal/survey"
)

// handleSubmitSurvey records a satisfaction survey response for the caller.
// Each user may respond once.
func (s *Server) handleSubmitSurvey(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req struct {
		UserType string             `json:"user_type"`
		Name     string             `json:"name"`
		Answers  map[string]float64 `json:"answers"`
		Comment  string             `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.UserType != survey.TypeTeacher && req.UserType != survey.TypeStudent {
		respondError(w, http.StatusBadRequest, "user_type must be teacher or student")
		return
	}
	if len(req.Answers) == 0 {
		respondError(w, http.StatusBadRequest, "answers are required")
		return
	}
	for q, score := range req.Answers {
		if score < 0 || score > 5 {
			respondError(w, http.StatusBadRequest, "score for "+q+" must be between 0 and 5")
			return
		}
	}

	responded, err := s.surveys.HasResponded(r.Context(), claims.Username)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to check survey status")
		return
	}
	if responded {
		respondError(w, http.StatusConflict, "survey already submitted")
		return
	}

	resp, err := s.surveys.Add(r.Context(), req.UserType, claims.Username, req.Name, req.Answers, req.Comment)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to save survey response")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{
		"id":     resp.ID,
		"status": "recorded",
	})
}

func (s *Server) handleSurveyResponded(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	responded, err := s.surveys.HasResponded(r.Context(), claims.Username)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to check survey status")
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"responded": responded})
}
