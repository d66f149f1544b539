package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/todmy/project-grader/internal/auth"
	"github.com/todmy/project-grader/internal/survey"
)

func (s *Server) handleSystemStatistics(w http.ResponseWriter, r *http.Request) {
	st, err := s.stats.ForSystem(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to compute statistics")
		return
	}
	respondJSON(w, http.StatusOK, st)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
		"count": len(users),
	})
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Name     string `json:"name"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "username and password are required")
		return
	}
	if req.Role == "" {
		req.Role = auth.RoleStudent
	}
	if !auth.ValidRole(req.Role) {
		respondError(w, http.StatusBadRequest, "role must be student, teacher, or admin")
		return
	}

	user, err := s.authService.Register(r.Context(), req.Username, req.Password, req.Name, req.Role)
	if err != nil {
		if err == auth.ErrUserExists {
			respondError(w, http.StatusConflict, "user already exists")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	respondJSON(w, http.StatusCreated, user)
}

// handleUpdateUser changes a user's name, role, or status. Password resets
// also land here: a non-empty password field replaces the stored hash.
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	user, err := s.users.GetByID(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}
	if user == nil {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}

	var req struct {
		Name     *string `json:"name"`
		Role     *string `json:"role"`
		Status   *string `json:"status"`
		Password *string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Role != nil {
		if !auth.ValidRole(*req.Role) {
			respondError(w, http.StatusBadRequest, "role must be student, teacher, or admin")
			return
		}
		user.Role = *req.Role
	}
	if req.Status != nil {
		if *req.Status != auth.StatusActive && *req.Status != auth.StatusDisabled {
			respondError(w, http.StatusBadRequest, "status must be active or disabled")
			return
		}
		user.Status = *req.Status
	}
	if req.Password != nil && *req.Password != "" {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to hash password")
			return
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(r.Context(), user); err != nil {
		if err == auth.ErrUserNotFound {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	claims, _ := auth.GetUserFromContext(r.Context())
	if claims != nil && claims.UserID == userID {
		respondError(w, http.StatusBadRequest, "cannot delete your own account")
		return
	}

	if err := s.users.Delete(r.Context(), userID); err != nil {
		if err == auth.ErrUserNotFound {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleSurveyStatistics(w http.ResponseWriter, r *http.Request) {
	userType := r.URL.Query().Get("user_type")
	if userType != "" && userType != survey.TypeTeacher && userType != survey.TypeStudent {
		respondError(w, http.StatusBadRequest, "user_type must be teacher or student")
		return
	}

	st, err := s.surveys.Stats(r.Context(), userType)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to compute survey statistics")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"statistics":         st,
		"satisfaction_level": survey.SatisfactionLevel(st.OverallMean),
	})
}

func (s *Server) handleSurveyExport(w http.ResponseWriter, r *http.Request) {
	export, err := s.surveys.ExportForResearch(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to export survey data")
		return
	}
	respondJSON(w, http.StatusOK, export)
}
