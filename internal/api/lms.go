package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"
)

// lmsSubmission is the normalized form of an LMS webhook payload. Each
// platform handler maps its own shape onto this before processing.
type lmsSubmission struct {
	Platform string
	Username string
	FileName string
	Content  string
}

const lmsProcessTimeout = 2 * time.Minute

// handleGoogleClassroomWebhook accepts a courseWork submission notification.
func (s *Server) handleGoogleClassroomWebhook(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		StudentEmail string `json:"student_email"`
		CourseWork   struct {
			Title string `json:"title"`
		} `json:"course_work"`
		Submission struct {
			Text string `json:"text"`
		} `json:"submission"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.acceptLMSSubmission(w, lmsSubmission{
		Platform: "google-classroom",
		Username: usernameFromEmail(payload.StudentEmail),
		FileName: payload.CourseWork.Title,
		Content:  payload.Submission.Text,
	})
}

// handleBlackboardWebhook accepts a Blackboard Learn attempt event.
func (s *Server) handleBlackboardWebhook(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		UserID     string `json:"userId"`
		Assignment string `json:"assignmentName"`
		Attempt    struct {
			Text string `json:"studentSubmission"`
		} `json:"attempt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.acceptLMSSubmission(w, lmsSubmission{
		Platform: "blackboard",
		Username: payload.UserID,
		FileName: payload.Assignment,
		Content:  payload.Attempt.Text,
	})
}

// handleCanvasWebhook accepts a Canvas submission_created event.
func (s *Server) handleCanvasWebhook(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		User struct {
			LoginID string `json:"login_id"`
		} `json:"user"`
		Assignment struct {
			Name string `json:"name"`
		} `json:"assignment"`
		Submission struct {
			Body string `json:"body"`
		} `json:"submission"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.acceptLMSSubmission(w, lmsSubmission{
		Platform: "canvas",
		Username: payload.User.LoginID,
		FileName: payload.Assignment.Name,
		Content:  payload.Submission.Body,
	})
}

// acceptLMSSubmission validates the normalized submission, responds 202, and
// grades it in the background so the LMS never waits on the AI call.
func (s *Server) acceptLMSSubmission(w http.ResponseWriter, sub lmsSubmission) {
	if sub.Username == "" || strings.TrimSpace(sub.Content) == "" {
		respondError(w, http.StatusBadRequest, "submission is missing user or content")
		return
	}
	if sub.FileName == "" {
		sub.FileName = "lms-submission.txt"
	}

	go s.processLMSSubmission(sub)

	respondJSON(w, http.StatusAccepted, map[string]string{
		"status":   "accepted",
		"platform": sub.Platform,
	})
}

func (s *Server) processLMSSubmission(sub lmsSubmission) {
	ctx, cancel := context.WithTimeout(context.Background(), lmsProcessTimeout)
	defer cancel()

	result, err := s.grader.Analyze(ctx, sub.Content)
	if err != nil {
		log.Printf("lms %s: analysis for %s failed: %v", sub.Platform, sub.Username, err)
		return
	}

	if _, err := s.store.Save(ctx, sub.Username, sub.FileName, result); err != nil {
		log.Printf("lms %s: failed to save analysis for %s: %v", sub.Platform, sub.Username, err)
	}
}

func usernameFromEmail(email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}
