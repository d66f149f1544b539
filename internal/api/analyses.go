package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/todmy/project-grader/internal/auth"
	"github.com/todmy/project-grader/internal/extract"
	"github.com/todmy/project-grader/internal/grader"
	"github.com/todmy/project-grader/internal/history"
)

const (
	maxUploadSize    = 10 << 20 // 10 MB
	historyPreview   = 200
	minContentLength = 10
)

// AnalysisResponse is the full record returned for single-analysis requests.
type AnalysisResponse struct {
	ID        int    `json:"id"`
	Timestamp string `json:"timestamp"`
	FileName  string `json:"file_name"`
	SizeChars int    `json:"file_size_chars"`
	Result    string `json:"result"`
}

// HistoryItem is the trimmed form used in history listings.
type HistoryItem struct {
	ID            int    `json:"id"`
	Timestamp     string `json:"timestamp"`
	FileName      string `json:"file_name"`
	SizeChars     int    `json:"file_size_chars"`
	ResultPreview string `json:"result_preview"`
}

func toAnalysisResponse(rec *history.Record) AnalysisResponse {
	return AnalysisResponse{
		ID:        rec.ID,
		Timestamp: rec.Timestamp.Format("2006-01-02T15:04:05"),
		FileName:  rec.FileName,
		SizeChars: rec.SizeChars,
		Result:    rec.Result,
	}
}

func toHistoryItem(rec history.Record) HistoryItem {
	// Truncation counts characters, not bytes, so multibyte results never
	// get cut mid-rune.
	preview := rec.Result
	if runes := []rune(preview); len(runes) > historyPreview {
		preview = string(runes[:historyPreview]) + "..."
	}
	return HistoryItem{
		ID:            rec.ID,
		Timestamp:     rec.Timestamp.Format("2006-01-02T15:04:05"),
		FileName:      rec.FileName,
		SizeChars:     rec.SizeChars,
		ResultPreview: preview,
	}
}

// handleCreateAnalysis accepts either a multipart upload ("file" field) or a
// JSON body with file_name and content, grades the content, and stores the
// result in the caller's history.
func (s *Server) handleCreateAnalysis(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	fileName, content, ok := s.readSubmission(w, r)
	if !ok {
		return
	}

	if len(strings.TrimSpace(content)) < minContentLength {
		respondError(w, http.StatusBadRequest, "document content is too short to analyze")
		return
	}

	result, err := s.grader.Analyze(r.Context(), content)
	if err != nil {
		if errors.Is(err, grader.ErrQuotaExceeded) {
			respondError(w, http.StatusTooManyRequests, "ai quota exceeded, try again later")
			return
		}
		respondError(w, http.StatusBadGateway, "analysis failed")
		return
	}

	rec, err := s.store.Save(r.Context(), claims.Username, fileName, result)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to save analysis")
		return
	}

	s.notifyAnalysisDone(r, claims.Username, fileName, result)

	respondJSON(w, http.StatusCreated, toAnalysisResponse(rec))
}

// readSubmission pulls the document out of the request. Multipart uploads
// go through text extraction; JSON bodies carry the content directly.
func (s *Server) readSubmission(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			respondError(w, http.StatusBadRequest, "file too large or invalid form")
			return "", "", false
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			respondError(w, http.StatusBadRequest, "no file provided")
			return "", "", false
		}
		defer file.Close()

		ext := strings.ToLower(filepath.Ext(header.Filename))
		if !extract.SupportedExtensions[ext] {
			respondError(w, http.StatusBadRequest, "only .txt, .md, .pdf, and .docx files are allowed")
			return "", "", false
		}

		data, err := io.ReadAll(file)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to read file")
			return "", "", false
		}

		content, err := extract.Text(header.Filename, data)
		if err != nil {
			respondError(w, http.StatusUnprocessableEntity, "failed to extract text from file")
			return "", "", false
		}
		return header.Filename, content, true
	}

	var req struct {
		FileName string `json:"file_name"`
		Content  string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return "", "", false
	}
	if req.FileName == "" || req.Content == "" {
		respondError(w, http.StatusBadRequest, "file_name and content are required")
		return "", "", false
	}
	return req.FileName, req.Content, true
}

func (s *Server) notifyAnalysisDone(r *http.Request, username, fileName, result string) {
	if s.notifier == nil || !s.notifier.Configured() {
		return
	}

	recipient := r.FormValue("notify_email")
	if recipient == "" {
		recipient = r.URL.Query().Get("notify_email")
	}
	if recipient == "" {
		return
	}

	// Fire and forget so a slow SMTP server never delays the response.
	go s.notifier.AnalysisDone(recipient, username, fileName, result)
}

func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	records, err := s.store.History(r.Context(), claims.Username)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch history")
		return
	}

	items := make([]HistoryItem, 0, len(records))
	for _, rec := range records {
		items = append(items, toHistoryItem(rec))
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"analyses": items,
		"count":    len(items),
	})
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, ok := analysisID(w, r)
	if !ok {
		return
	}

	rec, err := s.store.GetByID(r.Context(), claims.Username, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch analysis")
		return
	}
	if rec == nil {
		respondError(w, http.StatusNotFound, "analysis not found")
		return
	}

	respondJSON(w, http.StatusOK, toAnalysisResponse(rec))
}

func (s *Server) handleDeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, ok := analysisID(w, r)
	if !ok {
		return
	}

	deleted, err := s.store.Delete(r.Context(), claims.Username, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to delete analysis")
		return
	}
	if !deleted {
		respondError(w, http.StatusNotFound, "analysis not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleDeleteAllAnalyses(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := s.store.DeleteAll(r.Context(), claims.Username); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to clear history")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleUserStatistics(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	st, err := s.stats.ForUser(r.Context(), claims.Username)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to compute statistics")
		return
	}

	respondJSON(w, http.StatusOK, st)
}

func analysisID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "analysisID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		respondError(w, http.StatusBadRequest, "invalid analysis id")
		return 0, false
	}
	return id, true
}
