package api

import (
	"fmt"
	"net/http"

	"github.com/todmy/project-grader/internal/auth"
	"github.com/todmy/project-grader/internal/report"
)

const (
	formatWord = "docx"
	formatPDF  = "pdf"

	wordContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	pdfContentType  = "application/pdf"
)

// handleAnalysisReport renders one stored analysis as a downloadable Word or
// PDF document. Format defaults to docx.
func (s *Server) handleAnalysisReport(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, ok := analysisID(w, r)
	if !ok {
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = formatWord
	}
	if format != formatWord && format != formatPDF {
		respondError(w, http.StatusBadRequest, "format must be docx or pdf")
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

	timestamp := rec.Timestamp.Format("2006-01-02 15:04:05")

	if format == formatPDF {
		buf, err := report.PDF(claims.Username, rec.FileName, rec.Result, timestamp)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to render report")
			return
		}
		sendAttachment(w, buf.Bytes(), report.PDFFilename(rec.FileName, claims.Username), pdfContentType)
		return
	}

	buf, err := report.Word(claims.Username, rec.FileName, rec.Result, timestamp)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to render report")
		return
	}
	sendAttachment(w, buf.Bytes(), report.WordFilename(rec.FileName, claims.Username), wordContentType)
}

// handleSummaryReport renders the caller's entire history as one Word
// document.
func (s *Server) handleSummaryReport(w http.ResponseWriter, r *http.Request) {
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
	if len(records) == 0 {
		respondError(w, http.StatusNotFound, "no analyses to report")
		return
	}

	buf, err := report.WordSummary(claims.Username, records)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to render report")
		return
	}

	sendAttachment(w, buf.Bytes(), report.WordFilename("summary", claims.Username), wordContentType)
}

func sendAttachment(w http.ResponseWriter, data []byte, filename, contentType string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
