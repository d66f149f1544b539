package grader

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"
)

func newFakeCompletionServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			w.Write([]byte(`{"error": {"message": "rate limited", "type": "rate_limit_error"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "cmpl-1",
			"object": "chat.completion",
			"choices": []map[string]any{
				{"index": 0, "message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	}))
}

func TestAnalyze(t *testing.T) {
	srv := newFakeCompletionServer(t, http.StatusOK, "## Analysis Result\n- looks consistent")
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL), WithModel("test-model"))

	got, err := client.Analyze(context.Background(), "project text")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(got, "Analysis Result") {
		t.Errorf("unexpected analysis content: %q", got)
	}
}

func TestAnalyze_QuotaExceeded(t *testing.T) {
	srv := newFakeCompletionServer(t, http.StatusTooManyRequests, "")
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))

	_, err := client.Analyze(context.Background(), "project text")
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Errorf("expected ErrQuotaExceeded, got %v", err)
	}
}

func TestBuildPrompt_TruncatesContent(t *testing.T) {
	long := strings.Repeat("a", maxContentChars+500)
	prompt := BuildPrompt(long)

	if len(prompt) >= len(long) {
		t.Error("expected prompt to truncate oversized content")
	}
	if !strings.Contains(prompt, "Instructions:") {
		t.Error("expected prompt to keep the instruction block")
	}
}

func TestBuildPrompt_TruncatesOnCharacterBoundary(t *testing.T) {
	// 3-byte runes: byte-based slicing would cut one mid-sequence.
	long := strings.Repeat("ก", maxContentChars+10)
	prompt := BuildPrompt(long)

	if !utf8.ValidString(prompt) {
		t.Error("expected truncated prompt to remain valid UTF-8")
	}
	if got := strings.Count(prompt, "ก"); got != maxContentChars {
		t.Errorf("expected %d characters kept, got %d", maxContentChars, got)
	}
}
