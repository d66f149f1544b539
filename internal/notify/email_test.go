package notify

import (
	"strings"
	"testing"
	"unicode/utf8"

	"gopkg.in/gomail.v2"
)

func TestAnalysisDone_Unconfigured(t *testing.T) {
	n := NewNotifier(EmailConfig{})
	n.send = func(m *gomail.Message) error {
		t.Error("unconfigured notifier must not send")
		return nil
	}

	if err := n.AnalysisDone("to@example.com", "alice", "f.pdf", "result"); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestAnalysisDone_SendsMessage(t *testing.T) {
	n := NewNotifier(EmailConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Sender:   "grader@example.com",
		Password: "secret",
	})

	var sent *gomail.Message
	n.send = func(m *gomail.Message) error {
		sent = m
		return nil
	}

	if err := n.AnalysisDone("to@example.com", "alice", "f.pdf", "result"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if sent == nil {
		t.Fatal("expected a message to be sent")
	}

	if got := sent.GetHeader("To"); len(got) != 1 || got[0] != "to@example.com" {
		t.Errorf("unexpected To header: %v", got)
	}
	if got := sent.GetHeader("Subject"); len(got) != 1 || !strings.Contains(got[0], "f.pdf") {
		t.Errorf("unexpected Subject header: %v", got)
	}
}

func TestBodiesTruncateResult(t *testing.T) {
	long := strings.Repeat("x", resultPreviewChars+100)

	plain := plainBody("alice", "f.pdf", long)
	if !strings.Contains(plain, "...") {
		t.Error("expected plain body to truncate long result")
	}
	if strings.Contains(plain, long) {
		t.Error("expected plain body not to embed the full result")
	}

	html := htmlBody("alice", "f.pdf", long)
	if !strings.Contains(html, "...") {
		t.Error("expected html body to truncate long result")
	}
}

func TestPreviewKeepsRunesIntact(t *testing.T) {
	long := strings.Repeat("ดี", resultPreviewChars)

	got := preview(long)
	if !utf8.ValidString(got) {
		t.Error("expected preview to remain valid UTF-8")
	}
	if want := resultPreviewChars + len("..."); utf8.RuneCountInString(got) != want {
		t.Errorf("expected %d characters, got %d", want, utf8.RuneCountInString(got))
	}
}
