package notify

import (
	"fmt"
	"time"

	"gopkg.in/gomail.v2"
)

// resultPreviewChars bounds how much of the critique goes into the email.
const resultPreviewChars = 500

// EmailConfig holds SMTP settings for the notifier
type EmailConfig struct {
	Host     string
	Port     int
	Sender   string
	Password string
}

// Notifier sends analysis-completion notifications over SMTP. An
// unconfigured notifier is valid and silently skips sending.
type Notifier struct {
	cfg  EmailConfig
	send func(*gomail.Message) error
}

// NewNotifier creates a Notifier from SMTP settings
func NewNotifier(cfg EmailConfig) *Notifier {
	n := &Notifier{cfg: cfg}
	n.send = func(m *gomail.Message) error {
		d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Sender, cfg.Password)
		return d.DialAndSend(m)
	}
	return n
}

// Configured reports whether the notifier has enough settings to send
func (n *Notifier) Configured() bool {
	return n.cfg.Sender != "" && n.cfg.Password != ""
}

// AnalysisDone notifies the recipient that their analysis completed. It is
// a no-op when the notifier is unconfigured.
func (n *Notifier) AnalysisDone(recipient, username, fileName, result string) error {
	if !n.Configured() {
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.Sender)
	m.SetHeader("To", recipient)
	m.SetHeader("Subject", fmt.Sprintf("Project analysis complete - %s", fileName))
	m.SetBody("text/plain", plainBody(username, fileName, result))
	m.AddAlternative("text/html", htmlBody(username, fileName, result))

	if err := n.send(m); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	return nil
}

func preview(result string) string {
	if runes := []rune(result); len(runes) > resultPreviewChars {
		return string(runes[:resultPreviewChars]) + "..."
	}
	return result
}

func plainBody(username, fileName, result string) string {
	return fmt.Sprintf(`Hello %s,

Your project analysis has finished.

File: %s
Time: %s
User: %s

Analysis result:
%s

Log in to see the full details.

--
AI Project Grader
`, username, fileName, time.Now().Format("2006-01-02 15:04:05"), username, preview(result))
}

func htmlBody(username, fileName, result string) string {
	return fmt.Sprintf(`<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>Analysis complete</h2>
  <p>Hello <strong>%s</strong>, your project analysis has finished.</p>
  <ul>
    <li><strong>File:</strong> %s</li>
    <li><strong>Time:</strong> %s</li>
  </ul>
  <h3>Analysis result (preview)</h3>
  <pre style="background: #f9f9f9; padding: 12px; white-space: pre-wrap;">%s</pre>
  <p>Log in to see the full details.</p>
  <hr>
  <p style="color: #999; font-size: 12px;">AI Project Grader</p>
</body>
</html>`, username, fileName, time.Now().Format("2006-01-02 15:04:05"), preview(result))
}
