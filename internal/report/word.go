package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/fumiama/go-docx"

	"github.com/todmy/project-grader/internal/history"
)

const (
	accentColor = "2E86DE"
	mutedColor  = "969696"
)

// Word renders one analysis record into a Word document buffer. The caller
// decides where to stream or persist it; nothing is written to disk here.
func Word(username, fileName, result, timestamp string) (*bytes.Buffer, error) {
	if timestamp == "" {
		timestamp = time.Now().Format(time.RFC3339)
	}

	doc := docx.New().WithDefaultTheme()

	title := doc.AddParagraph().Justification("center")
	title.AddText("Project Analysis Report").Size("40").Color(accentColor).Bold()

	subtitle := doc.AddParagraph().Justification("center")
	subtitle.AddText("AI Project Grader").Size("28")

	doc.AddParagraph()

	heading := doc.AddParagraph()
	heading.AddText("Analysis Details").Size("28").Bold()

	addMetadata(doc, [][2]string{
		{"User", username},
		{"File", fileName},
		{"Analyzed at", timestamp},
		{"System", "AI Project Grader"},
	})

	doc.AddParagraph()

	resultHeading := doc.AddParagraph()
	resultHeading.AddText("Analysis Result").Size("28").Bold()

	writeBody(doc, result)

	doc.AddParagraph()
	footer := doc.AddParagraph().Justification("center")
	footer.AddText(footerText()).Size("18").Color(mutedColor)

	buf := &bytes.Buffer{}
	if _, err := doc.WriteTo(buf); err != nil {
		return nil, fmt.Errorf("failed to generate word report: %w", err)
	}
	return buf, nil
}

// WordSummary renders a whole-history summary document for one user
func WordSummary(username string, records []history.Record) (*bytes.Buffer, error) {
	doc := docx.New().WithDefaultTheme()

	title := doc.AddParagraph().Justification("center")
	title.AddText("Analysis History Summary").Size("40").Color(accentColor).Bold()

	user := doc.AddParagraph()
	user.AddText("User: ").Bold()
	user.AddText(username)

	generated := doc.AddParagraph()
	generated.AddText("Generated: ").Bold()
	generated.AddText(time.Now().Format("2006-01-02 15:04:05"))

	doc.AddParagraph()

	statsHeading := doc.AddParagraph()
	statsHeading.AddText("Summary").Size("28").Bold()

	lastDate := "none"
	if len(records) > 0 {
		lastDate = records[0].Timestamp.Format("2006-01-02 15:04:05")
	}
	uniqueFiles := map[string]bool{}
	for _, rec := range records {
		uniqueFiles[rec.FileName] = true
	}
	addMetadata(doc, [][2]string{
		{"Total analyses", fmt.Sprintf("%d", len(records))},
		{"Most recent", lastDate},
		{"Files analyzed", fmt.Sprintf("%d", len(uniqueFiles))},
	})

	doc.AddParagraph()

	listHeading := doc.AddParagraph()
	listHeading.AddText("Analyses").Size("28").Bold()

	if len(records) == 0 {
		doc.AddParagraph().AddText("No analyses yet.")
	}
	for _, rec := range records {
		entry := doc.AddParagraph()
		entry.AddText(fmt.Sprintf("• %s — %s (%d chars)",
			rec.FileName,
			rec.Timestamp.Format("2006-01-02 15:04:05"),
			rec.SizeChars,
		))
	}

	buf := &bytes.Buffer{}
	if _, err := doc.WriteTo(buf); err != nil {
		return nil, fmt.Errorf("failed to generate summary report: %w", err)
	}
	return buf, nil
}

// addMetadata writes label/value rows as bold-label paragraphs
func addMetadata(doc *docx.Docx, rows [][2]string) {
	for _, row := range rows {
		p := doc.AddParagraph()
		p.AddText(row[0] + ": ").Bold()
		p.AddText(row[1])
	}
}

// writeBody renders the classified analysis lines into the document
func writeBody(doc *docx.Docx, result string) {
	for _, line := range Classify(result) {
		switch line.Kind {
		case LineHeading:
			p := doc.AddParagraph()
			p.AddText(line.Text).Size("26").Bold()
		case LineBold:
			p := doc.AddParagraph()
			p.AddText(line.Text).Bold()
		case LineBullet:
			doc.AddParagraph().AddText("• " + line.Text)
		case LineText:
			doc.AddParagraph().AddText(line.Text)
		case LineBlank:
			// Blank source lines collapse; paragraph spacing covers them.
		}
	}
}

func footerText() string {
	return fmt.Sprintf("Generated by AI Project Grader | %s",
		time.Now().Format("2006-01-02 15:04:05"))
}
