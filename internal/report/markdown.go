package report

import "strings"

// LineKind classifies one line of the analysis text
type LineKind int

const (
	LineBlank LineKind = iota
	LineHeading
	LineBold
	LineBullet
	LineText
)

// Line is one classified line of the analysis text
type Line struct {
	Kind LineKind
	Text string
}

// ClassifyLine maps a raw line onto the small fixed grammar the AI output
// uses: "##" subheadings, "**...**" bold paragraphs, "-" bullets, and plain
// paragraphs. Every line classifies into some rule, so rendering never
// fails on malformed input.
func ClassifyLine(raw string) Line {
	switch {
	case strings.HasPrefix(raw, "##"):
		return Line{Kind: LineHeading, Text: strings.TrimSpace(strings.TrimLeft(raw, "#"))}
	case strings.HasPrefix(raw, "**") && strings.HasSuffix(raw, "**") && len(raw) > 2:
		return Line{Kind: LineBold, Text: strings.ReplaceAll(raw, "**", "")}
	case strings.HasPrefix(raw, "-"):
		return Line{Kind: LineBullet, Text: strings.TrimSpace(strings.TrimPrefix(raw, "-"))}
	case strings.TrimSpace(raw) != "":
		return Line{Kind: LineText, Text: raw}
	default:
		return Line{Kind: LineBlank}
	}
}

// Classify splits the analysis text into classified lines
func Classify(result string) []Line {
	raw := strings.Split(strings.ReplaceAll(result, "\r\n", "\n"), "\n")
	lines := make([]Line, len(raw))
	for i, l := range raw {
		lines[i] = ClassifyLine(l)
	}
	return lines
}
