package grader

import "fmt"

// maxContentChars bounds how much of the document is sent to the model.
const maxContentChars = 30000

const systemPrompt = `You are an experienced project advisor. You review student
project documents and judge whether the stated objectives and the conclusions
are consistent with each other. You answer in concise markdown.`

const promptTemplate = `Task: analyze the consistency of the following project document.

Content:
%s

Instructions:
1. Identify the stated objectives and the conclusions.
2. Compare them and judge whether they are consistent.
3. Give a score and concrete recommendations.

Output format (markdown):
## Analysis Result
**1. Objectives found:**
- one objective per bullet
**2. Checks:**
- one check per bullet, pass/fail with a short reason
**3. Recommendations:**
- one recommendation per bullet`

// BuildPrompt builds the user prompt for a document's extracted text,
// truncated to the model content budget.
func BuildPrompt(content string) string {
	if runes := []rune(content); len(runes) > maxContentChars {
		content = string(runes[:maxContentChars])
	}
	return fmt.Sprintf(promptTemplate, content)
}
