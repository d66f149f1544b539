package report

import (
	"fmt"
	"strings"
	"time"
)

const filenamePrefix = "report"

// Filename builds the deterministic suggested download name:
// report_<original-file-stem>_<username>_<generation-timestamp>.<ext>
func Filename(fileName, username, ext string, now time.Time) string {
	stem := fileName
	if i := strings.Index(fileName, "."); i >= 0 {
		stem = fileName[:i]
	}
	return fmt.Sprintf("%s_%s_%s_%s.%s",
		filenamePrefix, stem, username, now.Format("20060102_150405"), ext)
}

// WordFilename suggests a name for a Word report generated now
func WordFilename(fileName, username string) string {
	return Filename(fileName, username, "docx", time.Now())
}

// PDFFilename suggests a name for a PDF report generated now
func PDFFilename(fileName, username string) string {
	return Filename(fileName, username, "pdf", time.Now())
}
