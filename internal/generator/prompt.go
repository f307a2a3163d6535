package generator

import (
	"fmt"
	"strings"
)

// Prompt represents the message pair sent to the text backend.
type Prompt struct {
	System string
	User   string
}

const fileMarkerFormat = "=== FILE: %s ==="

// BuildSitePrompt builds the prompt that turns a brief into named site files.
// The output-format instructions are explicit because the parser depends on
// the file markers.
func BuildSitePrompt(brief, task string, files []string) Prompt {
	var sb strings.Builder
	sb.WriteString("You are an expert front-end developer. Generate a complete static website from the brief below.\n")
	sb.WriteString("Output format, strictly:\n")
	sb.WriteString(fmt.Sprintf("- For each file, print a marker line %q followed by the raw file content.\n", fmt.Sprintf(fileMarkerFormat, "<path>")))
	sb.WriteString("- Produce exactly these files:\n")
	for _, f := range files {
		sb.WriteString(fmt.Sprintf("  - %s\n", f))
	}
	sb.WriteString("- No commentary, no code fences, no explanation outside the file blocks.\n")
	sb.WriteString("- The site must be self-contained and work when served from a static host.\n")

	user := fmt.Sprintf("Task: %s\nBrief:\n%s\n\nProduce the files now.", task, brief)

	return Prompt{
		System: sb.String(),
		User:   user,
	}
}
