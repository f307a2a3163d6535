package generator

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"

	apperrors "autosite/internal/common/errors"
)

// SiteFiles maps relative file paths to file contents.
type SiteFiles map[string]string

var fileMarkerRe = regexp.MustCompile(`(?m)^\s*===\s*FILE:\s*([^=]+?)\s*===\s*$`)

// ParseSiteFiles splits the raw model reply into named file contents. The
// model output is untrusted: missing markers, fenced blocks and empty
// sections are all classified as GENERATION_MALFORMED, never a raw parse
// error.
func ParseSiteFiles(raw string, required []string) (SiteFiles, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, apperrors.NewGenerationMalformedError("backend returned empty content")
	}

	matches := fileMarkerRe.FindAllStringSubmatchIndex(trimmed, -1)
	if len(matches) == 0 {
		// Some models answer in plain markdown despite the format
		// instructions. Render it as the index page rather than failing.
		if site, ok := markdownFallback(trimmed, required); ok {
			return site, nil
		}
		return nil, apperrors.NewGenerationMalformedError("no file markers found in backend output")
	}

	files := make(SiteFiles, len(matches))
	for i, m := range matches {
		name := strings.TrimSpace(trimmed[m[2]:m[3]])
		start := m[1]
		end := len(trimmed)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		content := stripFences(strings.TrimSpace(trimmed[start:end]))
		if name == "" {
			return nil, apperrors.NewGenerationMalformedError("file marker with empty path")
		}
		if content == "" {
			return nil, apperrors.NewGenerationMalformedError(fmt.Sprintf("file %s has empty content", name))
		}
		files[name] = content
	}

	var missing []string
	for _, req := range required {
		if _, ok := files[req]; !ok {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewGenerationMalformedError(
			fmt.Sprintf("required file sections missing: %s", strings.Join(missing, ", ")))
	}

	return files, nil
}

// stripFences removes a single wrapping markdown code fence if present.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) < 2 {
		return s
	}
	last := len(lines) - 1
	if strings.TrimSpace(lines[last]) != "```" {
		return s
	}
	return strings.TrimSpace(strings.Join(lines[1:last], "\n"))
}

// markdownFallback renders a markdown-only reply into an index page so a
// usable site still ships. Only applies when index.html is among the
// required files and the reply looks like markdown.
func markdownFallback(raw string, required []string) (SiteFiles, bool) {
	wantsIndex := false
	for _, f := range required {
		if f == "index.html" {
			wantsIndex = true
			break
		}
	}
	if !wantsIndex || !looksLikeMarkdown(raw) {
		return nil, false
	}

	var body bytes.Buffer
	if err := goldmark.Convert([]byte(raw), &body); err != nil {
		return nil, false
	}

	site := SiteFiles{
		"index.html": fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<link rel="stylesheet" href="style.css">
<title>Generated Site</title>
</head>
<body>
<main>
%s</main>
</body>
</html>
`, body.String()),
	}
	for _, f := range required {
		if _, ok := site[f]; ok {
			continue
		}
		switch {
		case strings.HasSuffix(f, ".css"):
			site[f] = fallbackCSS
		case strings.HasSuffix(f, ".js"):
			site[f] = "// intentionally empty\n"
		default:
			site[f] = "\n"
		}
	}
	return site, true
}

const fallbackCSS = `body {
  font-family: system-ui, sans-serif;
  max-width: 48rem;
  margin: 2rem auto;
  padding: 0 1rem;
  line-height: 1.6;
}
`

func looksLikeMarkdown(s string) bool {
	if strings.Contains(s, "<html") || strings.Contains(s, "<!DOCTYPE") {
		return false
	}
	return strings.Contains(s, "# ") || strings.Contains(s, "\n## ") ||
		strings.Contains(s, "\n- ") || strings.Contains(s, "**")
}
