package generator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "autosite/internal/common/errors"
)

var defaultFiles = []string{"index.html", "style.css", "script.js"}

func TestParseSiteFiles_WellFormed(t *testing.T) {
	raw := `=== FILE: index.html ===
<html><body>hello</body></html>
=== FILE: style.css ===
body { color: red; }
=== FILE: script.js ===
console.log("hi");
`

	files, err := ParseSiteFiles(raw, defaultFiles)
	assert.NoError(t, err)
	assert.Len(t, files, 3)
	assert.Equal(t, "<html><body>hello</body></html>", files["index.html"])
	assert.Equal(t, "body { color: red; }", files["style.css"])
	assert.Equal(t, `console.log("hi");`, files["script.js"])
}

func TestParseSiteFiles_StripsCodeFences(t *testing.T) {
	raw := "=== FILE: index.html ===\n```html\n<html></html>\n```\n" +
		"=== FILE: style.css ===\n```css\nbody {}\n```\n" +
		"=== FILE: script.js ===\n```js\nlet x = 1;\n```\n"

	files, err := ParseSiteFiles(raw, defaultFiles)
	assert.NoError(t, err)
	assert.Equal(t, "<html></html>", files["index.html"])
	assert.Equal(t, "body {}", files["style.css"])
	assert.Equal(t, "let x = 1;", files["script.js"])
}

func TestParseSiteFiles_EmptyOutput(t *testing.T) {
	_, err := ParseSiteFiles("   \n\t ", defaultFiles)
	assert.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeGenerationMalformed, apperrors.Code(err))
}

func TestParseSiteFiles_MissingRequiredSection(t *testing.T) {
	raw := "=== FILE: index.html ===\n<html></html>\n"

	_, err := ParseSiteFiles(raw, defaultFiles)
	assert.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeGenerationMalformed, apperrors.Code(err))
	assert.Contains(t, apperrors.Normalize(err).Details, "style.css")
	assert.Contains(t, apperrors.Normalize(err).Details, "script.js")
}

func TestParseSiteFiles_EmptySection(t *testing.T) {
	raw := "=== FILE: index.html ===\n<html></html>\n=== FILE: style.css ===\n\n=== FILE: script.js ===\nlet x;\n"

	_, err := ParseSiteFiles(raw, defaultFiles)
	assert.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeGenerationMalformed, apperrors.Code(err))
}

func TestParseSiteFiles_ExtraFilesKept(t *testing.T) {
	raw := "=== FILE: index.html ===\n<html></html>\n" +
		"=== FILE: style.css ===\nbody {}\n" +
		"=== FILE: script.js ===\nlet x;\n" +
		"=== FILE: about.html ===\n<html>about</html>\n"

	files, err := ParseSiteFiles(raw, defaultFiles)
	assert.NoError(t, err)
	assert.Len(t, files, 4)
	assert.Equal(t, "<html>about</html>", files["about.html"])
}

func TestParseSiteFiles_MarkdownFallback(t *testing.T) {
	raw := "# My Portfolio\n\nA one-page portfolio site.\n\n- Projects\n- Contact\n"

	files, err := ParseSiteFiles(raw, defaultFiles)
	assert.NoError(t, err)
	assert.Contains(t, files["index.html"], "<h1")
	assert.Contains(t, files["index.html"], "My Portfolio")
	assert.NotEmpty(t, files["style.css"])
	assert.NotEmpty(t, files["script.js"])
}

func TestParseSiteFiles_NoMarkersNoMarkdown(t *testing.T) {
	_, err := ParseSiteFiles("I cannot help with that request.", defaultFiles)
	assert.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeGenerationMalformed, apperrors.Code(err))
}

func TestParseSiteFiles_ContentIsByteExact(t *testing.T) {
	content := "<html>\n  <body>\n    <p>precise   spacing</p>\n  </body>\n</html>"
	raw := "=== FILE: index.html ===\n" + content + "\n=== FILE: style.css ===\nbody{}\n=== FILE: script.js ===\nlet x;\n"

	files, err := ParseSiteFiles(raw, defaultFiles)
	assert.NoError(t, err)
	assert.Equal(t, content, files["index.html"])
}

func TestBuildSitePrompt_ListsRequiredFiles(t *testing.T) {
	prompt := BuildSitePrompt("Create a one-page portfolio site", "portfolio", defaultFiles)

	for _, f := range defaultFiles {
		assert.Contains(t, prompt.System, f)
	}
	assert.Contains(t, prompt.User, "Create a one-page portfolio site")
	assert.Contains(t, prompt.User, "portfolio")
	assert.True(t, strings.Contains(prompt.System, "=== FILE:"))
}
