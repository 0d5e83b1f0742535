package utils

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
)

const (
	diffAdded   = "\x1b[92m"
	diffRemoved = "\x1b[91m"
	colorReset  = "\x1b[0m"
)

// DetectLanguageFromFence returns the language of a ``` fence line, or "" when none is given.
func DetectLanguageFromFence(line string) string {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "```") {
		return ""
	}
	fields := strings.Fields(strings.TrimPrefix(trimmed, "```"))
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

// RenderAnswer writes a markdown answer to w. Prose is highlighted as markdown, fenced blocks
// with their declared language, and diff lines inside a block are colored.
func RenderAnswer(ctx context.Context, w io.Writer, content string, theme string) error {
	inCodeBlock := false
	language := "markdown"

	for _, line := range strings.Split(content, "\n") {
		if err := ctx.Err(); err != nil {
			fmt.Fprint(w, "\n\n🔄 Output interrupted...\n")
			return err
		}

		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			if inCodeBlock {
				inCodeBlock = false
				language = "markdown"
			} else {
				inCodeBlock = true
				if language = DetectLanguageFromFence(line); language == "" {
					language = "text"
				}
			}
			if err := quick.Highlight(w, line+"\n", "markdown", "terminal256", theme); err != nil {
				return err
			}
			continue
		}

		switch {
		case inCodeBlock && strings.HasPrefix(line, "+"):
			fmt.Fprint(w, diffAdded+line+colorReset+"\n")
		case inCodeBlock && strings.HasPrefix(line, "-"):
			fmt.Fprint(w, diffRemoved+line+colorReset+"\n")
		default:
			if err := quick.Highlight(w, line+"\n", language, "terminal256", theme); err != nil {
				return err
			}
		}
	}

	return nil
}
