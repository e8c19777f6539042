// Package retrieval normalizes externally sourced travel content into a
// common record shape and feeds it to prompt assembly and graph ingestion.
package retrieval

import (
	"fmt"
	"strings"
)

const (
	SourceSocial = "social"
	SourceWeb    = "web"
)

// Record is one normalized unit of retrieved text. Immutable once produced.
type Record struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Author     string   `json:"author"`
	URL        string   `json:"url"`
	Tags       []string `json:"tags"`
	SourceType string   `json:"source_type"`
}

// Bundle is the per-run textual context handed to the generation prompts.
type Bundle struct {
	Social []Record
	Web    []Record
}

func (b Bundle) All() []Record {
	out := make([]Record, 0, len(b.Social)+len(b.Web))
	out = append(out, b.Social...)
	out = append(out, b.Web...)
	return out
}

// Text renders the grouped summary injected into the planning prompt.
func (b Bundle) Text() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[Social notes (%d)]\n", len(b.Social)))
	for _, r := range b.Social {
		sb.WriteString(fmt.Sprintf("- [social] %s: %s (Source: %s)\n", r.Title, clip(r.Content, 100), r.URL))
	}
	sb.WriteString(fmt.Sprintf("\n[Web results (%d)]\n", len(b.Web)))
	for _, r := range b.Web {
		sb.WriteString(fmt.Sprintf("- [%s](%s): %s\n", r.Title, r.URL, clip(r.Content, 200)))
	}
	return sb.String()
}

func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
