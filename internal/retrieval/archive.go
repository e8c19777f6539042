package retrieval

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yungbote/lazytrip-backend/internal/platform/logger"
)

// Archive persists one markdown file per record: YAML front matter plus the
// record body. Files are write-once; each run stamps its own filenames.
type Archive struct {
	baseDir string
	log     *logger.Logger
}

func NewArchive(baseDir string, log *logger.Logger) *Archive {
	return &Archive{baseDir: baseDir, log: log.With("component", "Archive")}
}

// Save writes all records and returns the paths written. Failures are
// per-file: a record that cannot be written is logged and skipped.
func (a *Archive) Save(records []Record, query string) []string {
	if len(records) == 0 {
		return nil
	}

	now := time.Now()
	stamp := now.Format("20060102_150405")
	dir := filepath.Join(a.baseDir, now.Format("20060102"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		a.log.Warn("archive dir unavailable", "dir", dir, "error", err)
		return nil
	}

	var saved []string
	for i, rec := range records {
		id := rec.ID
		if id == "" {
			id = fmt.Sprintf("unknown_%d", i)
		}
		name := fmt.Sprintf("%s_%s_%s.md", sanitizeFilename(query), stamp, sanitizeFilename(id))
		path := filepath.Join(dir, name)

		if err := os.WriteFile(path, []byte(renderMarkdown(rec, stamp)), 0o644); err != nil {
			a.log.Warn("archive write failed", "path", path, "error", err)
			continue
		}
		saved = append(saved, path)
	}
	return saved
}

func renderMarkdown(rec Record, crawledAt string) string {
	tags, _ := json.Marshal(rec.Tags)
	if tags == nil {
		tags = []byte("[]")
	}

	var sb strings.Builder
	sb.WriteString("---\n")
	sb.WriteString(fmt.Sprintf("source_id: %q\n", rec.ID))
	sb.WriteString(fmt.Sprintf("source_url: %q\n", rec.URL))
	sb.WriteString(fmt.Sprintf("author: %q\n", rec.Author))
	sb.WriteString(fmt.Sprintf("tags: %s\n", tags))
	sb.WriteString(fmt.Sprintf("crawled_at: %q\n", crawledAt))
	sb.WriteString("---\n\n")

	title := rec.Title
	if title == "" {
		title = "No Title"
	}
	sb.WriteString("# " + title + "\n\n")
	sb.WriteString(rec.Content + "\n")
	return sb.String()
}

func sanitizeFilename(s string) string {
	s = strings.TrimSpace(s)
	replacer := strings.NewReplacer("/", "_", "\\", "_", " ", "_", ":", "_", "..", "_")
	out := replacer.Replace(s)
	if out == "" {
		return "untitled"
	}
	return out
}
