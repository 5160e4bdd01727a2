package storage

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// DefaultSlugMaxLen caps the slug portion of a task filename.
const DefaultSlugMaxLen = 60

// idAlphabet is the character set for the random portion of task IDs.
const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Slugify derives a lowercase, hyphen-separated, filesystem-safe slug
// from a task title. Runs of non-alphanumeric characters collapse to a
// single hyphen, leading/trailing hyphens are trimmed, and the result is
// capped at maxLen characters. The function is deterministic and
// idempotent: Slugify(Slugify(s)) == Slugify(s).
func Slugify(title string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultSlugMaxLen
	}

	var b strings.Builder
	lastHyphen := false
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) && r < 128 || unicode.IsDigit(r) && r < 128 {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen && b.Len() > 0 {
			b.WriteByte('-')
			lastHyphen = true
		}
	}

	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxLen {
		slug = strings.TrimRight(slug[:maxLen], "-")
	}
	if slug == "" {
		slug = "untitled"
	}
	return slug
}

// GenerateTaskID creates a new task ID of the form
// task_{yyyymmdd}_{6 random alphanumerics}. IDs are immutable after
// creation; legacy free-form IDs are still accepted when reading.
func GenerateTaskID(now time.Time) (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating task ID: %w", err)
	}
	for i, c := range buf {
		buf[i] = idAlphabet[int(c)%len(idAlphabet)]
	}
	return fmt.Sprintf("task_%s_%s", now.Format("20060102"), string(buf)), nil
}

// TaskFileName computes the on-disk filename for a task: {id}-{slug}.md.
// Because the slug is deterministic, repeated updates without a title
// change never churn filenames.
func TaskFileName(id, title string, slugMaxLen int) string {
	return fmt.Sprintf("%s-%s.md", id, Slugify(title, slugMaxLen))
}
