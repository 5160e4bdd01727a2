package storage

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/veritas-kanban/veritas-kanban/pkg/models"
)

const frontMatterDelim = "---"

// MarshalTask serializes a task to its on-disk form: a YAML front-matter
// block holding the structured fields, followed by the free-text
// description body.
func MarshalTask(task *models.Task) ([]byte, error) {
	header, err := yaml.Marshal(task)
	if err != nil {
		return nil, fmt.Errorf("marshalling task %s: %w", task.ID, err)
	}

	var b strings.Builder
	b.WriteString(frontMatterDelim + "\n")
	b.Write(header)
	b.WriteString(frontMatterDelim + "\n")
	if task.Description != "" {
		b.WriteString("\n")
		b.WriteString(task.Description)
		if !strings.HasSuffix(task.Description, "\n") {
			b.WriteString("\n")
		}
	}
	return []byte(b.String()), nil
}

// UnmarshalTask parses the on-disk form back into a task. The front-matter
// block must open the file; everything after the closing delimiter becomes
// the description. Legacy free-form IDs are accepted as-is.
func UnmarshalTask(data []byte) (*models.Task, error) {
	text := string(data)
	if !strings.HasPrefix(text, frontMatterDelim+"\n") {
		return nil, fmt.Errorf("parsing task file: missing front-matter block")
	}

	rest := text[len(frontMatterDelim)+1:]
	end := strings.Index(rest, "\n"+frontMatterDelim)
	if end < 0 {
		return nil, fmt.Errorf("parsing task file: unterminated front-matter block")
	}

	header := rest[:end+1]
	body := rest[end+1+len(frontMatterDelim):]
	body = strings.TrimPrefix(body, "\n")

	var task models.Task
	if err := yaml.Unmarshal([]byte(header), &task); err != nil {
		return nil, fmt.Errorf("parsing task front-matter: %w", err)
	}
	if task.ID == "" {
		return nil, fmt.Errorf("parsing task file: missing id field")
	}

	task.Description = strings.TrimRight(strings.TrimPrefix(body, "\n"), "\n")
	return &task, nil
}
