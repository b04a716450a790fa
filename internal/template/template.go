package template

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"sync"
)

// placeholder matches {name}. Names start with a letter or underscore so CSS
// blocks such as "{ color: red; }" are left alone.
var placeholder = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_ \-]*)\}`)

// Template is an HTML document with {name} placeholders.
type Template struct {
	mu      sync.RWMutex
	path    string
	content string
	fields  map[string]struct{}
}

// Load reads the template at path.
func Load(path string) (*Template, error) {
	t := &Template{path: path}
	if err := t.Reload(); err != nil {
		return nil, err
	}
	return t, nil
}

// Parse builds a template from content that is not backed by a file.
func Parse(content string) *Template {
	t := &Template{}
	t.set(content)
	return t
}

// Reload re-reads the template file so edits apply without a restart.
func (t *Template) Reload() error {
	if t.path == "" {
		return nil
	}
	data, err := os.ReadFile(t.path)
	if err != nil {
		return fmt.Errorf("template file not found: %w", err)
	}
	t.set(string(data))
	return nil
}

func (t *Template) set(content string) {
	fields := make(map[string]struct{})
	for _, m := range placeholder.FindAllStringSubmatch(content, -1) {
		fields[m[1]] = struct{}{}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.content = content
	t.fields = fields
}

// Fields returns the placeholder names used by the template, sorted.
func (t *Template) Fields() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]string, 0, len(t.fields))
	for f := range t.fields {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

// Uses reports whether the template contains {field}.
func (t *Template) Uses(field string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.fields[field]
	return ok
}

// Fill substitutes every placeholder that has a key in data. Placeholders
// without data stay in the output unchanged; extra keys are ignored.
func (t *Template) Fill(data map[string]string) string {
	t.mu.RLock()
	content := t.content
	t.mu.RUnlock()

	return placeholder.ReplaceAllStringFunc(content, func(m string) string {
		if v, ok := data[m[1:len(m)-1]]; ok {
			return v
		}
		return m
	})
}

// HasPlaceholder reports whether s still contains a {name} placeholder.
func HasPlaceholder(s string) bool {
	return placeholder.MatchString(s)
}

// Unfilled returns the placeholders of s that were left unfilled, sorted and
// without duplicates.
func Unfilled(s string) []string {
	var out []string
	for _, m := range placeholder.FindAllStringSubmatch(s, -1) {
		out = append(out, m[1])
	}
	slices.Sort(out)
	return slices.Compact(out)
}

