package template

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFill(t *testing.T) {
	t.Parallel()

	tmpl := Parse(`<p>Hi {name}, is {email} right? {missing}</p><style>p { color: red; }</style>`)

	assert.Equal(t, []string{"email", "missing", "name"}, tmpl.Fields())
	assert.True(t, tmpl.Uses("name"))
	assert.False(t, tmpl.Uses("color"))

	got := tmpl.Fill(map[string]string{
		"name":   "Ana",
		"email":  "ana@example.com",
		"unused": "ignored",
	})
	assert.Equal(t, `<p>Hi Ana, is ana@example.com right? {missing}</p><style>p { color: red; }</style>`, got)
	assert.Equal(t, []string{"missing"}, Unfilled(got))
}

func TestFill_EmptyValueReplaces(t *testing.T) {
	t.Parallel()

	tmpl := Parse("A{suggestion}B")
	assert.Equal(t, "AB", tmpl.Fill(map[string]string{"suggestion": ""}))
	assert.Equal(t, "A{suggestion}B", tmpl.Fill(nil))
}

func TestLoadAndReload(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "email_template.html")
	require.NoError(t, os.WriteFile(path, []byte("Hello {name}"), 0o644))

	tmpl, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"name"}, tmpl.Fields())

	require.NoError(t, os.WriteFile(path, []byte("Bye {first} {last}"), 0o644))
	require.NoError(t, tmpl.Reload())
	assert.Equal(t, []string{"first", "last"}, tmpl.Fields())

	_, err = Load(filepath.Join(t.TempDir(), "nope.html"))
	require.Error(t, err)
}

func TestCompose(t *testing.T) {
	t.Parallel()

	const doc = `<html><head><title>Idea for {sector}</title></head><body>Hello {name}</body></html>`

	tests := []struct {
		name     string
		template string
		data     map[string]string
		category string
		subject  string
		html     string
		whole    bool
	}{
		{
			name:     "title and body",
			template: doc,
			data:     map[string]string{"sector": "Law Firm", "name": "Ana"},
			category: "Law Firm",
			subject:  "Idea for Law Firm",
			html:     "Hello Ana",
		},
		{
			name:     "unfilled title with category",
			template: `<html><head><title>{greeting} there</title></head><body>Hi</body></html>`,
			data:     map[string]string{},
			category: "Retail",
			subject:  "Idea for Retail",
			html:     "Hi",
		},
		{
			name:     "unfilled title without category",
			template: doc,
			data:     map[string]string{"name": "Ana"},
			subject:  "Default",
			html:     "Hello Ana",
		},
		{
			name:     "no title",
			template: `<body><p>Hello {name}</p></body>`,
			data:     map[string]string{"name": "Ben"},
			category: "Retail",
			subject:  "Default",
			html:     "<p>Hello Ben</p>",
		},
		{
			name:     "no body",
			template: `<p>Hello {name}</p>`,
			data:     map[string]string{"name": "Cy"},
			subject:  "Default",
			html:     "<p>Hello Cy</p>",
			whole:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			email, err := Parse(tt.template).Compose(tt.data, "Default", tt.category)
			require.NoError(t, err)
			assert.Equal(t, tt.subject, email.Subject)
			assert.Equal(t, tt.html, email.HTML)
			assert.Equal(t, tt.whole, email.WholeDocument)
		})
	}
}
