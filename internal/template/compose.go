package template

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var bodyTag = regexp.MustCompile(`(?i)<body[\s>]`)

// Email is a rendered message ready for a transport.
type Email struct {
	Subject string
	HTML    string
	// WholeDocument is set when the template has no <body> and the full
	// document was used as content.
	WholeDocument bool
}

// Compose fills the template with data and splits the result into subject
// and content. The <title> becomes the subject unless it still holds an
// unfilled placeholder, in which case "Idea for <category>" is used, or
// defaultSubject when category is empty. Without a <title> defaultSubject
// is used.
func (t *Template) Compose(data map[string]string, defaultSubject, category string) (Email, error) {
	html := t.Fill(data)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Email{}, fmt.Errorf("parsing rendered template: %w", err)
	}

	email := Email{Subject: defaultSubject}
	if title := doc.Find("title").First(); title.Length() > 0 {
		text := strings.Join(strings.Fields(title.Text()), " ")
		switch {
		case HasPlaceholder(text) && category != "":
			email.Subject = "Idea for " + category
		case HasPlaceholder(text), text == "":
		default:
			email.Subject = text
		}
	}

	if !bodyTag.MatchString(html) {
		email.HTML = html
		email.WholeDocument = true
		return email, nil
	}
	body, err := doc.Find("body").First().Html()
	if err != nil {
		return Email{}, fmt.Errorf("extracting body: %w", err)
	}
	email.HTML = strings.TrimSpace(body)
	return email, nil
}
