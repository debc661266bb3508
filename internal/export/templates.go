package export

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed templates/*.html
var templateFS embed.FS

var campaignTemplate = template.Must(template.New("campaign.html").Funcs(template.FuncMap{
	"formatDate": func(t time.Time, layout string) string {
		return t.Format(layout)
	},
}).ParseFS(templateFS, "templates/campaign.html"))

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// TemplateData holds data for document template rendering
type TemplateData struct {
	Title       string
	SessionID   string
	Version     int64
	UpdatedAt   time.Time
	ContentHTML template.HTML
}

// MarkdownToHTML converts markdown to an HTML fragment.
func MarkdownToHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}

// RenderDocumentHTML renders doc as a standalone HTML page.
func RenderDocumentHTML(doc Document) (string, error) {
	fragment, err := MarkdownToHTML(Markdown(doc))
	if err != nil {
		return "", err
	}
	data := TemplateData{
		Title:       doc.Title(),
		SessionID:   doc.SessionID,
		Version:     doc.Version,
		UpdatedAt:   doc.UpdatedAt,
		ContentHTML: template.HTML(fragment),
	}
	var buf bytes.Buffer
	if err := campaignTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return buf.String(), nil
}
