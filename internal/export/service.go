package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/sudeengin/DnDbug-sub002/internal/campaign"
)

// Service renders campaign sessions in every supported format.
type Service struct {
	pdf PDFRenderer
}

// NewService creates an export service. A nil renderer uses ChromePDF.
func NewService(pdf PDFRenderer) *Service {
	if pdf == nil {
		pdf = ChromePDF
	}
	return &Service{pdf: pdf}
}

func (s *Service) Export(ctx context.Context, session *campaign.Session, format Format) (*Result, error) {
	doc := NewDocument(session)
	base := sanitizeFilename(doc.Title())

	switch format {
	case FormatMarkdown:
		return &Result{Data: []byte(Markdown(doc)), Filename: base + ".md", MimeType: "text/markdown; charset=utf-8"}, nil
	case FormatHTML:
		html, err := RenderDocumentHTML(doc)
		if err != nil {
			return nil, err
		}
		return &Result{Data: []byte(html), Filename: base + ".html", MimeType: "text/html; charset=utf-8"}, nil
	case FormatPDF:
		html, err := RenderDocumentHTML(doc)
		if err != nil {
			return nil, err
		}
		data, err := s.pdf(ctx, html)
		if err != nil {
			return nil, err
		}
		return &Result{Data: data, Filename: base + ".pdf", MimeType: "application/pdf"}, nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("close yaml encoder: %w", err)
		}
		return &Result{Data: buf.Bytes(), Filename: base + ".yaml", MimeType: "application/yaml"}, nil
	case FormatJSON:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return &Result{Data: append(data, '\n'), Filename: base + ".json", MimeType: "application/json"}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}
