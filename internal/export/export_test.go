package export

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sudeengin/DnDbug-sub002/internal/campaign"
)

var base = time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

func sampleSession(t *testing.T) *campaign.Session {
	t.Helper()
	s := campaign.NewSession("sess-export", base)
	steps := []func() error{
		func() error {
			_, err := s.WriteBackground(campaign.BackgroundContent{
				Premise:   "The Lantern Coast drowns a little more every night.",
				Stakes:    []string{"The harbor city falls"},
				Mysteries: []string{"Who rings the bell?"},
			}, base.Add(time.Minute))
			return err
		},
		func() error { return s.LockRegistry().Lock(campaign.KindBackground, base.Add(2*time.Minute)) },
		func() error {
			_, err := s.SetCharacters([]campaign.Character{
				{ID: "c1", Name: "Mira", Race: "Human", Class: "Rogue", Role: "Scout"},
				{ID: "c2", Name: "Tobin", Race: "Dwarf", Class: "Cleric"},
			}, base.Add(3*time.Minute))
			return err
		},
		func() error {
			_, err := s.AssignScore("c1", "dexterity", 15, base.Add(4*time.Minute))
			return err
		},
		func() error {
			_, err := s.UpdateSheetBuild("c2", campaign.SheetBuild{
				Name: "Tobin", Level: 3, Race: "Dwarf", Subrace: "Hill", Background: "Acolyte",
			}, base.Add(4*time.Minute))
			return err
		},
		func() error { return s.LockRegistry().Lock(campaign.KindCharacters, base.Add(5*time.Minute)) },
		func() error {
			_, err := s.SetMacroChain("chain-1", []campaign.Scene{
				{ID: "s0", Title: "The Drowned Bell", Objective: "Reach the belfry"},
				{ID: "s1", Title: "Salt Archive"},
			}, false, base.Add(6*time.Minute))
			return err
		},
		func() error { return s.LockRegistry().Lock(campaign.KindMacroChain, base.Add(7*time.Minute)) },
		func() error {
			_, err := s.PutSceneDetail("s0", campaign.SceneContent{
				EpicIntro:   "Water to the knees, and still the bell rings.",
				GMNarrative: "The belfry stairs are slick with kelp.",
				KeyEvents:   []string{"Bell falls silent"},
			}, base.Add(8*time.Minute))
			return err
		},
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	return s
}

func TestMarkdown(t *testing.T) {
	md := Markdown(NewDocument(sampleSession(t)))

	for _, want := range []string{
		"# The Lantern Coast drowns a little more every night.",
		"## Background",
		"- Who rings the bell?",
		"### Mira",
		"Human Rogue, Scout",
		"| 0 | 15 | 0 | 0 | 0 | 0 |",
		"Hill Dwarf Cleric",
		"**Level:** 3 (Acolyte)",
		"## Macro chain (Locked)",
		"### 1. The Drowned Bell",
		"Status: Generated",
		"> Water to the knees, and still the bell rings.",
		"### 2. Salt Archive",
		"Status: Draft",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q\n%s", want, md)
		}
	}
}

func TestDocumentReportsStaleStatus(t *testing.T) {
	s := sampleSession(t)
	if _, err := s.LockRegistry().Unlock(campaign.KindMacroChain, base.Add(time.Hour)); err != nil {
		t.Fatalf("unlock chain: %v", err)
	}

	doc := NewDocument(s)
	if doc.Locked.Chain {
		t.Fatal("expected chain to be reported unlocked")
	}
	if got := doc.Chain.Scenes[0].Status; got != string(campaign.StatusNeedsRegen) {
		t.Fatalf("expected NeedsRegen scene, got %s", got)
	}
	if !doc.Chain.Scenes[0].Accessible || doc.Chain.Scenes[1].Accessible {
		t.Fatalf("unexpected access flags: %+v", doc.Chain.Scenes)
	}
}

func TestRenderDocumentHTML(t *testing.T) {
	html, err := RenderDocumentHTML(NewDocument(sampleSession(t)))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{
		"<title>The Lantern Coast drowns a little more every night.</title>",
		"<h2>Background</h2>",
		"<blockquote>",
		"<table>",
		"Mar 14, 2026",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("html missing %q", want)
		}
	}
}

func TestExportFormats(t *testing.T) {
	svc := NewService(func(ctx context.Context, html string) ([]byte, error) {
		if !strings.Contains(html, "<html") {
			t.Fatalf("expected full html page, got %q", html)
		}
		return []byte("%PDF-1.7 fake"), nil
	})
	session := sampleSession(t)
	ctx := context.Background()

	tests := []struct {
		format   Format
		filename string
		mime     string
	}{
		{FormatMarkdown, "The-Lantern-Coast-drowns-a-little-more-every-night.md", "text/markdown; charset=utf-8"},
		{FormatHTML, "The-Lantern-Coast-drowns-a-little-more-every-night.html", "text/html; charset=utf-8"},
		{FormatPDF, "The-Lantern-Coast-drowns-a-little-more-every-night.pdf", "application/pdf"},
		{FormatYAML, "The-Lantern-Coast-drowns-a-little-more-every-night.yaml", "application/yaml"},
		{FormatJSON, "The-Lantern-Coast-drowns-a-little-more-every-night.json", "application/json"},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			result, err := svc.Export(ctx, session, tt.format)
			if err != nil {
				t.Fatalf("export: %v", err)
			}
			if result.Filename != tt.filename {
				t.Errorf("filename = %q, want %q", result.Filename, tt.filename)
			}
			if result.MimeType != tt.mime {
				t.Errorf("mime = %q, want %q", result.MimeType, tt.mime)
			}
			if len(result.Data) == 0 {
				t.Error("expected data")
			}
		})
	}
}

func TestExportYAMLAndJSONDecode(t *testing.T) {
	svc := NewService(nil)
	session := sampleSession(t)

	result, err := svc.Export(context.Background(), session, FormatYAML)
	if err != nil {
		t.Fatalf("export yaml: %v", err)
	}
	var fromYAML Document
	if err := yaml.Unmarshal(result.Data, &fromYAML); err != nil {
		t.Fatalf("decode yaml: %v", err)
	}
	if fromYAML.SessionID != "sess-export" || fromYAML.Chain == nil || len(fromYAML.Chain.Scenes) != 2 {
		t.Fatalf("unexpected yaml document: %+v", fromYAML)
	}

	result, err = svc.Export(context.Background(), session, FormatJSON)
	if err != nil {
		t.Fatalf("export json: %v", err)
	}
	var fromJSON Document
	if err := json.Unmarshal(result.Data, &fromJSON); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if len(fromJSON.Characters) != 2 || fromJSON.Characters[0].Scores == nil {
		t.Fatalf("unexpected json characters: %+v", fromJSON.Characters)
	}
}

func TestExportPDFDependencyMissing(t *testing.T) {
	svc := NewService(func(ctx context.Context, html string) ([]byte, error) {
		return nil, ErrPDFDependencyMissing
	})
	_, err := svc.Export(context.Background(), sampleSession(t), FormatPDF)
	if !errors.Is(err, ErrPDFDependencyMissing) {
		t.Fatalf("expected ErrPDFDependencyMissing, got %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	for input, want := range map[string]Format{"": FormatMarkdown, "markdown": FormatMarkdown, "YML": FormatYAML, "pdf": FormatPDF} {
		got, err := ParseFormat(input)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", input, got, err)
		}
	}
	if _, err := ParseFormat("docx"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"Simple Title":          "Simple-Title",
		"Title/With:Special*":   "TitleWithSpecial",
		"":                      "campaign",
		strings.Repeat("a", 80): strings.Repeat("a", 50),
	}
	for input, want := range tests {
		if got := sanitizeFilename(input); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestPercentEncodeForDataURL(t *testing.T) {
	if got := percentEncodeForDataURL("a b<é"); got != "a%20b%3C%C3%A9" {
		t.Fatalf("unexpected encoding %q", got)
	}
}
