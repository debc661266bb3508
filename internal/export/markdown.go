package export

import (
	"fmt"
	"strings"
)

// Markdown renders the document as GitHub-flavoured markdown.
func Markdown(doc Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", doc.Title())
	fmt.Fprintf(&b, "_Session %s, version %d_\n\n", doc.SessionID, doc.Version)

	if bg := doc.Background; bg != nil {
		b.WriteString("## Background\n\n")
		fmt.Fprintf(&b, "%s\n\n", strings.TrimSpace(bg.Premise))
		writeList(&b, "Tone", bg.ToneRules)
		writeList(&b, "Stakes", bg.Stakes)
		writeList(&b, "Mysteries", bg.Mysteries)
		writeList(&b, "Factions", bg.Factions)
		writeList(&b, "Locations", bg.LocationPalette)
		writeList(&b, "Motifs", bg.Motifs)
	}

	if len(doc.Characters) > 0 {
		b.WriteString("## Characters\n\n")
		for _, c := range doc.Characters {
			fmt.Fprintf(&b, "### %s\n\n", c.Name)
			if line := joinNonEmpty(" ", c.Race, c.Class); line != "" {
				fmt.Fprintf(&b, "%s", line)
				if c.Role != "" {
					fmt.Fprintf(&b, ", %s", c.Role)
				}
				b.WriteString("\n\n")
			}
			if c.Level > 0 {
				fmt.Fprintf(&b, "**Level:** %d", c.Level)
				if c.Background != "" {
					fmt.Fprintf(&b, " (%s)", c.Background)
				}
				b.WriteString("\n\n")
			}
			if c.Motivation != "" {
				fmt.Fprintf(&b, "**Motivation:** %s\n\n", c.Motivation)
			}
			if s := c.Scores; s != nil {
				b.WriteString("| STR | DEX | CON | INT | WIS | CHA |\n|---|---|---|---|---|---|\n")
				fmt.Fprintf(&b, "| %d | %d | %d | %d | %d | %d |\n\n",
					s.Strength, s.Dexterity, s.Constitution, s.Intelligence, s.Wisdom, s.Charisma)
			}
		}
	}

	if chain := doc.Chain; chain != nil {
		fmt.Fprintf(&b, "## Macro chain (%s)\n\n", chain.Status)
		for i, scene := range chain.Scenes {
			fmt.Fprintf(&b, "### %d. %s\n\n", i+1, scene.Title)
			fmt.Fprintf(&b, "Status: %s\n\n", scene.Status)
			if scene.Objective != "" {
				fmt.Fprintf(&b, "**Objective:** %s\n\n", scene.Objective)
			}
			if scene.EpicIntro != "" {
				fmt.Fprintf(&b, "> %s\n\n", scene.EpicIntro)
			}
			if scene.GMNarrative != "" {
				fmt.Fprintf(&b, "%s\n\n", scene.GMNarrative)
			}
			writeList(&b, "Key events", scene.KeyEvents)
		}
	}
	return b.String()
}

func writeList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "**%s**\n\n", heading)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, sep)
}

func firstLine(text string, limit int) string {
	line := strings.TrimSpace(strings.SplitN(strings.TrimSpace(text), "\n", 2)[0])
	if runes := []rune(line); len(runes) > limit {
		line = strings.TrimSpace(string(runes[:limit])) + "..."
	}
	return line
}
