package generator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sudeengin/DnDbug-sub002/internal/campaign"
)

const systemPrompt = "You are a veteran tabletop game master who designs campaign material. " +
	"Reply with a single JSON object and no prose outside it."

func backgroundPrompt(req BackgroundRequest, players int) Prompt {
	var b strings.Builder
	fmt.Fprintf(&b, "Campaign concept: %s\n", strings.TrimSpace(req.Concept))
	fmt.Fprintf(&b, "Party size: %d players.\n\n", players)
	b.WriteString("Write the campaign background as JSON with the keys: ")
	b.WriteString(`"premise" (string), "tone_rules", "stakes", "mysteries", "factions", "location_palette", `)
	b.WriteString(`"npc_roster_skeleton", "motifs", "doNots", "playstyle_implications" (arrays of short strings).`)
	return Prompt{Task: TaskBackground, System: systemPrompt, User: b.String(), Count: players}
}

func charactersPrompt(req CharactersRequest, players int) Prompt {
	var b strings.Builder
	writeBackground(&b, req.Background)
	fmt.Fprintf(&b, "\nGenerate exactly %d playable characters (one more or fewer only if the story demands it).\n", players)
	b.WriteString(`Return {"characters":[...]} where each character has name, role, race, class, personality, `)
	b.WriteString("motivation, connectionToStory, gmSecret, potentialConflict, voiceTone, inventoryHint, ")
	b.WriteString("motifAlignment[], backgroundHistory, keyRelationships[], flawOrWeakness, languages[], alignment, ")
	b.WriteString("subrace, age (integer), height, proficiencies[]. Tie every character to the motifs above.")
	return Prompt{Task: TaskCharacters, System: systemPrompt, User: b.String(), Count: players}
}

func macroChainPrompt(req MacroChainRequest) Prompt {
	var b strings.Builder
	writeBackground(&b, req.Background)
	writeCharacters(&b, req.Characters)
	if req.IsDraftIdeaBank {
		b.WriteString("\nThis chain is a loose idea bank; scenes may be rearranged later.\n")
	}
	fmt.Fprintf(&b, "\nOutline the adventure as %d to %d scenes in play order. ", minScenes, maxScenes)
	b.WriteString(`Return {"scenes":[{"title":"...","objective":"..."}]}.`)
	return Prompt{Task: TaskMacroChain, System: systemPrompt, User: b.String(), Count: defaultScenes}
}

func sceneDetailPrompt(req SceneRequest) Prompt {
	var b strings.Builder
	writeBackground(&b, req.Background)
	writeCharacters(&b, req.Characters)
	if len(req.Previous) > 0 {
		b.WriteString("\nWhat already happened in earlier scenes:\n")
		for i, prev := range req.Previous {
			fmt.Fprintf(&b, "%d. %s", i+1, prev.Title)
			if len(prev.KeyEvents) > 0 {
				fmt.Fprintf(&b, " (events: %s)", strings.Join(prev.KeyEvents, "; "))
			}
			if len(prev.RevealedInfo) > 0 {
				fmt.Fprintf(&b, " (revealed: %s)", strings.Join(prev.RevealedInfo, "; "))
			}
			b.WriteString("\n")
		}
	}
	fmt.Fprintf(&b, "\nDetail scene %d: %q. Objective: %s\n", req.Index+1, req.Scene.Title, req.Scene.Objective)
	b.WriteString(`Return JSON with "title", "objective", "epicIntro", "atmosphere", "gmNarrative" (strings) and `)
	b.WriteString(`"keyEvents", "revealedInfo", "beats", "rewards" (arrays of strings). `)
	b.WriteString("Stay consistent with earlier scenes.")
	return Prompt{Task: TaskSceneDetail, System: systemPrompt, User: b.String(), Count: 1}
}

func writeBackground(b *strings.Builder, bg campaign.BackgroundContent) {
	raw, err := json.Marshal(bg)
	if err != nil {
		fmt.Fprintf(b, "Background premise: %s\n", bg.Premise)
		return
	}
	fmt.Fprintf(b, "Locked campaign background:\n%s\n", raw)
}

func writeCharacters(b *strings.Builder, characters []campaign.Character) {
	if len(characters) == 0 {
		return
	}
	b.WriteString("\nParty:\n")
	for _, c := range characters {
		fmt.Fprintf(b, "- %s, %s %s (%s): %s\n", c.Name, c.Race, c.Class, c.Role, c.Motivation)
	}
}
