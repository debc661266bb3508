package generator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sudeengin/DnDbug-sub002/internal/campaign"
)

// MockLLM returns fixed, well-formed content for every task so the service
// can run without a model key.
type MockLLM struct{}

var mockParty = []campaign.Character{
	{Name: "Mira Vell", Role: "Scout", Race: "Half-elf", Class: "Rogue", Motivation: "find her missing brother", Age: 27, Languages: []string{"Common", "Elvish"}},
	{Name: "Tobin Ashford", Role: "Healer", Race: "Human", Class: "Cleric", Motivation: "atone for a failed rite", Age: 41, Languages: []string{"Common"}},
	{Name: "Ash", Role: "Scholar", Race: "Tiefling", Class: "Wizard", Motivation: "read the drowned archive", Age: 33, Languages: []string{"Common", "Infernal"}},
	{Name: "Brenna Stoutarm", Role: "Defender", Race: "Dwarf", Class: "Fighter", Motivation: "repay a debt to the harbor", Age: 88, Languages: []string{"Common", "Dwarvish"}},
	{Name: "Quill", Role: "Face", Race: "Halfling", Class: "Bard", Motivation: "write the song nobody dares to", Age: 24, Languages: []string{"Common", "Halfling"}},
	{Name: "Orrin Thale", Role: "Tracker", Race: "Human", Class: "Ranger", Motivation: "hunt the thing in the fog", Age: 36, Languages: []string{"Common", "Sylvan"}},
}

var mockScenes = []campaign.Scene{
	{Title: "The Drowned Bell", Objective: "Answer the bell that rings beneath the harbor."},
	{Title: "Salt Archive", Objective: "Recover the tide ledger before the water rises."},
	{Title: "Lantern Court", Objective: "Win the lantern wardens' trust."},
	{Title: "The Undertow", Objective: "Follow the ledger's trail below the sea wall."},
	{Title: "Bellkeeper's Bargain", Objective: "Decide what the drowned town is owed."},
}

func (MockLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	var payload any
	switch prompt.Task {
	case TaskBackground:
		payload = campaign.BackgroundContent{
			Premise:   "A harbor town hears a bell that sank with its old quarter a century ago.",
			ToneRules: []string{"melancholy", "quiet dread"},
			Stakes:    []string{"the new town drowns like the old one"},
			Mysteries: []string{"who rings the bell"},
			Factions:  []string{"Lantern Wardens", "Tide Guild"},
			Motifs:    []string{"bells", "salt", "lanterns"},
		}
	case TaskCharacters:
		count := ClampPlayers(prompt.Count)
		payload = map[string]any{"characters": mockParty[:count]}
	case TaskMacroChain:
		payload = map[string]any{"scenes": mockScenes}
	case TaskSceneDetail:
		payload = campaign.SceneContent{
			EpicIntro:    "Fog rolls over the quay as the bell tolls again.",
			Atmosphere:   "cold, wet, expectant",
			GMNarrative:  "The party arrives as the wardens light the lanterns.",
			KeyEvents:    []string{"the bell rings at low tide"},
			RevealedInfo: []string{"the ledger lists the drowned"},
			Beats:        []string{"arrival", "complication", "choice"},
		}
	default:
		return "", fmt.Errorf("mock llm: unknown task %q", prompt.Task)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return "```json\n" + string(raw) + "\n```", nil
}
