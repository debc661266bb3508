// Package abilities validates ability-score assignments for a character sheet
// under the standard-array or point-buy discipline.
package abilities

import (
	"fmt"
	"strings"
)

type Ability string

const (
	Strength     Ability = "strength"
	Dexterity    Ability = "dexterity"
	Constitution Ability = "constitution"
	Intelligence Ability = "intelligence"
	Wisdom       Ability = "wisdom"
	Charisma     Ability = "charisma"
)

// All lists the six abilities in sheet order.
var All = []Ability{Strength, Dexterity, Constitution, Intelligence, Wisdom, Charisma}

var abbreviations = map[string]Ability{
	"str": Strength,
	"dex": Dexterity,
	"con": Constitution,
	"int": Intelligence,
	"wis": Wisdom,
	"cha": Charisma,
}

// ParseAbility accepts full names and the usual three-letter forms.
func ParseAbility(value string) (Ability, bool) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if ability, ok := abbreviations[normalized]; ok {
		return ability, true
	}
	switch ability := Ability(normalized); ability {
	case Strength, Dexterity, Constitution, Intelligence, Wisdom, Charisma:
		return ability, true
	default:
		return "", false
	}
}

type Method string

const (
	MethodStandardArray Method = "standard-array"
	MethodPointBuy      Method = "point-buy"
)

func ParseMethod(value string) (Method, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(MethodStandardArray), "standard":
		return MethodStandardArray, true
	case string(MethodPointBuy), "pointbuy":
		return MethodPointBuy, true
	default:
		return "", false
	}
}

// Unassigned is the sentinel score of an empty slot.
const Unassigned = 0

// Scores holds one value per ability.
type Scores struct {
	Strength     int `json:"strength"`
	Dexterity    int `json:"dexterity"`
	Constitution int `json:"constitution"`
	Intelligence int `json:"intelligence"`
	Wisdom       int `json:"wisdom"`
	Charisma     int `json:"charisma"`
}

func (s Scores) Get(ability Ability) int {
	switch ability {
	case Strength:
		return s.Strength
	case Dexterity:
		return s.Dexterity
	case Constitution:
		return s.Constitution
	case Intelligence:
		return s.Intelligence
	case Wisdom:
		return s.Wisdom
	case Charisma:
		return s.Charisma
	default:
		return Unassigned
	}
}

func (s *Scores) set(ability Ability, value int) {
	switch ability {
	case Strength:
		s.Strength = value
	case Dexterity:
		s.Dexterity = value
	case Constitution:
		s.Constitution = value
	case Intelligence:
		s.Intelligence = value
	case Wisdom:
		s.Wisdom = value
	case Charisma:
		s.Charisma = value
	}
}

// ScoreSet is a character's assignment under one method, with derived values.
type ScoreSet struct {
	Method        Method          `json:"method"`
	Scores        Scores          `json:"scores"`
	Modifiers     map[Ability]int `json:"modifiers"`
	PointBuyTotal int             `json:"pointBuyTotal,omitempty"`
}

// NewScoreSet returns a set with every ability unassigned.
func NewScoreSet(method Method) ScoreSet {
	set := ScoreSet{Method: method}
	set.recompute()
	return set
}

// Modifier returns floor((score-10)/2). ok is false for an unassigned score.
func Modifier(score int) (int, bool) {
	if score == Unassigned {
		return 0, false
	}
	diff := score - 10
	if diff < 0 {
		return (diff - 1) / 2, true
	}
	return diff / 2, true
}

func (s *ScoreSet) recompute() {
	s.Modifiers = make(map[Ability]int, len(All))
	for _, ability := range All {
		if modifier, ok := Modifier(s.Scores.Get(ability)); ok {
			s.Modifiers[ability] = modifier
		}
	}
	s.PointBuyTotal = 0
	if s.Method == MethodPointBuy {
		s.PointBuyTotal = PointBuyCost(s.Scores)
	}
}

// ValidationError carries one human-readable message per violated rule.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "ability scores invalid: " + strings.Join(e.Messages, "; ")
}

func rejected(format string, args ...any) *ValidationError {
	return &ValidationError{Messages: []string{fmt.Sprintf(format, args...)}}
}

// Assign sets ability to value under the set's method. Rule violations that
// block the edit are returned as a *ValidationError and leave set unchanged;
// violations that are only flagged come back as messages on the new set.
func Assign(set ScoreSet, ability Ability, value int) (ScoreSet, []string, error) {
	if _, ok := ParseAbility(string(ability)); !ok {
		return set, nil, rejected("unknown ability %q", ability)
	}
	var err error
	switch set.Method {
	case MethodStandardArray:
		err = checkStandardArray(set.Scores, ability, value)
	case MethodPointBuy:
		err = checkPointBuy(ability, value)
	default:
		err = rejected("unknown allocation method %q", set.Method)
	}
	if err != nil {
		return set, nil, err
	}
	next := set
	next.Scores.set(ability, value)
	next.recompute()
	return next, Validate(next), nil
}

// Validate recomputes every violated rule of set from scratch.
func Validate(set ScoreSet) []string {
	switch set.Method {
	case MethodStandardArray:
		return validateStandardArray(set.Scores)
	case MethodPointBuy:
		return validatePointBuy(set.Scores)
	default:
		return []string{fmt.Sprintf("unknown allocation method %q", set.Method)}
	}
}

// OptionState describes a candidate value for one ability.
type OptionState string

const (
	OptionFree     OptionState = "free"
	OptionSelected OptionState = "selected"
	OptionTaken    OptionState = "taken"
)

type Option struct {
	Value int         `json:"value"`
	State OptionState `json:"state"`
	Cost  int         `json:"cost,omitempty"`
}

// Options enumerates candidate values for ability. It is a presentation aid:
// Assign remains the only authority on what is accepted.
func Options(set ScoreSet, ability Ability) []Option {
	current := set.Scores.Get(ability)
	switch set.Method {
	case MethodStandardArray:
		options := make([]Option, 0, len(StandardArray))
		for _, value := range StandardArray {
			state := OptionFree
			switch {
			case value == current:
				state = OptionSelected
			case heldBy(set.Scores, value, ability) != "":
				state = OptionTaken
			}
			options = append(options, Option{Value: value, State: state})
		}
		return options
	case MethodPointBuy:
		options := make([]Option, 0, PointBuyMax-PointBuyMin+1)
		for value := PointBuyMin; value <= PointBuyMax; value++ {
			state := OptionFree
			if value == current {
				state = OptionSelected
			}
			options = append(options, Option{Value: value, State: state, Cost: pointBuyCosts[value]})
		}
		return options
	default:
		return nil
	}
}
