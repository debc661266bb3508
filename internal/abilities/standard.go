package abilities

import "fmt"

// StandardArray is the fixed multiset of values; each is usable once.
var StandardArray = []int{15, 14, 13, 12, 10, 8}

func inStandardArray(value int) bool {
	for _, candidate := range StandardArray {
		if candidate == value {
			return true
		}
	}
	return false
}

// heldBy returns the ability other than except currently holding value.
func heldBy(scores Scores, value int, except Ability) Ability {
	for _, ability := range All {
		if ability != except && scores.Get(ability) == value {
			return ability
		}
	}
	return ""
}

func checkStandardArray(scores Scores, ability Ability, value int) error {
	if value == Unassigned {
		return nil
	}
	if !inStandardArray(value) {
		return rejected("%d is not a standard array value", value)
	}
	if holder := heldBy(scores, value, ability); holder != "" {
		return rejected("%d is already assigned to %s", value, holder)
	}
	return nil
}

func validateStandardArray(scores Scores) []string {
	var messages []string
	counts := make(map[int]int, len(StandardArray))
	for _, ability := range All {
		value := scores.Get(ability)
		if value == Unassigned {
			continue
		}
		if !inStandardArray(value) {
			messages = append(messages, fmt.Sprintf("%s: %d is not a standard array value", ability, value))
			continue
		}
		counts[value]++
	}
	for _, value := range StandardArray {
		if counts[value] > 1 {
			messages = append(messages, fmt.Sprintf("%d is assigned to more than one ability", value))
		}
	}
	return messages
}
