package abilities

import "fmt"

const (
	PointBuyMin    = 8
	PointBuyMax    = 15
	PointBuyBudget = 27
)

var pointBuyCosts = map[int]int{8: 0, 9: 1, 10: 2, 11: 3, 12: 4, 13: 5, 14: 7, 15: 9}

// PointBuyCost sums the cost of every assigned in-range score.
func PointBuyCost(scores Scores) int {
	total := 0
	for _, ability := range All {
		total += pointBuyCosts[scores.Get(ability)]
	}
	return total
}

func checkPointBuy(ability Ability, value int) error {
	if value == Unassigned {
		return nil
	}
	if value < PointBuyMin || value > PointBuyMax {
		return rejected("%s must be between %d and %d", ability, PointBuyMin, PointBuyMax)
	}
	return nil
}

func validatePointBuy(scores Scores) []string {
	var messages []string
	for _, ability := range All {
		value := scores.Get(ability)
		if value == Unassigned {
			continue
		}
		if value < PointBuyMin || value > PointBuyMax {
			messages = append(messages, fmt.Sprintf("%s must be between %d and %d", ability, PointBuyMin, PointBuyMax))
		}
	}
	if total := PointBuyCost(scores); total > PointBuyBudget {
		messages = append(messages, fmt.Sprintf("point buy total %d exceeds budget of %d", total, PointBuyBudget))
	}
	return messages
}
