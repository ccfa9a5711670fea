package searcher

import "math"

// Hyperparameters for MCTS

// CSquared is the squared exploration constant: sqrt(CSquared*ln(N)/n) == sqrt(2*(2*ln(N)/n))
const CSquared = 4.0

// ucb1 = w/n + sqrt(c^2*ln(N)/n), where c2LnN is c^2*ln(N) of the parent
func ucb1(wins, visits int, c2LnN float64) float64 {
	// Prioritize unexplored nodes
	if visits == 0 {
		return math.Inf(1)
	}

	return float64(wins)/float64(visits) + math.Sqrt(c2LnN/float64(visits))
}
