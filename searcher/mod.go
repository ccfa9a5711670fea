package searcher

import (
	"errors"
	"fmt"
)

var (
	// ErrNoLegalActions is returned when an action must be chosen from a non-terminal
	// state that has none.
	ErrNoLegalActions = errors.New("no legal actions")
	// ErrIllegalAction is wrapped by State.Play implementations rejecting an action.
	ErrIllegalAction = errors.New("illegal action")
	// ErrInvalidExplorationRate is returned for exploration rates outside [0, 1].
	ErrInvalidExplorationRate = errors.New("exploration rate must be within [0, 1]")
	// ErrNoChildren is returned when a best action is requested from an unexpanded root.
	ErrNoChildren = errors.New("root has no expanded children")
)

// Action is a move from a State. Implementations must be comparable, they key the
// children of a Node.
type Action interface {
	fmt.Stringer
}

// State should be immutable - Play always returns a new State
type State interface {
	// Player is the index of the player in control of the state (0 or 1)
	Player() int
	// LegalActions is empty iff no legal move exists
	LegalActions() []Action
	// Play wraps ErrIllegalAction if the action is not legal
	Play(Action) (State, error)
	Terminated() bool
	// Scores are indexed by player
	Scores() []int
}

// outcome of a terminal state from player's perspective
func outcome(terminal State, player int) (win bool, result int) {
	scores := terminal.Scores()
	if len(scores) < 2 {
		return false, 0
	}
	result = scores[player] - scores[1-player]
	return result > 0, result
}
