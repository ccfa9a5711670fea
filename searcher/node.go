package searcher

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
)

// shared holds the per-tree settings every node of a tree refers to.
type shared struct {
	rng      *rand.Rand
	cSquared float64
	nodes    int
}

// Node is a game state reached from the root through a sequence of actions.
// Its wins are counted from the perspective of the player who moved into it.
type Node struct {
	state           State
	parent          *Node
	player          int
	children        map[Action]*Node
	actions         []Action // expansion order
	visits          int
	wins            int
	result          int
	explorationRate float64
	shared          *shared
}

func newNode(parent *Node, state State, explorationRate float64, s *shared) *Node {
	// The root has no incoming move; attribute it to the opponent of the player to move
	player := 1 - state.Player()
	if parent != nil {
		player = parent.state.Player()
	}
	s.nodes++

	return &Node{
		state:           state,
		parent:          parent,
		player:          player,
		children:        make(map[Action]*Node),
		explorationRate: explorationRate,
		shared:          s,
	}
}

func (n *Node) State() State {
	return n.state
}

func (n *Node) Parent() *Node {
	return n.parent
}

// Player who chose the action leading to this node.
func (n *Node) Player() int {
	return n.player
}

func (n *Node) Visits() int {
	return n.visits
}

func (n *Node) Wins() int {
	return n.wins
}

// Result is the accumulated score differential from Player's perspective.
func (n *Node) Result() int {
	return n.result
}

func (n *Node) ExplorationRate() float64 {
	return n.explorationRate
}

// Children returns the expanded actions in expansion order.
func (n *Node) Children() []Action {
	actions := make([]Action, len(n.actions))
	copy(actions, n.actions)
	return actions
}

func (n *Node) Child(action Action) (*Node, bool) {
	child, ok := n.children[action]
	return child, ok
}

func (n *Node) PossibleActions() []Action {
	return n.state.LegalActions()
}

func (n *Node) IsFullyExpanded() bool {
	return len(n.children) == len(n.PossibleActions())
}

// SelectExpand walks down the tree and returns the node to roll out from: either a
// newly expanded child or a terminal node.
func (n *Node) SelectExpand() (*Node, error) {
	if n.state.Terminated() {
		return n, nil
	}

	explore := n.shared.rng.Float64() < n.explorationRate
	actions := n.PossibleActions()
	if len(actions) == 0 {
		return nil, fmt.Errorf("select from non-terminal state of player %d: %w", n.state.Player(), ErrNoLegalActions)
	}

	if len(n.children) == 0 || (explore && len(n.children) < len(actions)) {
		if child, err := n.expand(actions); child != nil || err != nil {
			return child, err
		}
	}

	return n.selectChild().SelectExpand()
}

// expand adds one untried action picked uniformly at random, nil if there is none
func (n *Node) expand(actions []Action) (*Node, error) {
	untried := make([]Action, 0, len(actions)-len(n.children))
	for _, action := range actions {
		if _, ok := n.children[action]; !ok {
			untried = append(untried, action)
		}
	}
	if len(untried) == 0 {
		return nil, nil
	}

	action := untried[n.shared.rng.Intn(len(untried))]
	state, err := n.state.Play(action)
	if err != nil {
		return nil, fmt.Errorf("expand %s: %w", action, err)
	}

	child := newNode(n, state, n.explorationRate, n.shared)
	n.children[action] = child
	n.actions = append(n.actions, action)
	return child, nil
}

func (n *Node) selectChild() *Node {
	normalizer := n.shared.cSquared * math.Log(float64(n.visits))

	var selected *Node
	maxScore := math.Inf(-1)
	for _, action := range n.actions {
		child := n.children[action]
		score := ucb1(child.wins, child.visits, normalizer)
		if score == math.Inf(1) {
			return child
		}
		if score > maxScore {
			maxScore = score
			selected = child
		}
	}
	if selected == nil {
		panic(fmt.Sprintf("node with %d visits has no selectable child", n.visits))
	}
	return selected
}

// Rollout plays uniformly random actions from the node's state until the game ends.
func (n *Node) Rollout() (State, error) {
	state, _, err := n.rollout()
	return state, err
}

func (n *Node) rollout() (State, int, error) {
	state := n.state
	moves := 0
	for !state.Terminated() {
		actions := state.LegalActions()
		if len(actions) == 0 {
			return nil, moves, fmt.Errorf("rollout from non-terminal state of player %d: %w", state.Player(), ErrNoLegalActions)
		}

		next, err := state.Play(actions[n.shared.rng.Intn(len(actions))]) // Random rollout policy
		if err != nil {
			return nil, moves, fmt.Errorf("rollout: %w", err)
		}
		state = next
		moves++
	}
	return state, moves, nil
}

// Update backpropagates an outcome, seen from this node's Player, up to the root.
func (n *Node) Update(win bool, result int) {
	node := n
	for node != nil {
		node.visits++
		if win {
			node.wins++
		}
		node.result += result

		// Flip perspective whenever the parent was moved into by the other player
		parent := node.parent
		if parent != nil && parent.player != node.player {
			win = !win
			result = -result
		}
		node = parent
	}
}
