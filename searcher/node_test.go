package searcher

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

type mockAction struct {
	id int
}

func (m mockAction) String() string {
	return "a" + strconv.Itoa(m.id)
}

// mockState is a game of fixed depth where every action id scores id points for
// its mover.
type mockState struct {
	player    int
	branching int
	depth     int
	maxDepth  int
	noMoves   bool // no legal actions although not terminated
	noMovesAt int  // depth at which played states get noMoves, 0 disables
	illegal   bool // Play rejects every action
	holdTurn  bool // actions do not pass control to the opponent
	scores    [2]int
	played    []Action
}

func (m mockState) Player() int {
	return m.player
}

func (m mockState) LegalActions() []Action {
	if m.noMoves || m.Terminated() {
		return nil
	}
	actions := make([]Action, m.branching)
	for i := range actions {
		actions[i] = mockAction{id: i}
	}
	return actions
}

func (m mockState) Play(action Action) (State, error) {
	a, ok := action.(mockAction)
	if m.illegal || !ok || a.id < 0 || a.id >= len(m.LegalActions()) {
		return nil, fmt.Errorf("%w: %v", ErrIllegalAction, action)
	}

	next := m
	next.played = append(append([]Action{}, m.played...), action)
	next.depth++
	next.scores[m.player] += a.id
	next.noMoves = m.noMovesAt > 0 && next.depth == m.noMovesAt
	if !m.holdTurn {
		next.player = 1 - m.player
	}
	return next, nil
}

func (m mockState) Terminated() bool {
	return m.depth >= m.maxDepth
}

func (m mockState) Scores() []int {
	return []int{m.scores[0], m.scores[1]}
}

func newTestNode(state State, explorationRate float64) *Node {
	s := &shared{rng: rand.New(rand.NewSource(1)), cSquared: CSquared}
	return newNode(nil, state, explorationRate, s)
}

// expandAll expands every legal action of node in a random order
func expandAll(t *testing.T, node *Node) {
	t.Helper()
	for !node.IsFullyExpanded() {
		_, err := node.expand(node.PossibleActions())
		require.NoError(t, err)
	}
}

func TestNodeIsFullyExpanded(t *testing.T) {
	node := newTestNode(mockState{branching: 2, maxDepth: 3}, 0)
	require.False(t, node.IsFullyExpanded(), "Unexpanded node should not be fully expanded")

	_, err := node.expand(node.PossibleActions())
	require.NoError(t, err)
	require.False(t, node.IsFullyExpanded(), "Partially expanded node should not be fully expanded")

	_, err = node.expand(node.PossibleActions())
	require.NoError(t, err)
	require.True(t, node.IsFullyExpanded(), "Node should be fully expanded once every action is tried")

	child, err := node.expand(node.PossibleActions())
	require.NoError(t, err)
	require.Nil(t, child, "Fully expanded node should not expand further")
}

func TestNodeSelectExpand(t *testing.T) {
	t.Run("expanding unexpanded node", func(t *testing.T) {
		node := newTestNode(mockState{branching: 3, maxDepth: 3}, 0)

		gotChild, err := node.SelectExpand()

		require.NoError(t, err)
		require.Same(t, node, gotChild.Parent(), "New child should point back to the node")
		require.Len(t, node.Children(), 1, "Node should add exactly one child")
		action := node.Children()[0]
		stored, ok := node.Child(action)
		require.True(t, ok)
		require.Same(t, gotChild, stored, "Child should be keyed by its action")
		require.Equal(t, []Action{action}, gotChild.State().(mockState).played, "Child state should be the parent state after the action")
		require.Equal(t, node.ExplorationRate(), gotChild.ExplorationRate(), "Child should inherit the exploration rate")
		require.Zero(t, gotChild.Visits(), "New child should have no visits")
		require.Zero(t, node.Visits(), "Expansion should not change node stats")
	})

	t.Run("selecting max UCB child of fully expanded node", func(t *testing.T) {
		node := newTestNode(mockState{branching: 2, maxDepth: 3}, 0)
		expandAll(t, node)
		actions := node.Children()
		worse, _ := node.Child(actions[0])
		better, _ := node.Child(actions[1])
		worse.visits, worse.wins = 1, 0
		better.visits, better.wins = 1, 1
		node.visits = 2

		gotChild, err := node.SelectExpand()

		require.NoError(t, err)
		require.Same(t, better, gotChild.Parent(), "Selection should descend into the max UCB child and expand there")
		require.Len(t, better.Children(), 1, "Selected child should expand one grandchild")
		require.Len(t, worse.Children(), 0, "Other child should stay untouched")
	})

	t.Run("breaking ties by first expanded child", func(t *testing.T) {
		node := newTestNode(mockState{branching: 3, maxDepth: 3}, 0)
		expandAll(t, node)
		for _, action := range node.Children() {
			child, _ := node.Child(action)
			child.visits, child.wins = 2, 1
		}
		node.visits = 6
		first, _ := node.Child(node.Children()[0])

		gotChild, err := node.SelectExpand()

		require.NoError(t, err)
		require.Same(t, first, gotChild.Parent(), "Equal scores should select the first child")
	})

	t.Run("prioritizing unvisited child", func(t *testing.T) {
		node := newTestNode(mockState{branching: 2, maxDepth: 3}, 0)
		expandAll(t, node)
		visited, _ := node.Child(node.Children()[0])
		unvisited, _ := node.Child(node.Children()[1])
		visited.visits, visited.wins = 5, 5
		node.visits = 5

		gotChild, err := node.SelectExpand()

		require.NoError(t, err)
		require.Same(t, unvisited, gotChild.Parent(), "Unvisited child should have infinite priority")
	})

	t.Run("selecting among existing children without exploration", func(t *testing.T) {
		node := newTestNode(mockState{branching: 4, maxDepth: 3}, 0)
		child, err := node.SelectExpand()
		require.NoError(t, err)
		child.Update(false, 0)

		gotChild, err := node.SelectExpand()

		require.NoError(t, err)
		require.Len(t, node.Children(), 1, "Exploration rate 0 should not expand a partially expanded node")
		require.Same(t, child, gotChild.Parent(), "Selection should descend into the only child")
	})

	t.Run("always expanding with full exploration", func(t *testing.T) {
		node := newTestNode(mockState{branching: 4, maxDepth: 3}, 1)
		for i := 1; i <= 4; i++ {
			child, err := node.SelectExpand()
			require.NoError(t, err)
			require.Same(t, node, child.Parent(), "Node should expand itself while actions are untried")
			require.Len(t, node.Children(), i)
			child.Update(true, 1)
		}
		require.True(t, node.IsFullyExpanded())
	})

	t.Run("stagnating on terminal node", func(t *testing.T) {
		node := newTestNode(mockState{branching: 2, depth: 3, maxDepth: 3}, 1)

		gotChild, err := node.SelectExpand()

		require.NoError(t, err)
		require.Same(t, node, gotChild, "Terminal node should be its own leaf")
		require.Empty(t, node.Children())
	})

	t.Run("failing on non-terminal node without legal actions", func(t *testing.T) {
		node := newTestNode(mockState{branching: 2, maxDepth: 3, noMoves: true}, 1)

		gotChild, err := node.SelectExpand()

		require.ErrorIs(t, err, ErrNoLegalActions)
		require.Nil(t, gotChild)
	})

	t.Run("propagating illegal action error", func(t *testing.T) {
		node := newTestNode(mockState{branching: 2, maxDepth: 3, illegal: true}, 1)

		_, err := node.SelectExpand()

		require.ErrorIs(t, err, ErrIllegalAction)
		require.Empty(t, node.Children(), "Failed expansion should not add a child")
	})
}

func TestNodeRollout(t *testing.T) {
	t.Run("playing to a terminal state", func(t *testing.T) {
		node := newTestNode(mockState{branching: 3, maxDepth: 6}, 0)

		got, err := node.Rollout()

		require.NoError(t, err)
		require.True(t, got.Terminated(), "Rollout should end in a terminal state")
		require.Len(t, got.(mockState).played, 6)
		require.Zero(t, node.State().(mockState).depth, "Rollout should not mutate the node state")
	})

	t.Run("returning terminal state unchanged", func(t *testing.T) {
		state := mockState{branching: 3, depth: 2, maxDepth: 2}
		node := newTestNode(state, 0)

		got, err := node.Rollout()

		require.NoError(t, err)
		require.Equal(t, state, got)
	})

	t.Run("failing on stuck state", func(t *testing.T) {
		node := newTestNode(mockState{branching: 3, maxDepth: 6, noMovesAt: 3}, 0)

		got, err := node.Rollout()

		require.ErrorIs(t, err, ErrNoLegalActions)
		require.Nil(t, got)
	})
}

func TestNodeUpdate(t *testing.T) {
	t.Run("negating outcome for the opponent", func(t *testing.T) {
		root := newTestNode(mockState{branching: 2, maxDepth: 3}, 1)
		leaf, err := root.SelectExpand()
		require.NoError(t, err)
		require.NotEqual(t, root.Player(), leaf.Player(), "Leaf should be moved into by the opponent of the root's mover")

		leaf.Update(true, 4)

		require.Equal(t, 1, leaf.Visits())
		require.Equal(t, 1, leaf.Wins(), "Leaf should record the win")
		require.Equal(t, 4, leaf.Result())
		require.Equal(t, 1, root.Visits())
		require.Equal(t, 0, root.Wins(), "Root should record the opponent's win as a loss")
		require.Equal(t, -4, root.Result())
	})

	t.Run("negating a loss into a win", func(t *testing.T) {
		root := newTestNode(mockState{branching: 2, maxDepth: 3}, 1)
		leaf, err := root.SelectExpand()
		require.NoError(t, err)

		leaf.Update(false, -2)

		require.Equal(t, 0, leaf.Wins())
		require.Equal(t, 1, root.Wins(), "Root should record the opponent's loss as a win")
		require.Equal(t, 2, root.Result())
	})

	t.Run("keeping outcome within the same turn", func(t *testing.T) {
		root := newTestNode(mockState{branching: 2, maxDepth: 3, holdTurn: true}, 1)
		child, err := root.SelectExpand()
		require.NoError(t, err)
		child.Update(false, 0)
		grandChild, err := child.SelectExpand()
		require.NoError(t, err)
		require.Same(t, child, grandChild.Parent())
		require.Equal(t, child.Player(), grandChild.Player(), "Same player should move twice in a row")

		grandChild.Update(true, 3)

		require.Equal(t, 1, grandChild.Wins())
		require.Equal(t, 1, child.Wins(), "Same mover should share the win")
		require.Equal(t, 3, child.Result())
		require.Equal(t, 2, child.Visits())
		require.Equal(t, 0, root.Wins(), "Root mover is the opponent")
		require.Equal(t, -3, root.Result())
		require.Equal(t, 2, root.Visits())
	})

	t.Run("negating a draw like any other non-win", func(t *testing.T) {
		root := newTestNode(mockState{branching: 2, maxDepth: 3}, 1)
		leaf, err := root.SelectExpand()
		require.NoError(t, err)
		require.NotEqual(t, root.Player(), leaf.Player())

		leaf.Update(false, 0)

		require.Equal(t, 0, leaf.Wins())
		require.Equal(t, 1-leaf.Wins(), root.Wins(), "Root should record the negation of the leaf's outcome")
		require.Equal(t, 0, root.Result())
		require.Equal(t, 1, root.Visits())
	})

	t.Run("reaching the root from deep nodes", func(t *testing.T) {
		root := newTestNode(mockState{branching: 1, maxDepth: 10}, 0)
		path := []*Node{root}
		node := root
		for i := 0; i < 4; i++ {
			child, err := node.SelectExpand()
			require.NoError(t, err)
			child.Update(false, 0)
			path = append(path, child)
			node = child
		}

		require.Equal(t, 4, root.Visits(), "Root should be visited once per backpropagation")
		for depth, n := range path[1:] {
			require.Equal(t, len(path)-1-depth, n.Visits(), "Every ancestor should be visited once per backpropagation")
		}
	})
}
