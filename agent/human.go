package agent

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"tileplay/game"
	"tileplay/searcher"
)

// Human asks for an action on a line-oriented terminal: an index into the listed
// actions, or "p" to pass when passing is legal.
type Human struct {
	in  *bufio.Scanner
	out io.Writer
}

func NewHuman(in io.Reader, out io.Writer) *Human {
	return &Human{in: bufio.NewScanner(in), out: out}
}

func (h *Human) Name() string {
	return "human"
}

func (h *Human) Choose(ctx context.Context, state *game.State) (searcher.Action, error) {
	actions := state.LegalActions()
	if len(actions) == 0 {
		fmt.Fprintf(h.out, "Player %d: pass (no actions)\n", state.Player())
		return nil, nil
	}

	fmt.Fprintf(h.out, "\nPlayer %d, possible actions:\n", state.Player())
	for i, action := range actions {
		fmt.Fprintf(h.out, "  [%d] %v\n", i, action)
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fmt.Fprint(h.out, "Choose action index (or 'p' to pass): ")
		if !h.in.Scan() {
			if err := h.in.Err(); err != nil {
				return nil, fmt.Errorf("read input: %w", err)
			}
			return nil, fmt.Errorf("read input: %w", io.ErrUnexpectedEOF)
		}

		if action, ok := parseChoice(h.in.Text(), actions); ok {
			return action, nil
		}
		fmt.Fprintln(h.out, "Invalid input, try again.")
	}
}

func parseChoice(raw string, actions []searcher.Action) (searcher.Action, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "p" || raw == "pass" {
		for _, action := range actions {
			if _, ok := action.(game.PassAction); ok {
				return action, true
			}
		}
		return nil, false
	}

	i, err := strconv.Atoi(raw)
	if err != nil || i < 0 || i >= len(actions) {
		return nil, false
	}
	return actions[i], true
}
