package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tileplay/experiments/metrics"
	"tileplay/game"
	"tileplay/render"
	"tileplay/searcher"
)

var searchTree bool

func runSearch(cmd *cobra.Command, args []string) error {
	options, err := cfg.GameOptions()
	if err != nil {
		return err
	}
	state := game.NewState(options...)
	if err := render.New(os.Stdout).State(state); err != nil {
		return err
	}

	tree, err := searcher.NewTree(state, cfg.Search.ExplorationRate,
		append(cfg.SearchOptions(), searcher.WithMetrics(metrics.NewCollector()))...)
	if err != nil {
		return err
	}
	best, err := tree.Search(cmd.Context())
	if err != nil {
		return err
	}

	metric := tree.Metric()
	fmt.Printf("\n%d episodes in %s, %d nodes, average rollout depth %.1f\n",
		metric.Episodes, metric.Duration, tree.Size(), metric.AvgRolloutDepth())
	root := tree.Root()
	for _, action := range root.Children() {
		child, _ := root.Child(action)
		fmt.Printf("  %-16v visits=%-6d wins=%-6d result=%d\n", action, child.Visits(), child.Wins(), child.Result())
	}
	fmt.Printf("best action: %v\n", best)

	if searchTree {
		fmt.Println()
		return tree.Visualize(os.Stdout)
	}
	return nil
}
