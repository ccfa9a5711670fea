package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	c := NewCollector()
	c.Start(0.5)
	c.AddEpisode()
	c.AddEpisode()
	c.AddNode()
	c.AddRollout(3)
	c.AddRollout(5)

	metric := c.Complete()

	require.Equal(t, 0.5, metric.ExplorationRate)
	require.Equal(t, 2, metric.Episodes)
	require.Equal(t, 1, metric.Nodes)
	require.Equal(t, 8, metric.RolloutMoves)
	require.Equal(t, 4.0, metric.AvgRolloutDepth())

	c.Start(1)
	require.Zero(t, c.Complete().Episodes, "Start should reset the counts")

	require.Zero(t, SearchMetric{}.AvgRolloutDepth())
	require.Equal(t, SearchMetric{}, NewDummyCollector().Complete())
}

func TestPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := NewPrometheus(reg)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		c := p.Collector()
		c.Start(1)
		c.AddEpisode()
		c.AddNode()
		c.AddRollout(4)
		require.Equal(t, 1, c.Complete().Episodes, "Each collector should count its own search")
	}

	require.Equal(t, 2.0, testutil.ToFloat64(p.episodes))
	require.Equal(t, 2.0, testutil.ToFloat64(p.nodes))

	again, err := NewPrometheus(reg)
	require.NoError(t, err, "Registering twice should reuse the instruments")
	again.Collector().AddEpisode()
	require.Equal(t, 3.0, testutil.ToFloat64(p.episodes))
}

func TestWriter(t *testing.T) {
	w, err := NewWriter(t.TempDir(), "arena")
	require.NoError(t, err)
	require.DirExists(t, w.Dir())

	start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, w.WriteAgentConfigs([]AgentConfig{{ID: 1, Kind: "mcts", Iterations: 100, ExplorationRate: 0.5, Reuse: true}}))
	require.NoError(t, w.WriteGameRecords([]GameRecord{{
		Match:  1,
		Agent1: 1,
		Agent2: 2,
		GameMetric: GameMetric{
			ID: "g1", Winner: 0, Scores: []int{12, 7},
			StartTime: start, EndTime: start.Add(time.Second), Duration: time.Second, TotalMoves: 40,
		},
	}}))
	require.NoError(t, w.WriteMoveRecords([]MoveRecord{{
		Game:       "g1",
		MoveMetric: MoveMetric{Step: 1, Player: 0, Action: "pass", SearchMetric: SearchMetric{Episodes: 2, RolloutMoves: 5}},
	}}))

	read := func(file string) []string {
		data, err := os.ReadFile(filepath.Join(w.Dir(), file))
		require.NoError(t, err)
		return strings.Split(strings.TrimSpace(string(data)), "\n")
	}

	require.Equal(t, []string{
		"id,kind,iterations,duration,exploration_rate,reuse,epsilon,qtable",
		"1,mcts,100,0s,0.5,true,0,",
	}, read("agent_configs.csv"))
	require.Equal(t, []string{
		"id,match,agent1,agent2,winner,scores,start_time,end_time,duration,moves",
		"g1,1,1,2,0,12:7,2024-01-02T03:04:05Z,2024-01-02T03:04:06Z,1s,40",
	}, read("game_records.csv"))
	require.Equal(t, []string{
		"game,step,player,action,duration,episodes,nodes,avg_rollout_depth",
		"g1,1,0,pass,0s,2,0,2.50",
	}, read("move_records.csv"))
}
