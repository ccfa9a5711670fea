package metrics

import (
	"sync/atomic"
	"time"
)

type SearchMetric struct {
	ExplorationRate float64
	Duration        time.Duration
	Episodes        int
	Nodes           int
	RolloutMoves    int
}

// AvgRolloutDepth is the mean number of moves played per rollout
func (s SearchMetric) AvgRolloutDepth() float64 {
	if s.Episodes == 0 {
		return 0
	}
	return float64(s.RolloutMoves) / float64(s.Episodes)
}

type MoveMetric struct {
	Step   int
	Player int // Player index
	Action string
	SearchMetric
}

type GameMetric struct {
	ID         string
	Agents     [2]string
	Winner     int // Player index, -1 for a draw
	Scores     []int
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	TotalMoves int
}

type Collector interface {
	Start(explorationRate float64)
	AddEpisode()
	AddNode()
	AddRollout(moves int)
	Complete() SearchMetric
}

type collector struct {
	explorationRate float64
	startTime       time.Time
	episodes        atomic.Int32
	nodes           atomic.Int32
	rolloutMoves    atomic.Int64
}

func NewCollector() Collector {
	return &collector{}
}

func (m *collector) Start(explorationRate float64) {
	m.startTime = time.Now()
	m.explorationRate = explorationRate
	m.episodes.Store(0)
	m.nodes.Store(0)
	m.rolloutMoves.Store(0)
}

func (m *collector) AddEpisode() {
	m.episodes.Add(1)
}

func (m *collector) AddNode() {
	m.nodes.Add(1)
}

func (m *collector) AddRollout(moves int) {
	m.rolloutMoves.Add(int64(moves))
}

func (m *collector) Complete() SearchMetric {
	return SearchMetric{
		ExplorationRate: m.explorationRate,
		Duration:        time.Since(m.startTime),
		Episodes:        int(m.episodes.Load()),
		Nodes:           int(m.nodes.Load()),
		RolloutMoves:    int(m.rolloutMoves.Load()),
	}
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (m *dummyCollector) Start(explorationRate float64) {}
func (m *dummyCollector) AddEpisode()                   {}
func (m *dummyCollector) AddNode()                      {}
func (m *dummyCollector) AddRollout(moves int)          {}
func (m *dummyCollector) Complete() SearchMetric        { return SearchMetric{} }
