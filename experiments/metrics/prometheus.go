package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus holds the search instruments shared by every collector it hands out.
type Prometheus struct {
	episodes     prometheus.Counter
	nodes        prometheus.Counter
	rolloutMoves prometheus.Histogram
	duration     prometheus.Histogram
}

// NewPrometheus registers the search instruments on reg. Instruments that are already
// registered are reused.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	p := &Prometheus{
		episodes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tileplay",
			Subsystem: "search",
			Name:      "episodes_total",
			Help:      "Completed select-expand-rollout-backpropagate iterations",
		}),
		nodes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tileplay",
			Subsystem: "search",
			Name:      "nodes_total",
			Help:      "Tree nodes created by expansion",
		}),
		rolloutMoves: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tileplay",
			Subsystem: "search",
			Name:      "rollout_moves",
			Help:      "Moves played per random rollout",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tileplay",
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "Wall time of one search",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	var err error
	if p.episodes, err = register(reg, p.episodes); err != nil {
		return nil, err
	}
	if p.nodes, err = register(reg, p.nodes); err != nil {
		return nil, err
	}
	if p.rolloutMoves, err = register(reg, p.rolloutMoves); err != nil {
		return nil, err
	}
	if p.duration, err = register(reg, p.duration); err != nil {
		return nil, err
	}
	return p, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Collector returns a collector for one search that also feeds the shared instruments.
func (p *Prometheus) Collector() Collector {
	return &promCollector{collector: collector{}, prom: p}
}

type promCollector struct {
	collector
	prom *Prometheus
}

func (m *promCollector) AddEpisode() {
	m.collector.AddEpisode()
	m.prom.episodes.Inc()
}

func (m *promCollector) AddNode() {
	m.collector.AddNode()
	m.prom.nodes.Inc()
}

func (m *promCollector) AddRollout(moves int) {
	m.collector.AddRollout(moves)
	m.prom.rolloutMoves.Observe(float64(moves))
}

func (m *promCollector) Complete() SearchMetric {
	metric := m.collector.Complete()
	m.prom.duration.Observe(metric.Duration.Seconds())
	return metric
}
