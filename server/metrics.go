package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/zeu5/keygrid-rl/metrics"
)

type trainingMetrics struct {
	registry *prometheus.Registry

	running   prometheus.Gauge
	epsilon   prometheus.Gauge
	episode   prometheus.Gauge
	success   prometheus.Gauge
	episodes  prometheus.Counter
	successes prometheus.Counter
	steps     prometheus.Counter
	runs      *prometheus.CounterVec
	rewards   prometheus.Histogram
}

func newTrainingMetrics() *trainingMetrics {
	m := &trainingMetrics{
		registry: prometheus.NewRegistry(),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "keygrid_run_active",
			Help: "1 while a training run is in progress",
		}),
		epsilon: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "keygrid_epsilon",
			Help: "Exploration rate recorded with the last episode",
		}),
		episode: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "keygrid_episode",
			Help: "Index of the last completed episode",
		}),
		success: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "keygrid_success_rate",
			Help: "Success rate over the summary window",
		}),
		episodes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "keygrid_episodes_total",
			Help: "Completed episodes over all runs",
		}),
		successes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "keygrid_successes_total",
			Help: "Episodes that reached the goal holding the key",
		}),
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "keygrid_steps_total",
			Help: "Steps taken over all runs",
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "keygrid_runs_total",
			Help: "Training runs by outcome",
		}, []string{"outcome"}),
		rewards: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "keygrid_episode_reward",
			Help:    "Total reward per episode",
			Buckets: []float64{-10, -5, -1, 0, 1, 10, 50, 100, 110},
		}),
	}
	m.registry.MustRegister(m.running, m.epsilon, m.episode, m.success,
		m.episodes, m.successes, m.steps, m.runs, m.rewards)
	return m
}

func (m *trainingMetrics) observeEpisode(r metrics.EpisodeRecord, window metrics.WindowStats) {
	m.episode.Set(float64(r.Episode))
	m.epsilon.Set(r.Epsilon)
	m.success.Set(window.SuccessRate)
	m.episodes.Inc()
	m.steps.Add(float64(r.Steps))
	m.rewards.Observe(r.Reward)
	if r.Success {
		m.successes.Inc()
	}
}
