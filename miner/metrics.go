package miner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	attemptsMetric = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fractald",
		Subsystem: "miner",
		Name:      "nonce_attempts_total",
		Help:      "Number of nonces tried across all searches",
	})

	blocksMinedMetric = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fractald",
		Subsystem: "miner",
		Name:      "blocks_mined_total",
		Help:      "Number of blocks sealed",
	})

	searchSecondsMetric = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "fractald",
		Subsystem: "miner",
		Name:      "search_duration_seconds",
		Help:      "Duration of nonce searches",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 24),
	})

	hashRateMetric = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "fractald",
		Subsystem: "miner",
		Name:      "hash_rate",
		Help:      "Digests computed per second during the last search",
	})
)
