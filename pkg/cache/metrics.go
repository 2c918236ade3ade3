package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	layerMemory = "memory"
	layerRedis  = "redis"
)

var (
	// CacheHits tracks cache hits by layer (memory, redis)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chronos_cache_hits_total",
			Help: "Total number of feed cache hits",
		},
		[]string{"layer"},
	)

	// CacheMisses tracks cache misses, expired entries included
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chronos_cache_misses_total",
			Help: "Total number of feed cache misses",
		},
		[]string{"layer"},
	)

	// CacheEvictions tracks capacity evictions in the memory layer
	CacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chronos_cache_evictions_total",
			Help: "Total number of LRU evictions from the memory cache",
		},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chronos_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete", "invalidate"
	)
)
