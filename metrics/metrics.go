// Package metrics exposes the counters/timers a sync cycle and the Code
// Cache report, built on go-ethereum's own metrics package the way
// revm_bridge tracked cache miss counters (ported here to the standard
// metrics registry instead of cgo counters, since there is no FFI layer
// left to count against).
package metrics

import (
	"time"

	"github.com/ethereum/go-ethereum/metrics"
)

var (
	CacheHits   = metrics.NewRegisteredCounter("raindex/codecache/hits", nil)
	CacheMisses = metrics.NewRegisteredCounter("raindex/codecache/misses", nil)

	FetchedLogs   = metrics.NewRegisteredCounter("raindex/logfetcher/logs", nil)
	FetchRetries  = metrics.NewRegisteredCounter("raindex/logfetcher/retries", nil)
	CycleDuration = metrics.NewRegisteredTimer("raindex/syncengine/cycle", nil)
)

// TimeCycle records how long fn takes against CycleDuration.
func TimeCycle(fn func() error) error {
	start := time.Now()
	err := fn()
	CycleDuration.Update(time.Since(start))
	return err
}
