// Package metrics defines a collector interface for dogbutler's cache,
// cookie, and redirect operations, kept free of any specific monitoring
// system's dependencies so the core package never has to import one.
package metrics

import "time"

// Collector receives measurements. Within this module only wrapper/metrickv
// reports to it, through RecordStoreOperation; the managers, Session.Do and
// the transport do not call a Collector. Implementations adapt these calls
// to a concrete monitoring system.
type Collector interface {
	// RecordStoreOperation records a KeyValueStore operation.
	// operation is "get", "set", "delete", or "clear"; backend names the store
	// implementation (e.g. "memstore", "rediskv"); result is "hit", "miss",
	// "success", or "error".
	RecordStoreOperation(operation, backend, result string, duration time.Duration)

	// RecordRequest records a completed Session.Do call.
	// cacheStatus is "hit", "miss", "revalidated", or "bypass".
	RecordRequest(method, cacheStatus string, statusCode int, duration time.Duration)

	// RecordResponseSize records the byte size of a response body.
	RecordResponseSize(cacheStatus string, sizeBytes int64)
}

// NoOpCollector implements Collector with no-op methods. It is the default
// collector, giving zero overhead to callers who never configure one.
type NoOpCollector struct{}

func (NoOpCollector) RecordStoreOperation(operation, backend, result string, duration time.Duration) {
}
func (NoOpCollector) RecordRequest(method, cacheStatus string, statusCode int, duration time.Duration) {
}
func (NoOpCollector) RecordResponseSize(cacheStatus string, sizeBytes int64) {}

// DefaultCollector is used whenever a component isn't given a Collector.
var DefaultCollector Collector = NoOpCollector{}

var _ Collector = NoOpCollector{}
