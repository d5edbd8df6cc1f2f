package types

// This file defines how the cache reports what it is doing.

/*
Metrics is an interface that defines what the cache wants to measure.
Each method represents an event in the cache lifecycle.
*/
type Metrics interface {

	// Hit is called when Get returns a value, from either tier.
	Hit()

	// Miss is called when Get finds nothing usable in either tier.
	Miss()

	// Expire is called when a stale entry is dropped from a tier during a read.
	Expire()

	// Restore is called when a value read from the persistent tier is copied back into memory.
	Restore()

	// QuotaRecovery is called after a quota-recovery sweep with the number of records it removed.
	QuotaRecovery(removed int)

	// StorageError is called for every swallowed persistent tier failure. op names the failing step.
	StorageError(op string)
}

/*
NoopMetrics is a "do nothing" implementation of Metrics.
It is the default, so the cache never needs nil checks around metrics.
*/
type NoopMetrics struct{}

func (NoopMetrics) Hit()                {}
func (NoopMetrics) Miss()               {}
func (NoopMetrics) Expire()             {}
func (NoopMetrics) Restore()            {}
func (NoopMetrics) QuotaRecovery(int)   {}
func (NoopMetrics) StorageError(string) {}
