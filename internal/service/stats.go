package service

import "sync/atomic"

// Stats tracks per-operation counters for a Service, updated atomically
// to avoid lock contention. Generalized from the teacher's per-shard
// operation counters to a single set per service, since this system has
// no physical sharding.
type Stats struct {
	Gets      uint64
	Puts      uint64
	Deletes   uint64
	BatchGets uint64
	BatchPuts uint64
	Lists     uint64
}

type counters struct {
	gets, puts, deletes, batchGets, batchPuts, lists uint64
}

func (c *counters) bump(field *uint64) {
	atomic.AddUint64(field, 1)
}

func (c *counters) snapshot() Stats {
	return Stats{
		Gets:      atomic.LoadUint64(&c.gets),
		Puts:      atomic.LoadUint64(&c.puts),
		Deletes:   atomic.LoadUint64(&c.deletes),
		BatchGets: atomic.LoadUint64(&c.batchGets),
		BatchPuts: atomic.LoadUint64(&c.batchPuts),
		Lists:     atomic.LoadUint64(&c.lists),
	}
}
