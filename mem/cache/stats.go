package cache

// Stats accumulates the outcome of a simulation run.
type Stats struct {
	Hits              uint64 `json:"hits"`
	Misses            uint64 `json:"misses"`
	Evictions         uint64 `json:"evictions"`
	DoubleReferences  uint64 `json:"double_references"`
	DirtyBytesActive  uint64 `json:"dirty_bytes_active"`
	DirtyBytesEvicted uint64 `json:"dirty_bytes_evicted"`

	// Accesses counts the load, store and modify records processed.
	Accesses uint64 `json:"accesses"`

	// Instructions counts the instruction fetch records, which do not touch
	// the cache.
	Instructions uint64 `json:"instructions"`
}

// HitRate returns hits / (hits + misses), or 0 before any access.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}

	return float64(s.Hits) / float64(total)
}
