package service

// Limits carries the four validation thresholds spec.md §4.1 assigns
// the service. Each has a documented default; config.Config may
// override them from the environment.
type Limits struct {
	MaxKeyLength  int
	MaxValueBytes int
	MaxBatchSize  int
	MaxListLimit  int
}

// DefaultLimits returns the limits spec.md §4.1 specifies when the
// operator sets no override.
func DefaultLimits() Limits {
	return Limits{
		MaxKeyLength:  255,
		MaxValueBytes: 1 << 20, // 1 MiB
		MaxBatchSize:  100,
		MaxListLimit:  100,
	}
}
