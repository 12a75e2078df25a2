package domain

// Result of a walking-path request against a routing provider.
// Order is only set by optimizing requests: Order[i] is the input index visited at position i.
type RouteResult struct {
	Waypoints       []Coordinate
	DistanceMeters  float64
	DurationSeconds float64
	Order           []int
}

// ComputeMode selects between keeping the authored order and letting the provider reorder.
type ComputeMode string

const (
	FixedOrder ComputeMode = "fixed"
	Optimize   ComputeMode = "optimize"
)

func (m ComputeMode) Valid() bool {
	return m == FixedOrder || m == Optimize
}
