package geo

import (
	"math"

	"tour-route-service/internal/domain"
)

// NearestNeighborOrder returns a visiting order over points using a greedy
// nearest-neighbor walk that starts at index 0 and keeps it first.
//
// It does not attempt global optimization; ties go to the lower input index
// so the result is deterministic.
func NearestNeighborOrder(points []domain.Coordinate) []int {
	return nearestNeighbor(len(points), func(from, to int) float64 {
		return DistanceMeters(points[from], points[to])
	})
}

// NearestNeighborOrderMatrix is NearestNeighborOrder over a precomputed cost
// matrix, e.g. walking durations from a routing service. cost[i][j] is the
// cost of going from i to j; NaN or negative entries count as unreachable.
func NearestNeighborOrderMatrix(cost [][]float64) []int {
	return nearestNeighbor(len(cost), func(from, to int) float64 {
		if to >= len(cost[from]) {
			return math.Inf(1)
		}
		c := cost[from][to]
		if math.IsNaN(c) || c < 0 {
			return math.Inf(1)
		}
		return c
	})
}

func nearestNeighbor(n int, cost func(from, to int) float64) []int {
	if n == 0 {
		return []int{}
	}

	order := make([]int, 0, n)
	order = append(order, 0)

	remaining := make(map[int]struct{}, n-1)
	for i := 1; i < n; i++ {
		remaining[i] = struct{}{}
	}

	current := 0
	for len(remaining) > 0 {
		best := -1
		minCost := math.Inf(1)

		for i := range remaining {
			c := cost(current, i)
			// Tie-breaker keeps the order deterministic; unreachable entries still get placed.
			if best == -1 || c < minCost || (c == minCost && i < best) {
				minCost = c
				best = i
			}
		}

		order = append(order, best)
		delete(remaining, best)
		current = best
	}

	return order
}
