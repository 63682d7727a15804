package scanner

import (
	"math"

	"github.com/blackwell-systems/stashfinder/internal/config"
	"github.com/blackwell-systems/stashfinder/internal/region"
)

// Result is the outcome of evaluating one region scan.
type Result struct {
	Qualified bool
	Count     int     // matching structures in the scan
	Distance  float64 // in-plane distance of the region from the origin
}

// Evaluate counts the structures in inventory that belong to th.MatchTypes
// and decides whether the region qualifies as a stash. Both bounds are
// inclusive: a region exactly at MinimumDistance with exactly MinimumCount
// matches qualifies. Evaluate has no side effects.
func Evaluate(id region.ID, inventory []region.StructureType, th config.Thresholds) Result {
	res := Result{
		Count:    CountMatches(inventory, th),
		Distance: Distance(id),
	}
	res.Qualified = res.Distance >= float64(th.MinimumDistance) && res.Count >= th.MinimumCount
	return res
}

// CountMatches returns how many entries of inventory are configured match
// types. Every occurrence counts once.
func CountMatches(inventory []region.StructureType, th config.Thresholds) int {
	count := 0
	for _, t := range inventory {
		if th.Matches(t) {
			count++
		}
	}
	return count
}

// Distance returns the Euclidean distance of the region from the origin.
func Distance(id region.ID) float64 {
	return math.Hypot(float64(id.X), float64(id.Z))
}
