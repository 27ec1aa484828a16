package index

import (
	"math"
	"sort"
)

// flat is an exact Euclidean index. Callers hold the Service lock.
type flat struct {
	dim     int
	entries []entry
}

type hit struct {
	pos      int
	distance float64
}

// nearest returns up to k positions ordered by ascending distance, ties in insertion order
func (f *flat) nearest(q []float32, k int) []hit {
	hits := make([]hit, len(f.entries))
	for i, e := range f.entries {
		hits[i] = hit{pos: i, distance: euclidean(q, e.Vector)}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].distance < hits[j].distance })
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits
}

func euclidean(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Similarity maps a Euclidean distance into (0,1]
func Similarity(distance float64) float64 {
	return 1 / (1 + distance)
}
