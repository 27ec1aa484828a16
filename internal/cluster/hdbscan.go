package cluster

import (
	"math"
	"sort"
)

// Noise is the label of points that belong to no cluster
const Noise = -1

// maxLambda caps 1/distance so duplicate points keep stabilities finite
const maxLambda = 1e12

// HDBSCAN labels points by hierarchical density clustering with excess-of-mass
// cluster selection. minSamples equals minClusterSize. Labels are 0..k-1 in the
// order clusters appear in the condensed tree, or Noise. Points whose length
// differs from the most common length are labelled Noise.
func HDBSCAN(points [][]float32, minClusterSize int) []int {
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = Noise
	}
	dim := commonLength(len(points), func(i int) int { return len(points[i]) })
	var (
		kept []int
		same [][]float32
	)
	for i, p := range points {
		if len(p) == dim {
			kept = append(kept, i)
			same = append(same, p)
		}
	}
	for i, l := range hdbscan(same, minClusterSize) {
		labels[kept[i]] = l
	}
	return labels
}

// commonLength returns the most frequent of n lengths, the first seen on ties
func commonLength(n int, length func(i int) int) int {
	counts := make(map[int]int)
	best, bestCount := 0, 0
	for i := 0; i < n; i++ {
		l := length(i)
		counts[l]++
		if counts[l] > bestCount {
			best, bestCount = l, counts[l]
		}
	}
	return best
}

func hdbscan(points [][]float32, minClusterSize int) []int {
	n := len(points)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = Noise
	}
	if minClusterSize < 2 {
		minClusterSize = 2
	}
	if n < minClusterSize {
		return labels
	}

	dist := pairwise(points)
	core := coreDistances(dist, minClusterSize)
	edges := primMST(dist, core)
	t := singleLinkage(n, edges)
	ct := condense(t, minClusterSize)
	selected := selectEOM(ct)

	next := 0
	clusterLabel := make(map[int]int)
	for c := 1; c < ct.clusters; c++ {
		if selected[c] {
			clusterLabel[c] = next
			next++
		}
	}
	for p := 0; p < n; p++ {
		for c := ct.pointParent[p]; c > 0; c = ct.parent[c] {
			if selected[c] {
				labels[p] = clusterLabel[c]
				break
			}
		}
	}
	return labels
}

func pairwise(points [][]float32) [][]float64 {
	n := len(points)
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			var sum float64
			for k := range min(len(points[i]), len(points[j])) {
				d := float64(points[i][k]) - float64(points[j][k])
				sum += d * d
			}
			d := math.Sqrt(sum)
			dist[i][j] = d
			dist[j][i] = d
		}
	}
	return dist
}

// coreDistances is the distance to the minSamples-th nearest point, counting the point itself
func coreDistances(dist [][]float64, minSamples int) []float64 {
	n := len(dist)
	k := minSamples - 1
	if k > n-1 {
		k = n - 1
	}
	core := make([]float64, n)
	row := make([]float64, n)
	for i := range dist {
		copy(row, dist[i])
		sort.Float64s(row)
		core[i] = row[k]
	}
	return core
}

type edge struct {
	a, b   int
	weight float64
}

// primMST builds the minimum spanning tree of the mutual-reachability graph
func primMST(dist [][]float64, core []float64) []edge {
	n := len(dist)
	inTree := make([]bool, n)
	best := make([]float64, n)
	from := make([]int, n)
	for i := range best {
		best[i] = math.Inf(1)
	}

	edges := make([]edge, 0, n-1)
	current := 0
	inTree[current] = true
	for len(edges) < n-1 {
		next, nextWeight := -1, math.Inf(1)
		for v := 0; v < n; v++ {
			if inTree[v] {
				continue
			}
			mr := math.Max(dist[current][v], math.Max(core[current], core[v]))
			if mr < best[v] {
				best[v] = mr
				from[v] = current
			}
			if best[v] < nextWeight {
				next, nextWeight = v, best[v]
			}
		}
		inTree[next] = true
		edges = append(edges, edge{a: from[next], b: next, weight: nextWeight})
		current = next
	}

	sort.SliceStable(edges, func(i, j int) bool { return edges[i].weight < edges[j].weight })
	return edges
}

// tree is a single-linkage dendrogram: ids below n are points, ids n..2n-2 merges
type tree struct {
	n           int
	left, right []int
	distance    []float64
	size        []int
}

func (t *tree) root() int { return 2*t.n - 2 }

func (t *tree) sizeOf(node int) int {
	if node < t.n {
		return 1
	}
	return t.size[node-t.n]
}

func (t *tree) leaves(node int, out []int) []int {
	if node < t.n {
		return append(out, node)
	}
	i := node - t.n
	out = t.leaves(t.left[i], out)
	return t.leaves(t.right[i], out)
}

func singleLinkage(n int, edges []edge) *tree {
	t := &tree{
		n:        n,
		left:     make([]int, 0, n-1),
		right:    make([]int, 0, n-1),
		distance: make([]float64, 0, n-1),
		size:     make([]int, 0, n-1),
	}
	parent := make([]int, 2*n-1)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}

	for i, e := range edges {
		a, b := find(e.a), find(e.b)
		node := n + i
		t.left = append(t.left, a)
		t.right = append(t.right, b)
		t.distance = append(t.distance, e.weight)
		t.size = append(t.size, t.sizeOf(a)+t.sizeOf(b))
		parent[a] = node
		parent[b] = node
	}
	return t
}

// condensedTree keeps only clusters of at least minClusterSize points.
// Cluster 0 is the root; a child cluster always has a larger id than its parent.
type condensedTree struct {
	clusters    int
	parent      []int     // parent cluster, -1 for the root
	birth       []float64 // lambda at which the cluster appears
	stability   []float64
	children    [][]int
	pointParent []int // cluster each point falls out of
	pointLambda []float64
}

func lambdaOf(distance float64) float64 {
	if distance <= 0 {
		return maxLambda
	}
	return math.Min(1/distance, maxLambda)
}

func condense(t *tree, minClusterSize int) *condensedTree {
	ct := &condensedTree{
		pointParent: make([]int, t.n),
		pointLambda: make([]float64, t.n),
	}
	newCluster := func(parent int, birth float64) int {
		id := ct.clusters
		ct.clusters++
		ct.parent = append(ct.parent, parent)
		ct.birth = append(ct.birth, birth)
		ct.stability = append(ct.stability, 0)
		ct.children = append(ct.children, nil)
		if parent >= 0 {
			ct.children[parent] = append(ct.children[parent], id)
		}
		return id
	}
	fallOut := func(node, cluster int, lambda float64) {
		for _, p := range t.leaves(node, nil) {
			ct.pointParent[p] = cluster
			ct.pointLambda[p] = lambda
		}
	}

	var walk func(node, cluster int)
	walk = func(node, cluster int) {
		if node < t.n {
			fallOut(node, cluster, maxLambda)
			return
		}
		i := node - t.n
		lambda := lambdaOf(t.distance[i])
		l, r := t.left[i], t.right[i]
		ls, rs := t.sizeOf(l), t.sizeOf(r)

		switch {
		case ls >= minClusterSize && rs >= minClusterSize:
			walk(l, newCluster(cluster, lambda))
			walk(r, newCluster(cluster, lambda))
		case ls < minClusterSize && rs < minClusterSize:
			fallOut(l, cluster, lambda)
			fallOut(r, cluster, lambda)
		case ls < minClusterSize:
			fallOut(l, cluster, lambda)
			walk(r, cluster)
		default:
			fallOut(r, cluster, lambda)
			walk(l, cluster)
		}
	}

	root := newCluster(-1, 0)
	walk(t.root(), root)

	// stability: sum over everything leaving a cluster of (lambda - birth) * size
	for p, c := range ct.pointParent {
		ct.stability[c] += ct.pointLambda[p] - ct.birth[c]
	}
	for c := 1; c < ct.clusters; c++ {
		parent := ct.parent[c]
		ct.stability[parent] += (ct.birth[c] - ct.birth[parent]) * float64(ct.size(c))
	}
	return ct
}

// size counts the points that fall out of c or any of its descendants
func (ct *condensedTree) size(c int) int {
	n := 0
	for _, pc := range ct.pointParent {
		for x := pc; x >= 0; x = ct.parent[x] {
			if x == c {
				n++
				break
			}
			if x < c {
				break
			}
		}
	}
	return n
}

// selectEOM picks the clusters with the greatest excess of mass; the root is never selected
func selectEOM(ct *condensedTree) []bool {
	selected := make([]bool, ct.clusters)
	stability := append([]float64(nil), ct.stability...)

	var deselect func(int)
	deselect = func(c int) {
		for _, child := range ct.children[c] {
			selected[child] = false
			deselect(child)
		}
	}

	for c := ct.clusters - 1; c >= 1; c-- {
		var childSum float64
		for _, child := range ct.children[c] {
			childSum += stability[child]
		}
		if len(ct.children[c]) > 0 && childSum > stability[c] {
			stability[c] = childSum
			continue
		}
		selected[c] = true
		deselect(c)
	}
	return selected
}
