package cluster

import "math"

// merge records a single merge step in the dendrogram. Cluster IDs below n
// are original points; the cluster formed at step s has ID n+s.
type merge struct {
	a, b     int
	distance float64
	size     int
}

// squaredDistances returns the full n×n matrix of squared Euclidean
// distances, stored row-major.
func squaredDistances(points [][]float64) []float64 {
	n := len(points)
	d := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			var sum float64
			for k := range points[i] {
				diff := points[i][k] - points[j][k]
				sum += diff * diff
			}
			d[i*n+j] = sum
			d[j*n+i] = sum
		}
	}
	return d
}

// wardLinkage performs Ward's agglomerative clustering using the
// Lance-Williams recurrence and returns the n-1 merges in order.
// A merged cluster takes over the matrix slot of its first member.
func wardLinkage(points [][]float64) []merge {
	n := len(points)
	if n < 2 {
		return nil
	}

	d := squaredDistances(points)
	size := make([]int, n)
	id := make([]int, n)
	active := make([]bool, n)
	for i := 0; i < n; i++ {
		size[i] = 1
		id[i] = i
		active[i] = true
	}

	merges := make([]merge, 0, n-1)
	for step := 0; step < n-1; step++ {
		minDist := math.MaxFloat64
		var a, b int
		for i := 0; i < n; i++ {
			if !active[i] {
				continue
			}
			for j := i + 1; j < n; j++ {
				if active[j] && d[i*n+j] < minDist {
					minDist = d[i*n+j]
					a, b = i, j
				}
			}
		}

		// d(new, k) = ((n_k + n_a) d(a,k) + (n_k + n_b) d(b,k) - n_k d(a,b)) / (n_k + n_a + n_b)
		na, nb := float64(size[a]), float64(size[b])
		for k := 0; k < n; k++ {
			if !active[k] || k == a || k == b {
				continue
			}
			nk := float64(size[k])
			v := ((nk+na)*d[a*n+k] + (nk+nb)*d[b*n+k] - nk*minDist) / (nk + na + nb)
			d[a*n+k] = v
			d[k*n+a] = v
		}

		merges = append(merges, merge{
			a:        id[a],
			b:        id[b],
			distance: math.Sqrt(max(minDist, 0)),
			size:     size[a] + size[b],
		})
		size[a] += size[b]
		id[a] = n + step
		active[b] = false
	}
	return merges
}

// cutDendrogram assigns cluster labels by applying only the merges at or
// below threshold. Labels are numbered in order of each cluster's first point.
func cutDendrogram(merges []merge, n int, threshold float64) []int {
	parent := make([]int, n+len(merges))
	for i := range parent {
		parent[i] = i
	}
	for step, m := range merges {
		if m.distance > threshold {
			continue
		}
		merged := n + step
		parent[m.a] = merged
		parent[m.b] = merged
	}

	labels := make([]int, n)
	ids := make(map[int]int)
	for i := 0; i < n; i++ {
		root := find(parent, i)
		label, ok := ids[root]
		if !ok {
			label = len(ids)
			ids[root] = label
		}
		labels[i] = label
	}
	return labels
}

// find resolves the root of a node, compressing the path as it goes.
func find(parent []int, i int) int {
	for parent[i] != i {
		parent[i] = parent[parent[i]]
		i = parent[i]
	}
	return i
}
