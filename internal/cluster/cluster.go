package cluster

import (
	"log"
	"math"
	"sort"
)

const (
	// DefaultDistanceThreshold is the Ward merge distance above which
	// groups stay apart. Vectors are unit length, so disjoint items sit at
	// distance √2.
	DefaultDistanceThreshold = 1.0
	// MaxItems bounds the batch size clustering runs on. Linkage is cubic.
	MaxItems = 400

	labelTerms = 3
)

// Item is one document reduced to its keywords.
type Item struct {
	ID    string
	Terms []string
}

// Group is a set of items with overlapping vocabulary.
type Group struct {
	Members []int
	Terms   []string
}

// Clusterer groups items by keyword overlap using Ward linkage.
type Clusterer struct {
	threshold float64
}

// NewClusterer creates a Clusterer. A threshold of zero uses the default.
func NewClusterer(threshold float64) *Clusterer {
	if threshold <= 0 {
		threshold = DefaultDistanceThreshold
	}
	return &Clusterer{threshold: threshold}
}

// Cluster returns the groups in order of their first member. It returns
// nil for fewer than two items or more than MaxItems.
func (c *Clusterer) Cluster(items []Item) []Group {
	if len(items) < 2 {
		return nil
	}
	if len(items) > MaxItems {
		log.Printf("Skipping clustering: %d items exceeds limit of %d", len(items), MaxItems)
		return nil
	}

	labels := cutDendrogram(wardLinkage(vectorize(items)), len(items), c.threshold)

	groups := make([]Group, 0)
	for i, label := range labels {
		if label == len(groups) {
			groups = append(groups, Group{})
		}
		groups[label].Members = append(groups[label].Members, i)
	}
	for i := range groups {
		groups[i].Terms = label(items, groups[i].Members)
	}
	return groups
}

// vectorize turns each item into a unit-length binary term vector over the
// vocabulary of the whole batch.
func vectorize(items []Item) [][]float64 {
	vocab := make(map[string]int)
	for _, it := range items {
		for _, t := range it.Terms {
			if _, ok := vocab[t]; !ok {
				vocab[t] = len(vocab)
			}
		}
	}

	out := make([][]float64, len(items))
	for i, it := range items {
		v := make([]float64, len(vocab))
		for _, t := range it.Terms {
			v[vocab[t]] = 1
		}
		var norm float64
		for _, x := range v {
			norm += x * x
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for k := range v {
				v[k] /= norm
			}
		}
		out[i] = v
	}
	return out
}

// label returns the terms shared by most members, ties alphabetical.
func label(items []Item, members []int) []string {
	counts := make(map[string]int)
	for _, m := range members {
		seen := make(map[string]bool)
		for _, t := range items[m].Terms {
			if !seen[t] {
				seen[t] = true
				counts[t]++
			}
		}
	}

	terms := make([]string, 0, len(counts))
	for t := range counts {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > labelTerms {
		terms = terms[:labelTerms]
	}
	return terms
}
