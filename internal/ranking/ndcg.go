// Package ranking computes DCG, IDCG and NDCG over one ordered sequence of
// relevance grades at one or more cutoffs.
package ranking

import (
	"math"
	"sort"
)

// Score holds the ranking-quality numbers for a single cutoff K.
// Defined is false when IDCG is zero: the session carries no positive
// relevance and NDCG has no value, which is distinct from an NDCG of 0.
type Score struct {
	DCG     float64
	IDCG    float64
	NDCG    float64
	Defined bool
}

// Evaluate computes DCG@K, IDCG@K and NDCG@K for each cutoff. The grades are
// in as-served order: grades[0] is position 1. The ideal ordering is built
// once by sorting the full grade multiset descending; each cutoff truncates
// both orderings to their first K slots so the two remain comparable.
func Evaluate(grades []int, cutoffs []int) map[int]Score {
	ideal := IdealOrder(grades)

	scores := make(map[int]Score, len(cutoffs))
	for _, k := range cutoffs {
		dcg := DCGAt(grades, k)
		idcg := DCGAt(ideal, k)

		s := Score{DCG: dcg, IDCG: idcg}
		if idcg > 0 {
			s.NDCG = dcg / idcg
			s.Defined = true
		}
		scores[k] = s
	}
	return scores
}

// DCGAt computes the discounted cumulative gain over the first K slots of
// the given ordering: sum of grade_i / log2(i+1) with i the 1-indexed rank.
// Position 1 receives full credit since log2(2) = 1.
func DCGAt(grades []int, k int) float64 {
	if k <= 0 {
		return 0
	}

	n := min(k, len(grades))
	var dcg float64
	for i := 0; i < n; i++ {
		dcg += Contribution(grades[i], i+1)
	}
	return dcg
}

// Contribution is the DCG term a single grade adds at a 1-indexed position.
func Contribution(grade, position int) float64 {
	if grade <= 0 || position <= 0 {
		return 0
	}
	return float64(grade) / math.Log2(float64(position+1))
}

// IdealOrder returns a copy of the grade multiset sorted descending. IDCG
// depends only on this multiset, never on the served order.
func IdealOrder(grades []int) []int {
	ideal := make([]int, len(grades))
	copy(ideal, grades)
	sort.Sort(sort.Reverse(sort.IntSlice(ideal)))
	return ideal
}
