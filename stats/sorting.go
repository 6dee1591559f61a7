package stats

import "sort"

// SortedCopy returns an ascending-sorted copy of x.
func SortedCopy(x []float64) []float64 {
	xs := make([]float64, len(x))
	copy(xs, x)
	sort.Float64s(xs)
	return xs
}

// Argsort returns the permutation that sorts x ascending: x[perm[0]] is
// the smallest value. The sort is stable so ties keep their input order.
func Argsort(x []float64) []int {
	perm := make([]int, len(x))
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(a, b int) bool {
		return x[perm[a]] < x[perm[b]]
	})
	return perm
}

// InvertPermutation returns the inverse of perm, mapping original
// positions to their rank.
func InvertPermutation(perm []int) []int {
	inv := make([]int, len(perm))
	for rank, pos := range perm {
		inv[pos] = rank
	}
	return inv
}

// SortLike rearranges the values of x so that they follow the rank order
// of reference: the smallest value of x lands where reference has its
// smallest value. x and reference must have equal length.
func SortLike(x, reference []float64) []float64 {
	xs := SortedCopy(x)
	ranks := InvertPermutation(Argsort(reference))
	out := make([]float64, len(x))
	for i, r := range ranks {
		out[i] = xs[r]
	}
	return out
}
