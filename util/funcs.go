package util

import (
	"cmp"
	"iter"
	"slices"

	"github.com/hashicorp/go-set/v3"
)

func SetFromSeq[V comparable](s iter.Seq[V], size int) *set.Set[V] {
	newSet := set.New[V](size)
	for item := range s {
		newSet.Insert(item)
	}
	return newSet
}

// SortedKeys returns the elements of s in ascending order
func SortedKeys[V cmp.Ordered](s set.Collection[V]) []V {
	keys := s.Slice()
	slices.Sort(keys)
	return keys
}

func Reverse[A any](slice []A) iter.Seq[A] {
	return func(yield func(A) bool) {
		for i := len(slice) - 1; i >= 0; i-- {
			if !yield(slice[i]) {
				return
			}
		}
	}
}
