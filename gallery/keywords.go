package gallery

import (
	"slices"
	"sort"
)

// Keywords is an ordered keyword sequence. Two sequences with the same
// members in a different order are not Equal.
type Keywords []string

func (k Keywords) Equal(other Keywords) bool {
	return slices.Equal(k, other)
}

func (k Keywords) Clone() Keywords {
	if k == nil {
		return nil
	}
	return slices.Clone(k)
}

// Without returns a copy of k with the first occurrence of keyword removed.
func (k Keywords) Without(keyword string) (Keywords, bool) {
	i := slices.Index(k, keyword)
	if i < 0 {
		return k, false
	}
	out := make(Keywords, 0, len(k)-1)
	out = append(out, k[:i]...)
	return append(out, k[i+1:]...), true
}

func (k Keywords) set() map[string]struct{} {
	s := make(map[string]struct{}, len(k))
	for _, kw := range k {
		s[kw] = struct{}{}
	}
	return s
}

func fromSet(s map[string]struct{}) Keywords {
	out := make(Keywords, 0, len(s))
	for kw := range s {
		out = append(out, kw)
	}
	sort.Strings(out)
	return out
}

// Union returns the sorted union of all sequences taken as sets.
func Union(seqs ...Keywords) Keywords {
	acc := map[string]struct{}{}
	for _, seq := range seqs {
		for _, kw := range seq {
			acc[kw] = struct{}{}
		}
	}
	return fromSet(acc)
}

// Intersection returns the sorted keywords present in every sequence.
func Intersection(seqs ...Keywords) Keywords {
	if len(seqs) == 0 {
		return Keywords{}
	}
	acc := seqs[0].set()
	for _, seq := range seqs[1:] {
		s := seq.set()
		for kw := range acc {
			if _, ok := s[kw]; !ok {
				delete(acc, kw)
			}
		}
	}
	return fromSet(acc)
}

// SymmetricDifference folds the sequences pairwise with set symmetric
// difference and returns the sorted result.
func SymmetricDifference(seqs ...Keywords) Keywords {
	acc := map[string]struct{}{}
	for _, seq := range seqs {
		for kw := range seq.set() {
			if _, ok := acc[kw]; ok {
				delete(acc, kw)
			} else {
				acc[kw] = struct{}{}
			}
		}
	}
	return fromSet(acc)
}
