package types

import (
	"fmt"
	"sort"

	"github.com/goccy/go-json"
)

// Set is an insertion ordered set; order matters for key fields
type Set[T comparable] struct {
	hash    map[T]struct{}
	storage []T
}

func NewSet[T comparable](values ...T) *Set[T] {
	set := &Set[T]{
		hash:    make(map[T]struct{}),
		storage: []T{},
	}
	set.Insert(values...)

	return set
}

func (st *Set[T]) Insert(values ...T) {
	for _, value := range values {
		if _, found := st.hash[value]; found {
			continue
		}

		st.hash[value] = struct{}{}
		st.storage = append(st.storage, value)
	}
}

func (st *Set[T]) Exists(value T) bool {
	_, found := st.hash[value]
	return found
}

func (st *Set[T]) Remove(value T) {
	if !st.Exists(value) {
		return
	}

	delete(st.hash, value)
	for idx, elem := range st.storage {
		if elem == value {
			st.storage = append(st.storage[:idx], st.storage[idx+1:]...)
			break
		}
	}
}

func (st *Set[T]) Len() int {
	return len(st.storage)
}

// Array returns a copy of the elements in insertion order
func (st *Set[T]) Array() []T {
	out := make([]T, len(st.storage))
	copy(out, st.storage)
	return out
}

func (st *Set[T]) Range(f func(value T) bool) {
	for _, elem := range st.storage {
		if !f(elem) {
			return
		}
	}
}

// Difference returns elements of st that are not in other
func (st *Set[T]) Difference(other *Set[T]) *Set[T] {
	diff := NewSet[T]()
	for _, elem := range st.storage {
		if !other.Exists(elem) {
			diff.Insert(elem)
		}
	}

	return diff
}

// ProperSubsetOf reports whether every element of st is in other and other has more
func (st *Set[T]) ProperSubsetOf(other *Set[T]) bool {
	if st.Len() >= other.Len() {
		return false
	}

	return st.Difference(other).Len() == 0
}

func (st *Set[T]) String() string {
	return fmt.Sprintf("%v", st.storage)
}

func (st *Set[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(st.storage)
}

func (st *Set[T]) UnmarshalJSON(data []byte) error {
	values := []T{}
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}

	st.hash = make(map[T]struct{})
	st.storage = []T{}
	st.Insert(values...)

	return nil
}

// SortedStrings returns the elements formatted and sorted, used for stable output
func (st *Set[T]) SortedStrings() []string {
	out := make([]string, 0, st.Len())
	for _, elem := range st.storage {
		out = append(out, fmt.Sprint(elem))
	}
	sort.Strings(out)

	return out
}
