package util

import (
	"fmt"
	"sort"
	"strings"
)

// ISet is a set of items of some type.
type ISet[E any] interface {
	// Add adds the given element to the Set. If the element is already in the
	// set, no effect occurs.
	Add(element E)

	// AddAll adds all elements in s2 to the Set.
	AddAll(s2 ISet[E])

	// Remove removes the given element from the Set. If the element is already
	// not in the set, no effect occurs.
	Remove(element E)

	// Has returns whether the given set has the specified element.
	Has(element E) bool

	// Len returns the number of elements in the set.
	Len() int

	// Elements returns the elements of the set as a slice, in no particular
	// order.
	Elements() []E

	// Empty returns whether the set is empty.
	Empty() bool

	// Equal returns whether a Set equals another value. For those sets which
	// implement value mapping to elements, this does NOT compare the data
	// values.
	Equal(o any) bool

	// StringOrdered is a string with the contents of the set, ordered
	// alphabetically.
	StringOrdered() string
}

// VSet is a set that contains values mapped to items.
type VSet[E any, V any] interface {
	ISet[E]

	// Set assigns the value of the element. The element is added if it isn't
	// already in the set, and that element is assigned the given data value.
	Set(element E, data V)

	// Get retrieves the value of an element. The value of the element is
	// returned if it exists, otherwise the zero-value for V is returned.
	Get(element E) V
}

// SVSet is a set that uses strings as its item type and some other type as its
// stored data type.
type SVSet[V any] map[string]V

func NewSVSet[V any](of ...map[string]V) SVSet[V] {
	bs := SVSet[V](map[string]V{})
	for _, m := range of {
		for k := range m {
			bs.Set(k, m[k])
		}
	}
	return bs
}

// Add adds an index. Has no effect if it's already there.
func (s SVSet[V]) Add(idx string) {
	if _, ok := s[idx]; ok {
		return
	}
	newRef := new(V)
	s[idx] = *newRef
}

func (s SVSet[V]) Set(idx string, val V) {
	s[idx] = val
}

func (s SVSet[V]) Get(idx string) V {
	return s[idx]
}

func (s SVSet[V]) Has(idx string) bool {
	_, ok := s[idx]
	return ok
}

func (s SVSet[V]) Remove(idx string) {
	delete(s, idx)
}

func (s SVSet[V]) Len() int {
	return len(s)
}

func (s SVSet[V]) Empty() bool {
	return len(s) == 0
}

func (s SVSet[V]) Elements() []string {
	elems := []string{}
	for k := range s {
		elems = append(elems, k)
	}
	return elems
}

// OrderedElements returns the elements of the set sorted alphabetically.
func (s SVSet[V]) OrderedElements() []string {
	elems := s.Elements()
	sort.Strings(elems)
	return elems
}

func (s SVSet[V]) AddAll(s2 ISet[string]) {
	// if this is also a VSet[string, V], then we go by value
	valuedSet, isValued := s2.(VSet[string, V])
	if isValued {
		for _, k := range valuedSet.Elements() {
			s.Set(k, valuedSet.Get(k))
		}
	} else {
		for _, k := range s2.Elements() {
			s.Add(k)
		}
	}
}

// StringOrdered shows the contents of the set. Items are guaranteed to be
// alphabetized.
func (s SVSet[V]) StringOrdered() string {
	return orderedSetString(s.Elements())
}

// String shows the contents of the set. Items are not guaranteed to be in any
// particular order.
func (s SVSet[V]) String() string {
	return s.StringOrdered()
}

// Equal returns whether two sets have the same items. This does not compare
// the mapped values, only the keys.
func (s SVSet[V]) Equal(o any) bool {
	other, ok := o.(ISet[string])
	if !ok {
		// also okay if its the pointer value, as long as its non-nil
		otherPtr, ok := o.(*ISet[string])
		if !ok {
			return false
		} else if otherPtr == nil {
			return false
		} else {
			other = *otherPtr
		}
	}

	if s.Len() != other.Len() {
		return false
	}

	for k := range s {
		if !other.Has(k) {
			return false
		}
	}

	return true
}

// StringSet is a map[string]bool with methods added to fulfill ISet[string].
type StringSet map[string]bool

func NewStringSet(of ...map[string]bool) StringSet {
	s := StringSet{}
	for _, m := range of {
		for k := range m {
			s.Add(k)
		}
	}
	return s
}

func StringSetOf(sl []string) StringSet {
	s := StringSet{}
	for i := range sl {
		s.Add(sl[i])
	}
	return s
}

func (s StringSet) Copy() StringSet {
	newS := NewStringSet()
	for k := range s {
		newS[k] = true
	}
	return newS
}

func (s StringSet) Has(value string) bool {
	_, has := s[value]
	return has
}

func (s StringSet) Add(value string) {
	s[value] = true
}

func (s StringSet) Remove(value string) {
	delete(s, value)
}

func (s StringSet) Len() int {
	return len(s)
}

func (s StringSet) Empty() bool {
	return len(s) == 0
}

func (s StringSet) AddAll(s2 ISet[string]) {
	for _, element := range s2.Elements() {
		s.Add(element)
	}
}

// Union returns a new StringSet that is the union of s and o.
func (s StringSet) Union(o StringSet) StringSet {
	newSet := s.Copy()
	for k := range o {
		newSet.Add(k)
	}
	return newSet
}

// Difference returns a new StringSet that contains the elements that are in s
// but not in o.
func (s StringSet) Difference(o StringSet) StringSet {
	newSet := NewStringSet()
	for k := range s {
		if !o.Has(k) {
			newSet.Add(k)
		}
	}
	return newSet
}

// Elements returns the elements of s as a slice. No particular order is
// guaranteed nor should it be relied on.
func (s StringSet) Elements() []string {
	sl := make([]string, 0, len(s))
	for item := range s {
		sl = append(sl, item)
	}
	return sl
}

// OrderedElements returns the elements of s sorted alphabetically.
func (s StringSet) OrderedElements() []string {
	sl := s.Elements()
	sort.Strings(sl)
	return sl
}

// StringOrdered shows the contents of the set. Items are guaranteed to be
// alphabetized.
func (s StringSet) StringOrdered() string {
	return orderedSetString(s.Elements())
}

// String shows the contents of the set, alphabetized.
func (s StringSet) String() string {
	return s.StringOrdered()
}

// Equal returns whether two sets have the same items.
func (s StringSet) Equal(o any) bool {
	other, ok := o.(ISet[string])
	if !ok {
		otherPtr, ok := o.(*ISet[string])
		if !ok {
			return false
		} else if otherPtr == nil {
			return false
		} else {
			other = *otherPtr
		}
	}

	if s.Len() != other.Len() {
		return false
	}

	for k := range s {
		if !other.Has(k) {
			return false
		}
	}

	return true
}

// IntSet is a map[int]bool with methods added to fulfill ISet[int]. It is used
// for automaton state sets, where the stable iteration key is the state id.
type IntSet map[int]bool

func NewIntSet(of ...map[int]bool) IntSet {
	s := IntSet{}
	for _, m := range of {
		for k := range m {
			s.Add(k)
		}
	}
	return s
}

func IntSetOf(sl []int) IntSet {
	s := IntSet{}
	for i := range sl {
		s.Add(sl[i])
	}
	return s
}

func (s IntSet) Copy() IntSet {
	newS := NewIntSet()
	for k := range s {
		newS[k] = true
	}
	return newS
}

func (s IntSet) Has(value int) bool {
	_, has := s[value]
	return has
}

func (s IntSet) Add(value int) {
	s[value] = true
}

func (s IntSet) Remove(value int) {
	delete(s, value)
}

func (s IntSet) Len() int {
	return len(s)
}

func (s IntSet) Empty() bool {
	return len(s) == 0
}

func (s IntSet) AddAll(s2 ISet[int]) {
	for _, element := range s2.Elements() {
		s.Add(element)
	}
}

// Elements returns the elements of s as a slice in no particular order.
func (s IntSet) Elements() []int {
	sl := make([]int, 0, len(s))
	for item := range s {
		sl = append(sl, item)
	}
	return sl
}

// OrderedElements returns the elements of s in ascending order.
func (s IntSet) OrderedElements() []int {
	sl := s.Elements()
	sort.Ints(sl)
	return sl
}

// Intersection returns a new IntSet containing the elements in both s and o.
func (s IntSet) Intersection(o IntSet) IntSet {
	newSet := NewIntSet()
	for k := range s {
		if o.Has(k) {
			newSet.Add(k)
		}
	}
	return newSet
}

// Difference returns a new IntSet containing the elements in s but not in o.
func (s IntSet) Difference(o IntSet) IntSet {
	newSet := NewIntSet()
	for k := range s {
		if !o.Has(k) {
			newSet.Add(k)
		}
	}
	return newSet
}

// StringOrdered shows the contents of the set in ascending numeric order. The
// result is usable as a content-identity key for subsets of states.
func (s IntSet) StringOrdered() string {
	elems := s.OrderedElements()
	var sb strings.Builder
	sb.WriteRune('{')
	for i := range elems {
		sb.WriteString(fmt.Sprintf("%d", elems[i]))
		if i+1 < len(elems) {
			sb.WriteRune(',')
			sb.WriteRune(' ')
		}
	}
	sb.WriteRune('}')
	return sb.String()
}

func (s IntSet) String() string {
	return s.StringOrdered()
}

// Equal returns whether two sets have the same items.
func (s IntSet) Equal(o any) bool {
	other, ok := o.(ISet[int])
	if !ok {
		otherPtr, ok := o.(*ISet[int])
		if !ok {
			return false
		} else if otherPtr == nil {
			return false
		} else {
			other = *otherPtr
		}
	}

	if s.Len() != other.Len() {
		return false
	}

	for k := range s {
		if !other.Has(k) {
			return false
		}
	}

	return true
}

func orderedSetString(elems []string) string {
	sort.Strings(elems)

	var sb strings.Builder

	sb.WriteRune('{')
	for i := range elems {
		sb.WriteString(elems[i])
		if i+1 < len(elems) {
			sb.WriteRune(',')
			sb.WriteRune(' ')
		}
	}
	sb.WriteRune('}')
	return sb.String()
}
