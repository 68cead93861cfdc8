package util

import (
	"sort"
	"strings"
)

// OrderedKeys returns the keys of m in alphabetical order.
func OrderedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// OrderedIntKeys returns the keys of m in ascending order.
func OrderedIntKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// MakeTextList gives a nice list of things based on their display name.
func MakeTextList(items []string, conj string) string {
	if len(items) < 1 {
		return ""
	}

	output := ""

	if len(items) == 1 {
		output += items[0]
	} else if len(items) == 2 {
		output += items[0] + " " + conj + " " + items[1]
	} else {
		// if its more than two, use an oxford comma
		items[len(items)-1] = conj + " " + items[len(items)-1]
		output += strings.Join(items, ", ")
	}

	return output
}
