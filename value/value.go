// Package value defines the tagged value model for SEB configuration
// documents. Both serializers (canonical and plist) pattern-match over these
// cases; the Int/Real split is carried explicitly in the model because the
// plist format distinguishes <integer> from <real> and the distinction must
// not depend on a runtime heuristic.
package value

import (
	"sort"
	"strings"
	"time"
)

// Value is the sealed variant type. Exactly the types in this package
// implement it.
type Value interface {
	isValue()
}

// Null is the explicit absent value. It renders as "null" in canonical form
// and as an empty <string> element in plist form.
type Null struct{}

// Bool is a boolean configuration value.
type Bool bool

// Int is a 64-bit integer configuration value.
type Int int64

// Real is a floating-point configuration value.
type Real float64

// String is a text configuration value.
type String string

// Bytes is an opaque binary configuration value. Serializers render it as
// base64 text.
type Bytes []byte

// Timestamp is an instant. Serializers render it as ISO-8601 text with
// millisecond precision in UTC.
type Timestamp time.Time

// List is an ordered sequence of values. Order is preserved as given, never
// sorted.
type List []Value

// Dict is a mapping of unique string keys to values. Key ordering is never
// stored; serializers compute it on demand with SortedKeys.
type Dict map[string]Value

func (Null) isValue()      {}
func (Bool) isValue()      {}
func (Int) isValue()       {}
func (Real) isValue()      {}
func (String) isValue()    {}
func (Bytes) isValue()     {}
func (Timestamp) isValue() {}
func (List) isValue()      {}
func (Dict) isValue()      {}

// KeyLess is the shared key comparator: case-insensitive ordinal order, with
// equal-under-folding keys ordered by their original bytes so the result is
// total and deterministic.
func KeyLess(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}

// SortedKeys returns the dictionary's keys in KeyLess order. Both the
// canonical serializer and the plist renderer use this ordering at every
// nesting level.
func (d Dict) SortedKeys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return KeyLess(keys[i], keys[j]) })
	return keys
}
