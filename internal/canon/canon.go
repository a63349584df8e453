package canon

import (
	"sort"
	"strings"
)

const fragmentSep = "."

// #region canonicalize
// Canonicalize normalizes a record into its canonical form.
//
// Whitespace is trimmed and internal runs collapse to a single space. R and P
// are split on '.', each fragment is trimmed, empty fragments are dropped, and
// the rest are ordered by descending length with byte-wise ascending order as
// the tie-break. C is normalized but never split.
//
// The result is idempotent: canonicalizing a Form's Record returns the same Form.
func Canonicalize(rec Record) (Form, error) {
	r := canonicalSide(rec.R)
	if r == "" {
		return Form{}, &MalformedInputError{Side: SideReactant}
	}
	p := canonicalSide(rec.P)
	if p == "" {
		return Form{}, &MalformedInputError{Side: SideProduct}
	}
	return Form{R: r, C: normalizeSpace(rec.C), P: p}, nil
}

// #endregion canonicalize

// #region helpers
// normalizeSpace trims s and collapses every whitespace run to one space.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func canonicalSide(s string) string {
	s = normalizeSpace(s)
	if s == "" {
		return ""
	}
	raw := strings.Split(s, fragmentSep)
	frags := raw[:0]
	for _, f := range raw {
		f = strings.TrimSpace(f)
		if f != "" {
			frags = append(frags, f)
		}
	}
	SortFragments(frags)
	return strings.Join(frags, fragmentSep)
}

// SortFragments orders fragments in place: longer first, then byte-wise ascending.
func SortFragments(frags []string) {
	sort.Slice(frags, func(i, j int) bool {
		if len(frags[i]) != len(frags[j]) {
			return len(frags[i]) > len(frags[j])
		}
		return frags[i] < frags[j]
	})
}

// Fragments splits a canonical side back into its fragments.
func Fragments(side string) []string {
	if side == "" {
		return nil
	}
	return strings.Split(side, fragmentSep)
}

// #endregion helpers
