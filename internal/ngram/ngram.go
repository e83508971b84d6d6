// Package ngram extracts character n-grams from UTF-8 text, the feature
// representation the sketcher hashes into MinHash buckets.
package ngram

import "unicode/utf8"

// Extract returns the n consecutive-UTF-8-character substrings of s. Each
// n-gram is returned as a new byte slice copied out of s.
//
// If s has fewer than n characters, Extract returns nil: the caller
// (the sketcher) treats a nil/empty feature set as the empty-feature-set
// case, for which every MinHash value is the maximum representable hash.
func Extract(s string, n int) [][]byte {
	if n <= 0 || len(s) == 0 {
		return nil
	}

	// Collect the byte offset of the start of every rune, plus one
	// trailing offset at len(s) so that offsets[i+n] is always valid for the
	// last n-gram.
	offsets := make([]int, 0, len(s)+1)
	for i := range s {
		offsets = append(offsets, i)
	}
	offsets = append(offsets, len(s))

	numChars := len(offsets) - 1
	if numChars < n {
		return nil
	}

	grams := make([][]byte, 0, numChars-n+1)
	for i := 0; i+n < len(offsets); i++ {
		b, e := offsets[i], offsets[i+n]
		grams = append(grams, []byte(s[b:e]))
	}
	return grams
}

// CharCount returns the number of UTF-8 characters (runes) in s, used by
// the sketcher to decide whether a text field is long enough to produce
// any n-grams at all without fully materializing them first.
func CharCount(s string) int {
	return utf8.RuneCountInString(s)
}
