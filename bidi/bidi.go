// Package bidi contains small helpers for rendering Hebrew (right-to-left)
// text correctly in two different targets: a naive glyph-drawing canvas that
// lays glyphs out strictly left-to-right, and a bidi-aware renderer such as a
// Telegram client.
package bidi

// RLM is the Unicode RIGHT-TO-LEFT MARK.
const RLM = "‏"

// Reverse reverses the order of code points in s. A left-to-right text drawer
// will then paint a Hebrew word in its correct visual order. It operates on
// runes, not grapheme clusters, so inputs with combining marks are not
// handled; plain Hebrew names are fine.
func Reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

// WrapRTL wraps s with RLM markers so that a bidi-aware renderer displays
// mixed-direction content (Hebrew, digits, emoji) in the right order. Use this
// for message captions; use Reverse for text drawn onto the image canvas.
func WrapRTL(s string) string {
	return RLM + s + RLM
}

// NameLess reports whether the name (aLast, aFirst) sorts before
// (bLast, bFirst) under the grid placement ordering: plain lexicographic
// (lastname, firstname) over the raw strings. Ordering is byte-wise, not
// locale aware, and must stay that way so grid placement is reproducible.
func NameLess(aLast, aFirst, bLast, bFirst string) bool {
	if aLast != bLast {
		return aLast < bLast
	}
	return aFirst < bFirst
}
