package ui

import (
	"strings"

	runewidth "github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// fit truncates s to width display columns and pads it to exactly width.
func fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, "…")
	}
	return runewidth.FillRight(s, width)
}

// singleLine folds newlines and tabs so a value fits on one row.
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// wrap breaks s into lines of at most width display columns, splitting on
// spaces and, for words wider than a line, between grapheme clusters.
func wrap(s string, width int) []string {
	if width <= 0 {
		return nil
	}
	var lines []string
	var cur strings.Builder
	curW := 0
	flush := func() {
		lines = append(lines, cur.String())
		cur.Reset()
		curW = 0
	}
	for _, word := range strings.Fields(s) {
		w := uniseg.StringWidth(word)
		if curW > 0 && curW+1+w <= width {
			cur.WriteByte(' ')
			cur.WriteString(word)
			curW += 1 + w
			continue
		}
		if curW > 0 {
			flush()
		}
		if w <= width {
			cur.WriteString(word)
			curW = w
			continue
		}
		for _, part := range splitGraphemes(word, width) {
			if curW > 0 {
				flush()
			}
			cur.WriteString(part)
			curW = uniseg.StringWidth(part)
		}
	}
	if curW > 0 || len(lines) == 0 {
		flush()
	}
	return lines
}

// splitGraphemes cuts s into chunks no wider than width without breaking a
// grapheme cluster. A cluster wider than width gets a chunk of its own.
func splitGraphemes(s string, width int) []string {
	var parts []string
	var cur strings.Builder
	curW := 0
	state := -1
	for len(s) > 0 {
		var cluster string
		var w int
		cluster, s, w, state = uniseg.FirstGraphemeClusterInString(s, state)
		if curW > 0 && curW+w > width {
			parts = append(parts, cur.String())
			cur.Reset()
			curW = 0
		}
		cur.WriteString(cluster)
		curW += w
	}
	if cur.Len() > 0 {
		parts = append(parts, cur.String())
	}
	return parts
}
