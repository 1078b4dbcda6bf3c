package chunker

import "regexp"

// sentenceBoundary matches an ASCII sentence terminator followed by
// whitespace or end-of-string, or a CJK terminator or newline on its own
// (with any trailing whitespace), grounded on html_chunker.py's
// _split_long_text sentence tokenizer.
var sentenceBoundary = regexp.MustCompile(`[.!?](?:\s+|$)|[。！？\n]\s*`)

// splitLongText breaks text into pieces of at most maxSize characters,
// preferring to break at sentence boundaries, carrying a trailing overlap
// of overlapSize characters into the start of the next piece (spec §4.1).
func splitLongText(text string, maxSize, overlapSize int) []string {
	runes := []rune(text)
	if len(runes) <= maxSize {
		return []string{text}
	}

	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return splitByRuneWindow(runes, maxSize, overlapSize)
	}

	var pieces []string
	var current []rune
	for _, s := range sentences {
		sr := []rune(s)
		if len(current) > 0 && len(current)+len(sr) > maxSize {
			pieces = append(pieces, string(current))
			current = overlapTail(current, overlapSize)
		}
		if len(sr) > maxSize {
			// A single sentence longer than maxSize: flush what we have,
			// then hard-wrap the oversized sentence itself.
			if len(current) > 0 {
				pieces = append(pieces, string(current))
				current = nil
			}
			for _, w := range splitByRuneWindow(sr, maxSize, overlapSize) {
				pieces = append(pieces, w)
			}
			continue
		}
		current = append(current, sr...)
	}
	if len(current) > 0 {
		pieces = append(pieces, string(current))
	}
	return pieces
}

// splitSentences splits text into sentence-like fragments, keeping the
// terminator attached to the preceding fragment.
func splitSentences(text string) []string {
	var out []string
	last := 0
	idxs := sentenceBoundary.FindAllStringIndex(text, -1)
	for _, m := range idxs {
		frag := text[last:m[1]]
		if trimmed := trimFragment(frag); trimmed != "" {
			out = append(out, trimmed)
		}
		last = m[1]
	}
	if last < len(text) {
		if trimmed := trimFragment(text[last:]); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func trimFragment(s string) string {
	start, end := 0, len(s)
	for start < end && (s[start] == ' ' || s[start] == '\t') {
		start++
	}
	for end > start && (s[end-1] == ' ' || s[end-1] == '\t') {
		end--
	}
	return s[start:end]
}

// overlapTail returns the trailing overlapSize runes of current, used to
// seed the next piece.
func overlapTail(current []rune, overlapSize int) []rune {
	if overlapSize <= 0 || len(current) <= overlapSize {
		return nil
	}
	tail := make([]rune, overlapSize)
	copy(tail, current[len(current)-overlapSize:])
	return tail
}

// splitByRuneWindow hard-wraps a rune slice with no sentence boundaries,
// used as a fallback for pathological single-sentence walls of text.
func splitByRuneWindow(runes []rune, maxSize, overlapSize int) []string {
	var pieces []string
	step := maxSize - overlapSize
	if step <= 0 {
		step = maxSize
	}
	for start := 0; start < len(runes); start += step {
		end := start + maxSize
		if end > len(runes) {
			end = len(runes)
		}
		pieces = append(pieces, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return pieces
}
