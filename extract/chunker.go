package extract

import (
	"strings"
	"unicode/utf8"
)

// approxTokens estimates the token count of text from its character
// count, using the ~3 chars/token heuristic shared with the batch
// optimizer.
func approxTokens(text string) int {
	return (len(text) + 2) / 3
}

// tailChars returns the last max bytes of s, snapped forward to a rune
// boundary.
func tailChars(s string, max int) string {
	if len(s) <= max {
		return s
	}
	i := len(s) - max
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return s[i:]
}

// splitText groups the lines of text into token-bounded chunks with
// optional overlap. Lines are the unit of accumulation; a chunk is
// emitted once its token estimate reaches targetTokens, keeping a tail
// of roughly overlapTokens as the seed of the next chunk so sentences
// spanning a boundary appear in both.
func splitText(text string, targetTokens, overlapTokens, minChars int) []string {
	var (
		out    []string
		buf    []string
		tokSum int
		fresh  int // lines added since the last flush, beyond the overlap seed
	)

	flush := func() {
		if len(buf) == 0 {
			return
		}
		out = append(out, strings.Join(buf, "\n"))
		fresh = 0

		if overlapTokens > 0 {
			// Keep a tail whose token sum is roughly overlapTokens,
			// preserving original line order. A line that alone exceeds
			// the whole overlap budget is truncated to its final
			// characters so one unbroken line cannot replicate into
			// every subsequent chunk.
			var keep []string
			remain := overlapTokens
			for j := len(buf) - 1; j >= 0 && remain > 0; j-- {
				line := buf[j]
				if approxTokens(line) > overlapTokens {
					line = tailChars(line, overlapTokens*3)
				}
				keep = append([]string{line}, keep...)
				remain -= approxTokens(line)
			}
			buf = keep
			tokSum = 0
			for _, s := range buf {
				tokSum += approxTokens(s)
			}
		} else {
			buf = buf[:0]
			tokSum = 0
		}
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		buf = append(buf, line)
		tokSum += approxTokens(line)
		fresh++

		if tokSum >= targetTokens {
			flush()
		}
	}

	// Emit the remainder unless it is pure overlap from the previous
	// chunk or too small to be useful on its own.
	if fresh > 0 {
		tail := strings.Join(buf, "\n")
		if len(out) == 0 || len(tail) >= minChars {
			out = append(out, tail)
		}
	}

	return out
}
