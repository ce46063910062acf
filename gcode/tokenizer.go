package gcode

import (
	"strconv"
	"strings"

	"github.com/tindervale/motionfw/errors"
)

// Word is one (letter, value) pair tokenized from a line.
type Word struct {
	Letter byte
	Value  float64
}

// stripComments removes ";"-to-end-of-line comments and "(...)" parenthesized
// comments.
func stripComments(line string) string {
	var b strings.Builder
	depth := 0
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		case c == ';' && depth == 0:
			return b.String()
		case depth == 0:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// tokenize splits a comment-stripped line into Words. Letters are folded to
// uppercase; values accept an optional sign and a decimal point.
func tokenize(line string) ([]Word, error) {
	var words []Word

	i := 0
	for i < len(line) {
		c := line[i]
		if c == ' ' || c == '\t' {
			i++
			continue
		}

		if !isLetter(c) {
			return nil, errors.CodeErrorf(errors.InvalidGCodeWord, errors.InvalidGCodeWordMsg, string(c))
		}
		letter := upper(c)
		i++

		start := i
		if i < len(line) && (line[i] == '+' || line[i] == '-') {
			i++
		}
		for i < len(line) && (isDigit(line[i]) || line[i] == '.') {
			i++
		}
		if i == start {
			return nil, errors.CodeErrorf(errors.LetterWithoutValue, errors.LetterWithoutValueMsg, string(letter))
		}

		value, err := strconv.ParseFloat(line[start:i], 64)
		if err != nil {
			return nil, errors.CodeErrorf(errors.InvalidGCodeWord, errors.MalformedNumberMsg, line[start:i])
		}

		words = append(words, Word{Letter: letter, Value: value})
	}

	return words, nil
}

func isLetter(c byte) bool { return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') }
func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}
