package repl

import (
	"errors"
	"strings"
)

// ErrUnterminatedQuote is returned by Split for an unbalanced quote.
var ErrUnterminatedQuote = errors.New("unterminated quote")

// Split breaks a line into words the way redis-cli does: whitespace
// separates words, double quotes allow \n, \t, \\ and \" escapes, single
// quotes take everything literally except \'.
func Split(line string) ([]string, error) {
	var (
		args   []string
		cur    strings.Builder
		inWord bool
	)

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == ' ' || c == '\t':
			if inWord {
				args = append(args, cur.String())
				cur.Reset()
				inWord = false
			}
		case c == '"' || c == '\'':
			inWord = true
			end, err := quoted(line, i, &cur)
			if err != nil {
				return nil, err
			}
			i = end
		default:
			inWord = true
			cur.WriteByte(c)
		}
	}
	if inWord {
		args = append(args, cur.String())
	}
	if len(args) == 0 {
		return nil, errors.New("empty line")
	}
	return args, nil
}

// quoted copies the quoted section starting at line[start] into cur and
// returns the index of the closing quote.
func quoted(line string, start int, cur *strings.Builder) (int, error) {
	q := line[start]
	for i := start + 1; i < len(line); i++ {
		c := line[i]
		switch {
		case c == q:
			return i, nil
		case c == '\\' && i+1 < len(line):
			next := line[i+1]
			if q == '\'' {
				if next == '\'' {
					cur.WriteByte('\'')
					i++
					continue
				}
				cur.WriteByte(c)
				continue
			}
			switch next {
			case 'n':
				cur.WriteByte('\n')
			case 't':
				cur.WriteByte('\t')
			case 'r':
				cur.WriteByte('\r')
			default:
				cur.WriteByte(next)
			}
			i++
		default:
			cur.WriteByte(c)
		}
	}
	return 0, ErrUnterminatedQuote
}
