package joizod

import (
	"errors"
	"fmt"
)

// ErrUnterminatedRegex is returned by ScanRegexLiteral when the closing
// slash is missing.
var ErrUnterminatedRegex = errors.New("unterminated regular expression literal")

// ScanRegexLiteral returns the end offset of the regular expression literal
// starting at s[start] (which must be '/'). Escaped characters and '/'
// inside a character class do not terminate the body. Trailing flags are
// included.
func ScanRegexLiteral(s string, start int) (int, error) {
	if start >= len(s) || s[start] != '/' {
		return 0, fmt.Errorf("regex literal at %d: want '/'", start)
	}
	inClass := false
	i := start + 1
	for ; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\\':
			i++
		case c == '\n':
			return 0, fmt.Errorf("%w at %d", ErrUnterminatedRegex, start)
		case c == '[':
			inClass = true
		case c == ']':
			inClass = false
		case c == '/' && !inClass:
			i++
			for i < len(s) && isIdentChar(s[i]) {
				i++
			}
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w at %d", ErrUnterminatedRegex, start)
}

func isIdentChar(c byte) bool {
	return c == '_' || c == '$' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
