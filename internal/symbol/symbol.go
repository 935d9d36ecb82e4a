// Package symbol canonicalizes ticker symbols.
package symbol

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalid is returned for a ticker that cannot name a listed instrument.
var ErrInvalid = errors.New("invalid ticker symbol")

// Covers plain equities (AAPL), share classes (BRK.B, BF-B), indices (^GSPC),
// futures and FX pairs (CL=F, EURUSD=X).
var pattern = regexp.MustCompile(`^\^?[A-Z0-9][A-Z0-9.\-=]{0,14}$`)

// Normalize trims and uppercases s, then checks that the result looks like a ticker.
func Normalize(s string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(s))
	if !pattern.MatchString(t) {
		return "", fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	return t, nil
}
