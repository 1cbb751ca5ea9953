// internal/letters/letters.go
//
// Tile alphabet for keyboard input.
//
// Responsibilities:
//   - Load the set of tile letters once, from a file or the embedded default.
//   - Normalize raw key presses into tile letters, rejecting keys that are
//     not tiles (digits, punctuation, unsupported scripts).
//
// File format: one tile per line; blank lines and lines starting with '#'
// are ignored. A tile may be more than one rune (e.g. "LL" or "CH").
//
// Initialization behavior (Init):
//   1. If path is non-empty, load it.
//   2. Otherwise fall back to the embedded A–Z list.

package letters

import (
	"bufio"
	_ "embed"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
)

//go:embed default_letters.txt
var embeddedLetters string

var (
	initOnce   sync.Once
	alphabet   []string
	alphaSet   map[string]struct{}
	initialErr error
)

// Init loads the alphabet exactly once.
// Returns an error if the file cannot be read or yields no letters.
func Init(path string) error {
	initOnce.Do(func() {
		var list []string
		if path != "" {
			f, err := os.Open(path)
			if err != nil {
				initialErr = err
				return
			}
			defer f.Close()
			list, initialErr = parse(f)
			if initialErr != nil {
				return
			}
		} else {
			list, _ = parse(strings.NewReader(embeddedLetters))
		}
		if len(list) == 0 {
			initialErr = errors.New("letters: alphabet is empty")
			return
		}
		alphabet = list
		alphaSet = make(map[string]struct{}, len(list))
		for _, l := range list {
			alphaSet[l] = struct{}{}
		}
	})
	return initialErr
}

// parse reads one upper-cased tile per line.
func parse(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, strings.ToUpper(s))
	}
	return out, sc.Err()
}

// Normalize maps a key to a tile letter.
// Before Init has run, any non-empty key is accepted.
func Normalize(key string) (string, bool) {
	l := strings.ToUpper(strings.TrimSpace(key))
	if l == "" {
		return "", false
	}
	if alphaSet == nil {
		return l, true
	}
	_, ok := alphaSet[l]
	return l, ok
}

// All returns the loaded alphabet in file order.
func All() []string {
	return append([]string(nil), alphabet...)
}
