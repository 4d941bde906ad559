package domain

import (
	"strings"
	"time"
)

const (
	MinOptions = 2
	MaxOptions = 10
)

const optionLetters = "ABCDEFGHIJ"

// ValidLetters returns the option letters of a dilemma with n options: the
// prefix of A..J of length n. It returns nil when n is outside 2..10.
func ValidLetters(n int) []string {
	if n < MinOptions || n > MaxOptions {
		return nil
	}
	letters := make([]string, n)
	for i := 0; i < n; i++ {
		letters[i] = optionLetters[i : i+1]
	}
	return letters
}

// IsValidLetter reports whether letter is one of ValidLetters(n).
func IsValidLetter(n int, letter string) bool {
	for _, l := range ValidLetters(n) {
		if l == letter {
			return true
		}
	}
	return false
}

// NormalizeLetter trims and upper-cases a submitted choice.
func NormalizeLetter(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// Path concatenates the initial and final choice, e.g. "AB".
func Path(initial, final string) string {
	return initial + final
}

// TimeToDecide is the whole number of seconds between two timestamps, never negative.
func TimeToDecide(initialAt, finalAt time.Time) int {
	elapsed := finalAt.Sub(initialAt)
	if elapsed < 0 {
		return 0
	}
	return int(elapsed / time.Second)
}

// ValidateDilemma checks a dilemma definition: option count within range and
// options lettered as the A..J prefix, in order.
func ValidateDilemma(d Dilemma) error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrInvalidDilemma
	}
	letters := ValidLetters(d.OptionsCount)
	if letters == nil || len(d.Options) != len(letters) {
		return ErrInvalidDilemma
	}
	for i, opt := range d.Options {
		if opt.Letter != letters[i] {
			return ErrInvalidDilemma
		}
	}
	return nil
}
