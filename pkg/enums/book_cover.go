package enums

import (
	"fmt"
	"strings"
)

// BookCover is the binding kind of a catalog book.
type BookCover string

const (
	BookCoverHard BookCover = "hard"
	BookCoverSoft BookCover = "soft"
)

var validBookCovers = []BookCover{
	BookCoverHard,
	BookCoverSoft,
}

var bookCoverAliases = map[string]BookCover{
	"hr": BookCoverHard,
	"sf": BookCoverSoft,
}

// String implements fmt.Stringer.
func (c BookCover) String() string {
	return string(c)
}

// IsValid reports whether the value is a known BookCover.
func (c BookCover) IsValid() bool {
	for _, candidate := range validBookCovers {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseBookCover converts raw input into a BookCover. Matching ignores case
// and accepts the short HR/SF codes.
func ParseBookCover(value string) (BookCover, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if alias, ok := bookCoverAliases[normalized]; ok {
		return alias, nil
	}
	for _, candidate := range validBookCovers {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid book cover %q", value)
}
