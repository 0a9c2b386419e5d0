package sqpack

import (
	"strconv"
	"strings"
)

// RepositoryID is a tagged union: either the base repository or a numbered
// expansion. The zero value is the base repository.
type RepositoryID struct {
	expansion uint8 // 0 means base; otherwise expansion number 1..255
}

// Base is the canonical base repository ("ffxiv").
var Base = RepositoryID{}

// Expansion constructs an expansion repository id (1..255).
func Expansion(n uint8) RepositoryID {
	if n == 0 {
		return Base
	}
	return RepositoryID{expansion: n}
}

// IsBase reports whether r names the base repository.
func (r RepositoryID) IsBase() bool { return r.expansion == 0 }

// Number returns the expansion number, or 0 for the base repository.
func (r RepositoryID) Number() uint8 { return r.expansion }

// String returns the canonical name: "ffxiv" for base, "ex<N>" otherwise.
func (r RepositoryID) String() string {
	if r.IsBase() {
		return "ffxiv"
	}
	return "ex" + strconv.Itoa(int(r.expansion))
}

// repositoryFromString parses a repository segment. Recognised forms are
// "ffxiv" (base) and "ex<digits>" (expansion 1..255). Any other string
// either falls back to base (fallback=true) or reports ErrInvalidRepo.
func repositoryFromString(s string, fallback bool) (RepositoryID, error) {
	lowered := lowerASCII(s)
	if lowered == "ffxiv" {
		return Base, nil
	}
	if rest, ok := strings.CutPrefix(lowered, "ex"); ok && rest != "" {
		n, err := strconv.Atoi(rest)
		if err == nil && n >= 1 && n <= 255 {
			return Expansion(uint8(n)), nil
		}
	}
	if fallback {
		return Base, nil
	}
	return RepositoryID{}, ErrInvalidRepo
}
