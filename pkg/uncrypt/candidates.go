package uncrypt

import (
	"iter"
	"slices"
)

// Alphabet is the set of characters used both for single-character
// expansions and for brute-forcing, in the order they are tried.
const Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// PrependOne returns the word prefixed with every character of Alphabet.
func PrependOne(word string) []string {
	return slices.Collect(prepended(word))
}

// AppendOne returns the word suffixed with every character of Alphabet,
// or nothing if the word is already 8 bytes long or longer.
func AppendOne(word string) []string {
	return slices.Collect(appended(word))
}

func prepended(word string) iter.Seq[string] {
	return func(yield func(string) bool) {
		b := make([]byte, len(word)+1)
		copy(b[1:], word)
		for i := 0; i < len(Alphabet); i++ {
			b[0] = Alphabet[i]
			if !yield(string(b)) {
				return
			}
		}
	}
}

func appended(word string) iter.Seq[string] {
	return func(yield func(string) bool) {
		if len(word) >= lengthGuard {
			return
		}
		b := make([]byte, len(word)+1)
		copy(b, word)
		for i := 0; i < len(Alphabet); i++ {
			b[len(word)] = Alphabet[i]
			if !yield(string(b)) {
				return
			}
		}
	}
}

// expansions yields all prepended variants of the word, then all appended ones.
func expansions(word string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for candidate := range prepended(word) {
			if !yield(candidate) {
				return
			}
		}
		for candidate := range appended(word) {
			if !yield(candidate) {
				return
			}
		}
	}
}

// RawCandidates yields the dictionary words as is.
func RawCandidates(dictionary []string) iter.Seq[string] {
	return slices.Values(dictionary)
}

// MangledCandidates yields every composition of exactly `depth` rules
// applied to every dictionary word: RuleCount^depth candidates per word.
// The first applied rule changes slowest.
func MangledCandidates(dictionary []string, depth int) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, word := range dictionary {
			if !mangleRecursively(word, depth, yield) {
				return
			}
		}
	}
}

func mangleRecursively(word string, depth int, yield func(string) bool) bool {
	if depth <= 0 {
		return yield(word)
	}
	for _, rule := range rules {
		if !mangleRecursively(rule(word), depth-1, yield) {
			return false
		}
	}
	return true
}

// ExpansionCandidates yields the single-character expansions of every
// dictionary word, and then (in a second pass over the dictionary)
// the same expansions with the first byte deleted.
func ExpansionCandidates(dictionary []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, word := range dictionary {
			for candidate := range expansions(word) {
				if !yield(candidate) {
					return
				}
			}
		}
		for _, word := range dictionary {
			for candidate := range expansions(word) {
				if !yield(DeleteFirst(candidate)) {
					return
				}
			}
		}
	}
}

// ReversedExpansionCandidates yields the single-character expansions
// of every reversed dictionary word, each followed by its single-rule
// manglings.
func ReversedExpansionCandidates(dictionary []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, word := range dictionary {
			for candidate := range expansions(Reverse(word)) {
				if !yield(candidate) {
					return
				}
				if !mangleRecursively(candidate, 1, yield) {
					return
				}
			}
		}
	}
}
