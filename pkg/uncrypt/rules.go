package uncrypt

import (
	"fmt"
)

// lengthGuard is the word length starting from which the growing rules
// stop growing a word.
const lengthGuard = 8

// Rule is a pure transformation of a word. Every rule is defined for
// every input, including the empty string. Lengths and case conversions
// are byte-wise and ASCII-only.
type Rule func(word string) string

// RuleID is the 1-based identifier of a mangling rule.
type RuleID uint8

const (
	RuleDeleteFirst RuleID = iota + 1
	RuleDeleteLast
	RuleReverse
	RuleDuplicate
	RuleReflect
	RuleReflectReverseFirst
	RuleUpperCase
	RuleLowerCase
	RuleCapitalize
	RuleInvertCapitalize
	RuleToggleCaseEven
	RuleToggleCaseOdd
)

// RuleCount is the amount of elementary mangling rules.
const RuleCount = int(RuleToggleCaseOdd)

var rules = [RuleCount]Rule{
	DeleteFirst,
	DeleteLast,
	Reverse,
	Duplicate,
	Reflect,
	ReflectReverseFirst,
	UpperCase,
	LowerCase,
	Capitalize,
	InvertCapitalize,
	ToggleCaseEven,
	ToggleCaseOdd,
}

var ruleNames = [RuleCount]string{
	"delete-first",
	"delete-last",
	"reverse",
	"duplicate",
	"reflect",
	"reflect-reverse-first",
	"uppercase",
	"lowercase",
	"capitalize",
	"invert-capitalize",
	"toggle-case-even",
	"toggle-case-odd",
}

// Rules returns the rule table ordered by RuleID.
func Rules() []Rule {
	result := make([]Rule, len(rules))
	copy(result, rules[:])
	return result
}

// Valid returns true if the ID refers to an existing rule.
func (id RuleID) Valid() bool {
	return id >= 1 && int(id) <= RuleCount
}

// Apply applies the rule to the word. An invalid rule leaves the word as is.
func (id RuleID) Apply(word string) string {
	if !id.Valid() {
		return word
	}
	return rules[id-1](word)
}

func (id RuleID) String() string {
	if !id.Valid() {
		return fmt.Sprintf("rule-%d", uint8(id))
	}
	return ruleNames[id-1]
}

// Mangle applies the rules one after another: the first rule is applied
// to the word, the second one to the result of the first one, and so on.
func Mangle(word string, ruleIDs ...RuleID) string {
	for _, id := range ruleIDs {
		word = id.Apply(word)
	}
	return word
}

// DeleteFirst removes the first byte.
func DeleteFirst(word string) string {
	if len(word) == 0 {
		return word
	}
	return word[1:]
}

// DeleteLast removes the last byte of words not longer than 8 bytes.
func DeleteLast(word string) string {
	if len(word) == 0 || len(word) > lengthGuard {
		return word
	}
	return word[:len(word)-1]
}

// Reverse reverses the byte order.
func Reverse(word string) string {
	if len(word) < 2 {
		return word
	}
	b := make([]byte, len(word))
	for i, j := 0, len(word)-1; j >= 0; i, j = i+1, j-1 {
		b[i] = word[j]
	}
	return string(b)
}

// Duplicate returns word+word for words shorter than 8 bytes.
func Duplicate(word string) string {
	if len(word) >= lengthGuard {
		return word
	}
	return word + word
}

// Reflect returns word+reverse(word) for words shorter than 8 bytes.
func Reflect(word string) string {
	if len(word) >= lengthGuard {
		return word
	}
	return word + Reverse(word)
}

// ReflectReverseFirst returns reverse(word)+word for words shorter than
// 8 bytes, and reverse(word) otherwise.
func ReflectReverseFirst(word string) string {
	if len(word) >= lengthGuard {
		return Reverse(word)
	}
	return Reverse(word) + word
}

// UpperCase upper-cases all ASCII letters.
func UpperCase(word string) string {
	return mapCase(word, func(int) bool { return true })
}

// LowerCase lower-cases all ASCII letters.
func LowerCase(word string) string {
	return mapCase(word, func(int) bool { return false })
}

// Capitalize upper-cases the first byte if it is a lower-case ASCII letter.
func Capitalize(word string) string {
	if len(word) == 0 || !isLower(word[0]) {
		return word
	}
	return string(word[0]-'a'+'A') + word[1:]
}

// InvertCapitalize lower-cases the first letter and upper-cases the rest.
func InvertCapitalize(word string) string {
	return mapCase(word, func(idx int) bool { return idx != 0 })
}

// ToggleCaseEven upper-cases letters at even positions and lower-cases
// letters at odd positions.
func ToggleCaseEven(word string) string {
	return mapCase(word, func(idx int) bool { return idx%2 == 0 })
}

// ToggleCaseOdd upper-cases letters at odd positions and lower-cases
// letters at even positions.
func ToggleCaseOdd(word string) string {
	return mapCase(word, func(idx int) bool { return idx%2 == 1 })
}

func isLower(c byte) bool { return c >= 'a' && c <= 'z' }
func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }

// mapCase sets the case of every ASCII letter: upper if isUpperAt(idx)
// returns true, lower otherwise. The word is returned without copying if
// nothing changes.
func mapCase(word string, isUpperAt func(idx int) bool) string {
	var b []byte
	for idx := 0; idx < len(word); idx++ {
		c := word[idx]
		var mapped byte
		switch {
		case isLower(c) && isUpperAt(idx):
			mapped = c - 'a' + 'A'
		case isUpper(c) && !isUpperAt(idx):
			mapped = c - 'A' + 'a'
		default:
			continue
		}
		if b == nil {
			b = []byte(word)
		}
		b[idx] = mapped
	}
	if b == nil {
		return word
	}
	return string(b)
}
