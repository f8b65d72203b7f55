package uncrypt

import (
	"strings"
)

// CommonPasswords are always added to the dictionary.
var CommonPasswords = []string{
	"111111", "222222", "333333", "444444", "555555", "666666", "777777",
	"888888", "999999", "123123", "123456", "1234567890", "qwerty", "starwars",
	"asdfg", "zxcvbnm", "1q2w3e", "iloveyou", "12345", "12345678", "1234567", "password",
}

// BuildDictionary returns the base wordlist: personal-information guesses
// derived from every credential, then CommonPasswords, then the wordlist.
func BuildDictionary(credentials []*Credential, wordlist []string) []string {
	var result []string
	for _, c := range credentials {
		result = append(result, personalGuesses(c)...)
	}
	result = append(result, CommonPasswords...)
	result = append(result, wordlist...)
	return result
}

func personalGuesses(c *Credential) []string {
	account := c.Account
	first, middle, last := c.FirstName, c.MiddleName, c.LastName

	result := []string{account}
	for _, name := range []string{first, middle, last} {
		if name == "" {
			continue
		}
		result = append(result,
			name,
			name+name,
			account+name,
			name+account,
		)
	}

	if first != "" && middle != "" && last != "" {
		result = append(result,
			first+middle+last,
			first+last+middle,
			last+first+middle,
			last+middle+first,
			middle+first+last,
			middle+last+first,
		)
	}

	for _, pair := range [][2]string{
		{first, last},
		{first, middle},
		{middle, last},
	} {
		if pair[0] == "" || pair[1] == "" {
			continue
		}
		result = append(result, pair[0]+pair[1], pair[1]+pair[0])
	}
	return result
}

// ParseWordlist splits newline-delimited words. Words are kept verbatim
// except for a trailing carriage return.
func ParseWordlist(data []byte) []string {
	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return nil
	}
	words := strings.Split(text, "\n")
	for idx, word := range words {
		words[idx] = strings.TrimSuffix(word, "\r")
	}
	return words
}

// Deduplicate drops repeated words, keeping the first occurrence.
func Deduplicate(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	result := make([]string, 0, len(words))
	for _, word := range words {
		if _, ok := seen[word]; ok {
			continue
		}
		seen[word] = struct{}{}
		result = append(result, word)
	}
	return result
}
