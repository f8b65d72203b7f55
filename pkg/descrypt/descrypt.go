// Package descrypt implements the traditional DES-based crypt(3) function:
// a 2-character salt followed by an 11-character digest.
package descrypt

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// SaltSize is the amount of salt characters in an encrypted value.
	SaltSize = 2

	// HashSize is the amount of digest characters in an encrypted value.
	HashSize = 11

	// EncryptedSize is the full size of an encrypted value (salt + digest).
	EncryptedSize = SaltSize + HashSize

	// MaxKeySize is the amount of password bytes which affect the result,
	// the rest is ignored.
	MaxKeySize = 8

	rounds = 25
)

// Alphabet is the set of characters used both in salts and in digests,
// ordered by their 6-bit value.
const Alphabet = "./0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// ErrInvalidSalt is returned if the salt is not exactly two characters
// of Alphabet.
var ErrInvalidSalt = errors.New("invalid salt")

// Crypt returns the 13-character crypt(3) value of the password
// computed with the given 2-character salt.
func Crypt(password, salt string) (string, error) {
	expansion, err := saltedExpansion(salt)
	if err != nil {
		return "", err
	}

	block := encrypt(keySchedule(passwordToKey(password)), &expansion)

	var out [EncryptedSize]byte
	copy(out[:SaltSize], salt)
	// 64 bits of the block padded with two zero bits give 11 characters
	for i := 0; i < HashSize-1; i++ {
		out[SaltSize+i] = Alphabet[(block>>(58-6*uint(i)))&0x3f]
	}
	out[EncryptedSize-1] = Alphabet[(block<<2)&0x3f]
	return string(out[:]), nil
}

// Verify returns true if the candidate with the salt encrypts into
// the 13-character value `encrypted`.
func Verify(salt, candidate, encrypted string) bool {
	if len(encrypted) != EncryptedSize {
		return false
	}
	result, err := Crypt(candidate, salt)
	if err != nil {
		return false
	}
	return result == encrypted
}

func passwordToKey(password string) uint64 {
	var key uint64
	for i := 0; i < MaxKeySize; i++ {
		var c byte
		if i < len(password) {
			c = password[i]
		}
		// 7 bits per character, the lowest bit of every byte is a parity bit
		key = key<<8 | uint64(c<<1)
	}
	return key
}

func saltedExpansion(salt string) ([48]byte, error) {
	expansion := expansionTable
	if len(salt) != SaltSize {
		return expansion, fmt.Errorf("%w: expected %d characters, but received %d", ErrInvalidSalt, SaltSize, len(salt))
	}

	for i := 0; i < SaltSize; i++ {
		value := strings.IndexByte(Alphabet, salt[i])
		if value < 0 {
			return expansion, fmt.Errorf("%w: character %q is not in %q", ErrInvalidSalt, salt[i], Alphabet)
		}
		for j := 0; j < 6; j++ {
			if (value>>j)&1 == 0 {
				continue
			}
			a, b := 6*i+j, 6*i+j+24
			expansion[a], expansion[b] = expansion[b], expansion[a]
		}
	}
	return expansion, nil
}

func keySchedule(key uint64) [16]uint64 {
	var subKeys [16]uint64
	cd := permute(key, permutedChoice1[:], 64)
	c, d := uint32(cd>>28), uint32(cd&0xfffffff)
	for i, shift := range keyShifts {
		c = (c<<shift | c>>(28-shift)) & 0xfffffff
		d = (d<<shift | d>>(28-shift)) & 0xfffffff
		subKeys[i] = permute(uint64(c)<<28|uint64(d), permutedChoice2[:], 56)
	}
	return subKeys
}

func encrypt(subKeys [16]uint64, expansion *[48]byte) uint64 {
	var block uint64
	for round := 0; round < rounds; round++ {
		v := permute(block, initialPermutation[:], 64)
		l, r := v>>32, v&0xffffffff
		for _, subKey := range subKeys {
			l, r = r, l^feistel(r, subKey, expansion)
		}
		block = permute(r<<32|l, finalPermutation[:], 64)
	}
	return block
}

func feistel(r, subKey uint64, expansion *[48]byte) uint64 {
	x := permute(r, expansion[:], 32) ^ subKey
	var out uint64
	for i := range sBoxes {
		six := (x >> (42 - 6*uint(i))) & 0x3f
		row := (six>>4)&2 | six&1
		col := (six >> 1) & 0xf
		out = out<<4 | uint64(sBoxes[i][row*16+col])
	}
	return permute(out, permutation[:], 32)
}

// permute builds a value from the bits of `v` selected by `table`,
// where bit positions are 1-based and counted from the most significant
// of `inBits` bits.
func permute(v uint64, table []byte, inBits uint) uint64 {
	var out uint64
	for _, pos := range table {
		out = out<<1 | (v>>(inBits-uint(pos)))&1
	}
	return out
}
