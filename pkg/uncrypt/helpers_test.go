package uncrypt

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeEncrypt is a cheap stand-in for crypt(3) with the same output format.
func fakeEncrypt(salt, password string) string {
	sum := sha256.Sum256([]byte(salt + "\x00" + password))
	return salt + base64.RawStdEncoding.EncodeToString(sum[:])[:11]
}

func fakeVerify(salt, candidate, encrypted string) bool {
	return fakeEncrypt(salt, candidate) == encrypted
}

type countingVerifier struct {
	calls atomic.Uint64
}

func (v *countingVerifier) Verify(salt, candidate, encrypted string) bool {
	v.calls.Add(1)
	return fakeVerify(salt, candidate, encrypted)
}

func credentialLine(account, salt, password, gecos string) string {
	return fmt.Sprintf("%s:%s:1000:1000:%s:/home/%s:/bin/sh",
		account, fakeEncrypt(salt, password), gecos, account)
}

func mustParseCredentials(t testing.TB, lines ...string) []*Credential {
	credentials, err := ParseCredentials([]byte(strings.Join(lines, "\n")))
	require.NoError(t, err)
	return credentials
}
