package uncrypt

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/uncrypt/pkg/descrypt"
)

// ErrMalformedCredential is returned for credential lines which do not
// follow the `account:encrypted:uid:gid:gecos:homedir:shell` format.
var ErrMalformedCredential = errors.New("malformed credential")

const credentialFieldCount = 7

// Credential is a parsed passwd-like line. It is immutable after parsing.
type Credential struct {
	// ID is the 0-based index of the line the credential was parsed from.
	ID int

	Account string

	// EncryptedPassword is the 13-character salt+hash value.
	EncryptedPassword string

	UID     string
	GID     string
	GECOS   string
	HomeDir string
	Shell   string

	// Name fragments derived from GECOS; empty if absent.
	FirstName  string
	MiddleName string
	LastName   string
}

// Salt returns the 2-character salt.
func (c *Credential) Salt() string {
	return c.EncryptedPassword[:descrypt.SaltSize]
}

// Hash returns the 11-character hash without the salt.
func (c *Credential) Hash() string {
	return c.EncryptedPassword[descrypt.SaltSize:]
}

// DerivedNames returns the non-empty name fragments in the order:
// first, middle, last.
func (c *Credential) DerivedNames() []string {
	var result []string
	for _, name := range []string{c.FirstName, c.MiddleName, c.LastName} {
		if name != "" {
			result = append(result, name)
		}
	}
	return result
}

func (c *Credential) String() string {
	return c.Account
}

// ParseCredential parses a single line.
func ParseCredential(id int, line string) (*Credential, error) {
	fields := strings.Split(line, ":")
	if len(fields) != credentialFieldCount {
		return nil, fmt.Errorf("%w: expected %d colon-separated fields (account:encrypted:uid:gid:gecos:homedir:shell), but received %d",
			ErrMalformedCredential, credentialFieldCount, len(fields))
	}

	c := &Credential{
		ID:                id,
		Account:           fields[0],
		EncryptedPassword: fields[1],
		UID:               fields[2],
		GID:               fields[3],
		GECOS:             fields[4],
		HomeDir:           fields[5],
		Shell:             fields[6],
	}
	if len(c.EncryptedPassword) != descrypt.EncryptedSize {
		return nil, fmt.Errorf("%w: expected %d characters (%d of salt and %d of hash) of encrypted password data for '%s', but received %d",
			ErrMalformedCredential, descrypt.EncryptedSize, descrypt.SaltSize, descrypt.HashSize, c.Account, len(c.EncryptedPassword))
	}

	c.FirstName, c.MiddleName, c.LastName = parseNames(c.GECOS)
	return c, nil
}

// parseNames splits the full name: "first", "first last" or
// "first middle last". Initials ("J.") lose their trailing dot, except
// for the last name.
func parseNames(fullName string) (first, middle, last string) {
	names := strings.Fields(fullName)
	switch {
	case len(names) == 0:
		return
	case len(names) == 3:
		middle = strings.TrimSuffix(names[1], ".")
		last = names[2]
	case len(names) > 1:
		last = names[1]
	}
	first = strings.TrimSuffix(names[0], ".")
	return
}

// ParseCredentials parses every non-blank line of the data. A single
// malformed line makes the whole input invalid: all the problems are
// reported together and no credentials are returned.
func ParseCredentials(data []byte) ([]*Credential, error) {
	var (
		result []*Credential
		errs   *multierror.Error
	)
	for lineIdx, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSuffix(line, []byte("\r"))
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		c, err := ParseCredential(len(result), string(line))
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("line %d: %w", lineIdx+1, err))
			continue
		}
		result = append(result, c)
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return result, nil
}
