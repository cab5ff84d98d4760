package security

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// ErrUnsupportedHash is returned for stored hashes that are neither bcrypt nor argon2id.
var ErrUnsupportedHash = errors.New("unsupported password hash format")

// Scheme names the adaptive hash family encoded in a stored hash.
type Scheme string

const (
	SchemeBcrypt   Scheme = "bcrypt"
	SchemeArgon2id Scheme = "argon2id"
)

var bcryptPrefixes = []string{"$2a$", "$2b$", "$2y$"}

// SchemeOf inspects the hash prefix.
func SchemeOf(encoded string) (Scheme, error) {
	if strings.HasPrefix(encoded, "$argon2id$") {
		return SchemeArgon2id, nil
	}
	for _, prefix := range bcryptPrefixes {
		if strings.HasPrefix(encoded, prefix) {
			return SchemeBcrypt, nil
		}
	}
	return "", ErrUnsupportedHash
}

// VerifyPassword returns true when the password matches the encoded hash. A
// mismatch is (false, nil); a malformed hash is an error.
func VerifyPassword(password, encoded string) (bool, error) {
	scheme, err := SchemeOf(encoded)
	if err != nil {
		return false, err
	}
	switch scheme {
	case SchemeBcrypt:
		return verifyBcrypt(password, encoded)
	default:
		return verifyArgon2id(password, encoded)
	}
}

func verifyBcrypt(password, encoded string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("compare bcrypt hash: %w", err)
}

// HashBcrypt produces a bcrypt hash; cost 0 selects bcrypt.DefaultCost.
func HashBcrypt(password string, cost int) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("generate bcrypt hash: %w", err)
	}
	return string(hash), nil
}

var dummyHash = sync.OnceValue(func() string {
	hash, err := bcrypt.GenerateFromPassword([]byte("ops-console-dummy-credential"), bcrypt.DefaultCost)
	if err != nil {
		panic(fmt.Sprintf("generate dummy hash: %v", err))
	}
	return string(hash)
})

// DummyHash is a valid bcrypt hash that no real password matches. Comparing
// against it keeps unknown-email logins as slow as known ones.
func DummyHash() string {
	return dummyHash()
}
