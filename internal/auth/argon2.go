package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argonSaltLength  = 16
	argonKeyLength   = 32
	argonTime        = 3
	argonMemory      = 64 * 1024
	argonParallelism = 2

	argonPrefix = "$argon2id$"

	// bounds accepted from a stored digest; argon2.IDKey panics below the
	// minimums and allocates memory KiB unconditionally
	argonMaxMemory = 1 << 22
	argonMaxTime   = 64
	argonMaxKeyLen = 1024
)

// Argon2Hasher produces PHC-style argon2id digests:
// $argon2id$v=19$m=65536,t=3,p=2$salt$hash
type Argon2Hasher struct{}

func NewArgon2Hasher() *Argon2Hasher {
	return &Argon2Hasher{}
}

func (Argon2Hasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPassword
	}
	salt := make([]byte, argonSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(plaintext), salt, argonTime, argonMemory, argonParallelism, argonKeyLength)
	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s", argonPrefix, argon2.Version,
		argonMemory, argonTime, argonParallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

// Verify recomputes the key with the parameters stored in digest.
func (Argon2Hasher) Verify(plaintext, digest string) bool {
	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}
	var memory, iterations uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false
	}
	if iterations < 1 || iterations > argonMaxTime || threads < 1 ||
		memory < 8*uint32(threads) || memory > argonMaxMemory {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(want) == 0 || len(want) > argonMaxKeyLen {
		return false
	}
	got := argon2.IDKey([]byte(plaintext), salt, iterations, memory, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}

// dualHasher hashes with one algorithm and verifies digests of either, so
// switching PASSWORD_HASHER never locks out existing accounts.
type dualHasher struct {
	primary Hasher
	bcrypt  *BcryptHasher
	argon   *Argon2Hasher
}

func (d dualHasher) Hash(plaintext string) (string, error) {
	return d.primary.Hash(plaintext)
}

func (d dualHasher) Verify(plaintext, digest string) bool {
	if strings.HasPrefix(digest, argonPrefix) {
		return d.argon.Verify(plaintext, digest)
	}
	return d.bcrypt.Verify(plaintext, digest)
}

// NewHasher returns the hasher named by algorithm: "bcrypt" (default) or
// "argon2id".
func NewHasher(algorithm string) (Hasher, error) {
	d := dualHasher{bcrypt: NewBcryptHasher(), argon: NewArgon2Hasher()}
	switch strings.ToLower(strings.TrimSpace(algorithm)) {
	case "", "bcrypt":
		d.primary = d.bcrypt
	case "argon2id", "argon2":
		d.primary = d.argon
	default:
		return nil, fmt.Errorf("unsupported password hasher %q", algorithm)
	}
	return d, nil
}
