package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"

	"github.com/vedran77/messagely/internal/domain"
)

type Algorithm string

const (
	AlgorithmBcrypt   Algorithm = "bcrypt"
	AlgorithmArgon2id Algorithm = "argon2id"
)

// argon2id parameters other than the time cost, which is configurable.
const (
	argon2Memory  = 64 * 1024
	argon2Threads = 4
	argon2SaltLen = 16
	argon2KeyLen  = 32

	argon2MaxTime = 10
)

var (
	ErrEmptyPassword   = oops.Code("AUTH_EMPTY_PASSWORD").Wrapf(domain.ErrInvalidInput, "password cannot be empty")
	ErrPasswordTooLong = oops.Code("AUTH_PASSWORD_TOO_LONG").Wrapf(domain.ErrInvalidInput, "password exceeds %d bytes", 72)
)

// CredentialStore hashes and verifies passwords. New hashes use the
// configured algorithm and cost; Verify accepts any supported algorithm so
// hashes written under an earlier configuration keep working.
type CredentialStore struct {
	algorithm Algorithm
	cost      int
}

func NewCredentialStore(algorithm Algorithm, cost int) (*CredentialStore, error) {
	switch algorithm {
	case AlgorithmBcrypt:
		if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
			return nil, oops.Code("AUTH_INVALID_COST").
				With("algorithm", algorithm).
				Errorf("bcrypt cost must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, cost)
		}
	case AlgorithmArgon2id:
		if cost < 1 || cost > argon2MaxTime {
			return nil, oops.Code("AUTH_INVALID_COST").
				With("algorithm", algorithm).
				Errorf("argon2id time cost must be between 1 and %d, got %d", argon2MaxTime, cost)
		}
	default:
		return nil, oops.Code("AUTH_UNKNOWN_ALGORITHM").Errorf("unsupported hash algorithm: %q", algorithm)
	}

	return &CredentialStore{algorithm: algorithm, cost: cost}, nil
}

func (c *CredentialStore) Algorithm() Algorithm { return c.algorithm }

func (c *CredentialStore) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	if c.algorithm == AlgorithmArgon2id {
		return hashArgon2id(password, uint32(c.cost))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), c.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong
	}
	if err != nil {
		return "", oops.Code("AUTH_HASH_FAILED").With("algorithm", AlgorithmBcrypt).Wrap(err)
	}
	return string(hash), nil
}

// Verify reports whether password matches hash. A wrong password is
// (false, nil); an error means the stored hash itself is malformed.
func (c *CredentialStore) Verify(password, hash string) (bool, error) {
	if strings.HasPrefix(hash, "$argon2id$") {
		return verifyArgon2id(password, hash)
	}
	if !strings.HasPrefix(hash, "$2") {
		return false, oops.Code("AUTH_INVALID_HASH").Errorf("unrecognized hash format")
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword), errors.Is(err, bcrypt.ErrPasswordTooLong):
		return false, nil
	default:
		return false, oops.Code("AUTH_INVALID_HASH").With("algorithm", AlgorithmBcrypt).Wrap(err)
	}
}

// PHC string format: $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
func hashArgon2id(password string, timeCost uint32) (string, error) {
	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}

	hash := argon2.IDKey([]byte(password), salt, timeCost, argon2Memory, argon2Threads, argon2KeyLen)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		timeCost,
		argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

func verifyArgon2id(password, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return false, oops.Code("AUTH_INVALID_HASH").Errorf("invalid hash format")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	if version != argon2.Version {
		return false, oops.Code("AUTH_INVALID_HASH").Errorf("unsupported argon2 version: %d", version)
	}

	var memory, timeCost, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &timeCost, &threads); err != nil {
		return false, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	if threads == 0 || threads > 255 {
		return false, oops.Code("AUTH_INVALID_HASH").Errorf("invalid thread count: %d", threads)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}

	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	if len(expected) == 0 || len(expected) > 1024 {
		return false, oops.Code("AUTH_INVALID_HASH").Errorf("invalid key length: %d", len(expected))
	}

	computed := argon2.IDKey([]byte(password), salt, timeCost, memory, uint8(threads), uint32(len(expected)))
	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}
