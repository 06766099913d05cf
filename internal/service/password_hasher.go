package service

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// PasswordScheme tags which hashing strategy produced a stored hash.
type PasswordScheme int

const (
	SchemeNone PasswordScheme = iota
	SchemeStrong
	SchemeLegacy
)

func (s PasswordScheme) String() string {
	switch s {
	case SchemeStrong:
		return "strong"
	case SchemeLegacy:
		return "legacy"
	default:
		return "none"
	}
}

type PasswordVerifier interface {
	Verify(hash string, password string) bool
}

type PasswordHasher interface {
	PasswordVerifier
	Hash(password string) (string, error)
}

type passwordStrategy struct {
	scheme   PasswordScheme
	verifier PasswordVerifier
}

// PasswordPolicy hashes with the strong scheme and verifies against every
// known scheme in priority order.
type PasswordPolicy struct {
	strong     PasswordHasher
	strategies []passwordStrategy
}

func NewPasswordPolicy(strong PasswordHasher, legacy PasswordVerifier) *PasswordPolicy {
	strategies := []passwordStrategy{{scheme: SchemeStrong, verifier: strong}}
	if legacy != nil {
		strategies = append(strategies, passwordStrategy{scheme: SchemeLegacy, verifier: legacy})
	}
	return &PasswordPolicy{strong: strong, strategies: strategies}
}

func (p *PasswordPolicy) Hash(password string) (string, error) {
	return p.strong.Hash(password)
}

// Match returns the scheme that accepted the password, or SchemeNone.
func (p *PasswordPolicy) Match(hash string, password string) PasswordScheme {
	if hash == "" || password == "" {
		return SchemeNone
	}
	for _, strategy := range p.strategies {
		if strategy.verifier.Verify(hash, password) {
			return strategy.scheme
		}
	}
	return SchemeNone
}

const argon2Prefix = "$argon2id$"

var errMalformedHash = errors.New("malformed argon2id hash")

type Argon2idHasher struct {
	Memory  uint32
	Time    uint32
	Threads uint8
	KeyLen  uint32
	SaltLen uint32
}

func NewArgon2idHasher() Argon2idHasher {
	return Argon2idHasher{Memory: 64 * 1024, Time: 1, Threads: 4, KeyLen: 32, SaltLen: 16}
}

func (h Argon2idHasher) Hash(password string) (string, error) {
	h = h.withDefaults()
	salt := make([]byte, h.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(password), salt, h.Time, h.Memory, h.Threads, h.KeyLen)
	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Prefix,
		argon2.Version,
		h.Memory, h.Time, h.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (h Argon2idHasher) Verify(hash string, password string) bool {
	params, salt, key, err := decodeArgon2id(hash)
	if err != nil {
		return false
	}
	candidate := argon2.IDKey([]byte(password), salt, params.Time, params.Memory, params.Threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(key, candidate) == 1
}

func (h Argon2idHasher) withDefaults() Argon2idHasher {
	defaults := NewArgon2idHasher()
	if h.Memory == 0 {
		h.Memory = defaults.Memory
	}
	if h.Time == 0 {
		h.Time = defaults.Time
	}
	if h.Threads == 0 {
		h.Threads = defaults.Threads
	}
	if h.KeyLen == 0 {
		h.KeyLen = defaults.KeyLen
	}
	if h.SaltLen == 0 {
		h.SaltLen = defaults.SaltLen
	}
	return h
}

func decodeArgon2id(hash string) (Argon2idHasher, []byte, []byte, error) {
	var params Argon2idHasher
	if !strings.HasPrefix(hash, argon2Prefix) {
		return params, nil, nil, errMalformedHash
	}
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(hash, "$")
	if len(parts) != 6 {
		return params, nil, nil, errMalformedHash
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return params, nil, nil, errMalformedHash
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Time, &params.Threads); err != nil {
		return params, nil, nil, errMalformedHash
	}
	if params.Memory == 0 || params.Time == 0 || params.Threads == 0 {
		return params, nil, nil, errMalformedHash
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return params, nil, nil, errMalformedHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return params, nil, nil, errMalformedHash
	}
	return params, salt, key, nil
}

// BcryptPasswordVerifier checks hashes written before the move to argon2id.
// New hashes are never produced with it.
type BcryptPasswordVerifier struct{}

func (BcryptPasswordVerifier) Verify(hash string, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
