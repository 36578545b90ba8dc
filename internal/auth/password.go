package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
)

// ErrMalformedHash is returned when a stored hash cannot be parsed.
var ErrMalformedHash = errors.New("malformed password hash")

const (
	saltLength = 16
	keyLength  = 32
)

// PasswordParams tunes argon2id.
type PasswordParams struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
}

// DefaultPasswordParams are the RFC 9106 second recommended option.
var DefaultPasswordParams = PasswordParams{Time: 3, Memory: 64 * 1024, Threads: 4}

// PasswordHasher hashes and verifies passwords with argon2id.
type PasswordHasher struct {
	params PasswordParams

	dummyOnce sync.Once
	dummy     string
}

// NewPasswordHasher builds a hasher; zero fields fall back to DefaultPasswordParams.
func NewPasswordHasher(params PasswordParams) *PasswordHasher {
	if params.Time == 0 {
		params.Time = DefaultPasswordParams.Time
	}
	if params.Memory == 0 {
		params.Memory = DefaultPasswordParams.Memory
	}
	if params.Threads == 0 {
		params.Threads = DefaultPasswordParams.Threads
	}
	return &PasswordHasher{params: params}
}

// Hash returns the PHC-encoded argon2id hash of password with a fresh salt.
func (h *PasswordHasher) Hash(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.Memory, h.params.Threads, keyLength)
	return encodeHash(h.params, salt, key), nil
}

func encodeHash(params PasswordParams, salt, key []byte) string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		params.Memory, params.Time, params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
}

// Compare verifies plain against an encoded hash using the parameters
// stored in the hash. It returns nil on match.
func (h *PasswordHasher) Compare(encoded, plain string) error {
	params, salt, key, err := decodeHash(encoded)
	if err != nil {
		return err
	}
	other := argon2.IDKey([]byte(plain), salt, params.Time, params.Memory, params.Threads, uint32(len(key)))
	if subtle.ConstantTimeCompare(key, other) != 1 {
		return errors.New("password mismatch")
	}
	return nil
}

// Burn runs Compare against a dummy hash made once with the configured
// parameters, so an unknown-account login costs the same as a wrong
// password for any account hashed under the current parameters. Accounts
// hashed before a parameter change still cost what their stored hash says.
func (h *PasswordHasher) Burn(plain string) {
	_ = h.Compare(h.dummyHash(), plain)
}

func (h *PasswordHasher) dummyHash() string {
	h.dummyOnce.Do(func() {
		var salt [saltLength]byte
		_, _ = rand.Read(salt[:])
		key := argon2.IDKey([]byte("burn"), salt[:], h.params.Time, h.params.Memory, h.params.Threads, keyLength)
		h.dummy = encodeHash(h.params, salt[:], key)
	})
	return h.dummy
}

func decodeHash(encoded string) (PasswordParams, []byte, []byte, error) {
	var params PasswordParams

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return params, nil, nil, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return params, nil, nil, ErrMalformedHash
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Time, &params.Threads); err != nil {
		return params, nil, nil, ErrMalformedHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return params, nil, nil, ErrMalformedHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return params, nil, nil, ErrMalformedHash
	}
	return params, salt, key, nil
}
